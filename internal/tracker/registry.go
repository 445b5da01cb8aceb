package tracker

import (
	"regexp"
	"strings"
)

// Classification patterns, tried in order; first match wins. The table is
// built once at init and read-only afterwards. The Forgejo pattern accepts
// any self-hosted git host shaped like host/owner/repo, so it must stay
// after the more specific platforms.
var classifiers = []struct {
	platform Platform
	re       *regexp.Regexp
}{
	{PlatformGitHub, regexp.MustCompile(`^https?://github\.com/[\w.-]+/[\w.-]+/?$`)},
	{PlatformGitLab, regexp.MustCompile(`^https?://gitlab\.com/[\w.-]+(?:/[\w.-]+)+/?$`)},
	{PlatformJira, regexp.MustCompile(`^https?://[\w-]+\.atlassian\.net(?:/|$)`)},
	{PlatformSourceHut, regexp.MustCompile(`^https?://todo\.sr\.ht/~[\w.-]+/[\w.-]+/?$`)},
	{PlatformForgejo, regexp.MustCompile(`^https?://[\w.-]+(?::\d+)?/[\w.-]+/[\w.-]+/?$`)},
}

// Classify maps a tracker URL to its platform. A false return means no
// integration is configured for the URL; callers must not treat it as an
// error.
func Classify(trackerURL string) (Platform, bool) {
	trackerURL = strings.TrimSpace(trackerURL)
	if trackerURL == "" {
		return "", false
	}
	for _, c := range classifiers {
		if c.re.MatchString(trackerURL) {
			return c.platform, true
		}
	}
	return "", false
}

// LookupPlatform resolves a platform by its configured name.
func LookupPlatform(name string) (Platform, bool) {
	switch Platform(strings.ToLower(strings.TrimSpace(name))) {
	case PlatformGitHub:
		return PlatformGitHub, true
	case PlatformGitLab:
		return PlatformGitLab, true
	case PlatformJira:
		return PlatformJira, true
	case PlatformForgejo:
		return PlatformForgejo, true
	case PlatformSourceHut:
		return PlatformSourceHut, true
	}
	return "", false
}

var (
	githubRepoRe    = regexp.MustCompile(`^https?://github\.com/([\w.-]+)/([\w.-]+?)/?$`)
	gitlabRepoRe    = regexp.MustCompile(`^https?://gitlab\.com/([\w.-]+(?:/[\w.-]+)+?)/?$`)
	forgejoRepoRe   = regexp.MustCompile(`^(https?://[\w.-]+(?::\d+)?)/([\w.-]+)/([\w.-]+?)/?$`)
	sourcehutRepoRe = regexp.MustCompile(`^https?://todo\.sr\.ht/(~[\w.-]+)/([\w.-]+?)/?$`)

	jiraBaseRe     = regexp.MustCompile(`^(https?://[\w-]+\.atlassian\.net)(/.*)?$`)
	jiraProjectRes = []*regexp.Regexp{
		regexp.MustCompile(`^/jira/(?:software|core|servicedesk)/(?:c/)?projects/([A-Z][A-Z0-9]*)(?:/|$)`),
		regexp.MustCompile(`^/projects/([A-Z][A-Z0-9]*)(?:/|$)`),
		regexp.MustCompile(`^/browse/([A-Z][A-Z0-9]*)(?:-\d+)?(?:/|$)`),
	}
)

// ExtractRepoPath returns the owner/repo identifier a platform's API expects,
// derived from the configured tracker URL. GitLab paths may include
// subgroups.
func ExtractRepoPath(platform Platform, trackerURL string) (string, error) {
	switch platform {
	case PlatformGitHub:
		if m := githubRepoRe.FindStringSubmatch(trackerURL); m != nil {
			return m[1] + "/" + m[2], nil
		}
	case PlatformGitLab:
		if m := gitlabRepoRe.FindStringSubmatch(trackerURL); m != nil {
			return m[1], nil
		}
	case PlatformForgejo:
		if m := forgejoRepoRe.FindStringSubmatch(trackerURL); m != nil {
			return m[2] + "/" + m[3], nil
		}
	case PlatformSourceHut:
		if m := sourcehutRepoRe.FindStringSubmatch(trackerURL); m != nil {
			return m[1] + "/" + m[2], nil
		}
	}
	return "", &InvalidTrackerURLError{Platform: platform, URL: trackerURL}
}

// ExtractForgejoInfo splits a self-hosted tracker URL into the instance base
// URL and the owner/repo path.
func ExtractForgejoInfo(trackerURL string) (baseURL, repo string, err error) {
	m := forgejoRepoRe.FindStringSubmatch(trackerURL)
	if m == nil {
		return "", "", &InvalidTrackerURLError{Platform: PlatformForgejo, URL: trackerURL}
	}
	return m[1], m[2] + "/" + m[3], nil
}

// ExtractJiraInfo returns the Jira Cloud base URL and project key from any of
// the URL shapes Jira hands out for a project (board, project home, browse).
func ExtractJiraInfo(trackerURL string) (baseURL, projectKey string, err error) {
	m := jiraBaseRe.FindStringSubmatch(trackerURL)
	if m == nil {
		return "", "", &InvalidTrackerURLError{Platform: PlatformJira, URL: trackerURL}
	}
	baseURL = m[1]
	path := m[2]
	for _, re := range jiraProjectRes {
		if pm := re.FindStringSubmatch(path); pm != nil {
			return baseURL, pm[1], nil
		}
	}
	return "", "", &InvalidTrackerURLError{Platform: PlatformJira, URL: trackerURL}
}

// ExtractSourceHutTracker returns the ~owner username and tracker name from a
// todo.sr.ht URL.
func ExtractSourceHutTracker(trackerURL string) (owner, name string, err error) {
	m := sourcehutRepoRe.FindStringSubmatch(trackerURL)
	if m == nil {
		return "", "", &InvalidTrackerURLError{Platform: PlatformSourceHut, URL: trackerURL}
	}
	return m[1], m[2], nil
}
