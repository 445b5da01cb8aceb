package tracker

import (
	"context"

	"github.com/complykit/request-service/internal/domain"
)

// Platform identifies a supported issue tracker service.
type Platform string

const (
	PlatformGitHub    Platform = "github"
	PlatformGitLab    Platform = "gitlab"
	PlatformJira      Platform = "jira"
	PlatformForgejo   Platform = "forgejo"
	PlatformSourceHut Platform = "sourcehut"
)

// SyncInput carries everything an adapter needs to mirror a request to its
// remote issue. Title and Body are pre-rendered; Link is nil until the first
// successful sync.
type SyncInput struct {
	Dataspace  string
	RequestID  string
	TrackerURL string
	Link       *domain.ExternalIssueLink
	Title      string
	Body       string
	Closed     bool
}

// Adapter translates request state into one remote issue on a single
// platform. Sync creates the remote issue and returns a new link when none
// exists yet, or updates the existing issue (mirroring open/closed state)
// and returns the same link. PostComment appends a comment to the linked
// remote issue. Both perform outbound HTTPS calls and nothing else; link
// persistence belongs to the caller.
type Adapter interface {
	Platform() Platform
	Sync(ctx context.Context, in SyncInput) (*domain.ExternalIssueLink, error)
	PostComment(ctx context.Context, link *domain.ExternalIssueLink, text string) error
}

// CredentialSource supplies tenant-scoped tracker secrets. An empty value
// means the credential is not configured.
type CredentialSource interface {
	GetConfiguration(ctx context.Context, dataspace, key string) (string, error)
}

// Credential configuration keys consumed by the adapters.
const (
	ConfigKeyGitHubToken    = "github_token"
	ConfigKeyGitLabToken    = "gitlab_token"
	ConfigKeyJiraUser       = "jira_user"
	ConfigKeyJiraToken      = "jira_token"
	ConfigKeyForgejoToken   = "forgejo_token"
	ConfigKeySourceHutToken = "sourcehut_token"
)

// KnownConfigKey reports whether key names a credential any adapter reads.
func KnownConfigKey(key string) bool {
	switch key {
	case ConfigKeyGitHubToken, ConfigKeyGitLabToken, ConfigKeyJiraUser,
		ConfigKeyJiraToken, ConfigKeyForgejoToken, ConfigKeySourceHutToken:
		return true
	}
	return false
}
