package tracker

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
)

// JiraAdapter mirrors requests to Jira Cloud issues over the REST v3 API.
// Issue bodies use the Atlassian Document Format.
type JiraAdapter struct {
	user  string
	token string
	rest  *restClient

	// baseURL overrides the URL derived from the tracker link when non-empty
	// (useful for testing).
	baseURL string
}

// NewJiraAdapter builds an adapter authenticating with the tenant's
// user+token pair.
func NewJiraAdapter(user, token string, timeout time.Duration, logger *zap.Logger, baseURL string) *JiraAdapter {
	return &JiraAdapter{
		user:    user,
		token:   token,
		rest:    newRESTClient(timeout, logger),
		baseURL: baseURL,
	}
}

// Platform identifies the adapter.
func (a *JiraAdapter) Platform() Platform {
	return PlatformJira
}

type jiraIssueFields struct {
	Project     *jiraProjectRef `json:"project,omitempty"`
	Summary     string          `json:"summary"`
	Description adfDocument     `json:"description"`
	IssueType   *jiraTypeRef    `json:"issuetype,omitempty"`
}

type jiraProjectRef struct {
	Key string `json:"key"`
}

type jiraTypeRef struct {
	Name string `json:"name"`
}

type jiraIssuePayload struct {
	Fields jiraIssueFields `json:"fields"`
}

type jiraIssueResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type jiraTransitionList struct {
	Transitions []jiraTransition `json:"transitions"`
}

type jiraTransition struct {
	ID string `json:"id"`
	To struct {
		StatusCategory struct {
			Key string `json:"key"`
		} `json:"statusCategory"`
	} `json:"to"`
}

// Sync creates or updates the remote Jira issue for the request. Closing a
// request walks the remote workflow via the transitions endpoint; local
// requests never reopen, so only the done transition is mirrored.
func (a *JiraAdapter) Sync(ctx context.Context, in SyncInput) (*domain.ExternalIssueLink, error) {
	if in.Link == nil {
		base, projectKey, err := ExtractJiraInfo(in.TrackerURL)
		if err != nil {
			return nil, err
		}
		payload := jiraIssuePayload{Fields: jiraIssueFields{
			Project:     &jiraProjectRef{Key: projectKey},
			Summary:     in.Title,
			Description: adfFromText(in.Body),
			IssueType:   &jiraTypeRef{Name: "Task"},
		}}
		var created jiraIssueResponse
		if err := a.rest.doJSON(ctx, http.MethodPost, a.apiBase(base)+"/rest/api/3/issue", a.headers(), payload, &created); err != nil {
			return nil, err
		}
		return &domain.ExternalIssueLink{
			Dataspace: in.Dataspace,
			RequestID: in.RequestID,
			Platform:  string(PlatformJira),
			Repo:      projectKey,
			IssueID:   created.Key,
			BaseURL:   base,
		}, nil
	}

	issueURL := a.apiBase(in.Link.BaseURL) + "/rest/api/3/issue/" + in.Link.IssueID
	payload := jiraIssuePayload{Fields: jiraIssueFields{
		Summary:     in.Title,
		Description: adfFromText(in.Body),
	}}
	if err := a.rest.doJSON(ctx, http.MethodPut, issueURL, a.headers(), payload, nil); err != nil {
		return nil, err
	}
	if in.Closed {
		if err := a.transitionToDone(ctx, issueURL); err != nil {
			return nil, err
		}
	}
	return in.Link, nil
}

// PostComment appends a comment to the linked Jira issue.
func (a *JiraAdapter) PostComment(ctx context.Context, link *domain.ExternalIssueLink, text string) error {
	endpoint := a.apiBase(link.BaseURL) + "/rest/api/3/issue/" + link.IssueID + "/comment"
	payload := map[string]adfDocument{"body": adfFromText(text)}
	return a.rest.doJSON(ctx, http.MethodPost, endpoint, a.headers(), payload, nil)
}

func (a *JiraAdapter) transitionToDone(ctx context.Context, issueURL string) error {
	var list jiraTransitionList
	if err := a.rest.doJSON(ctx, http.MethodGet, issueURL+"/transitions", a.headers(), nil, &list); err != nil {
		return err
	}
	for _, t := range list.Transitions {
		if t.To.StatusCategory.Key == "done" {
			payload := map[string]map[string]string{"transition": {"id": t.ID}}
			return a.rest.doJSON(ctx, http.MethodPost, issueURL+"/transitions", a.headers(), payload, nil)
		}
	}
	return nil
}

func (a *JiraAdapter) apiBase(linkBase string) string {
	if a.baseURL != "" {
		return a.baseURL
	}
	return linkBase
}

func (a *JiraAdapter) headers() map[string]string {
	raw := base64.StdEncoding.EncodeToString([]byte(a.user + ":" + a.token))
	return map[string]string{"Authorization": "Basic " + raw}
}

// Atlassian Document Format, the structured body Jira Cloud requires.
type adfDocument struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Content []adfNode `json:"content"`
}

type adfNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []adfNode      `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
}

// adfFromText converts a rendered issue body into ADF: heading-marker lines
// become heading blocks, every other non-empty line becomes a paragraph.
func adfFromText(body string) adfDocument {
	doc := adfDocument{Type: "doc", Version: 1}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if heading, ok := strings.CutPrefix(trimmed, headingMarker); ok {
			doc.Content = append(doc.Content, adfNode{
				Type:    "heading",
				Attrs:   map[string]any{"level": 3},
				Content: []adfNode{{Type: "text", Text: heading}},
			})
			continue
		}
		doc.Content = append(doc.Content, adfNode{
			Type:    "paragraph",
			Content: []adfNode{{Type: "text", Text: trimmed}},
		})
	}
	return doc
}
