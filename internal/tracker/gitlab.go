package tracker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
)

const gitlabDefaultBaseURL = "https://gitlab.com"

// GitLabAdapter mirrors requests to GitLab issues over the REST v4 API.
type GitLabAdapter struct {
	baseURL string
	token   string
	rest    *restClient
}

// NewGitLabAdapter builds an adapter for gitlab.com using the tenant token.
// baseURL overrides the API host when non-empty (useful for testing).
func NewGitLabAdapter(token string, timeout time.Duration, logger *zap.Logger, baseURL string) *GitLabAdapter {
	if baseURL == "" {
		baseURL = gitlabDefaultBaseURL
	}
	return &GitLabAdapter{
		baseURL: baseURL,
		token:   token,
		rest:    newRESTClient(timeout, logger),
	}
}

// Platform identifies the adapter.
func (a *GitLabAdapter) Platform() Platform {
	return PlatformGitLab
}

type gitlabIssuePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StateEvent  string `json:"state_event,omitempty"`
}

type gitlabIssueResponse struct {
	IID int `json:"iid"`
}

// Sync creates or updates the remote GitLab issue for the request.
func (a *GitLabAdapter) Sync(ctx context.Context, in SyncInput) (*domain.ExternalIssueLink, error) {
	if in.Link == nil {
		repoPath, err := ExtractRepoPath(PlatformGitLab, in.TrackerURL)
		if err != nil {
			return nil, err
		}
		endpoint := a.projectURL(repoPath) + "/issues"
		var created gitlabIssueResponse
		payload := gitlabIssuePayload{Title: in.Title, Description: in.Body}
		if err := a.rest.doJSON(ctx, http.MethodPost, endpoint, a.headers(), payload, &created); err != nil {
			return nil, err
		}
		return &domain.ExternalIssueLink{
			Dataspace: in.Dataspace,
			RequestID: in.RequestID,
			Platform:  string(PlatformGitLab),
			Repo:      repoPath,
			IssueID:   fmt.Sprintf("%d", created.IID),
		}, nil
	}

	payload := gitlabIssuePayload{Title: in.Title, Description: in.Body, StateEvent: "reopen"}
	if in.Closed {
		payload.StateEvent = "close"
	}
	endpoint := a.projectURL(in.Link.Repo) + "/issues/" + in.Link.IssueID
	if err := a.rest.doJSON(ctx, http.MethodPut, endpoint, a.headers(), payload, nil); err != nil {
		return nil, err
	}
	return in.Link, nil
}

// PostComment appends a note to the linked GitLab issue.
func (a *GitLabAdapter) PostComment(ctx context.Context, link *domain.ExternalIssueLink, text string) error {
	endpoint := a.projectURL(link.Repo) + "/issues/" + link.IssueID + "/notes"
	payload := map[string]string{"body": text}
	return a.rest.doJSON(ctx, http.MethodPost, endpoint, a.headers(), payload, nil)
}

func (a *GitLabAdapter) projectURL(repoPath string) string {
	return a.baseURL + "/api/v4/projects/" + url.PathEscape(repoPath)
}

func (a *GitLabAdapter) headers() map[string]string {
	return map[string]string{"PRIVATE-TOKEN": a.token}
}
