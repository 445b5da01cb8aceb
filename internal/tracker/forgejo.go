package tracker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
)

// ForgejoAdapter mirrors requests to issues on a self-hosted Forgejo (or
// Gitea) instance. The instance base URL comes from the tracker link itself.
type ForgejoAdapter struct {
	token string
	rest  *restClient
}

// NewForgejoAdapter builds an adapter using the tenant token.
func NewForgejoAdapter(token string, timeout time.Duration, logger *zap.Logger) *ForgejoAdapter {
	return &ForgejoAdapter{
		token: token,
		rest:  newRESTClient(timeout, logger),
	}
}

// Platform identifies the adapter.
func (a *ForgejoAdapter) Platform() Platform {
	return PlatformForgejo
}

type forgejoIssuePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	State string `json:"state,omitempty"`
}

type forgejoIssueResponse struct {
	Number int64 `json:"number"`
}

// Sync creates or updates the remote Forgejo issue for the request.
func (a *ForgejoAdapter) Sync(ctx context.Context, in SyncInput) (*domain.ExternalIssueLink, error) {
	if in.Link == nil {
		base, repoPath, err := ExtractForgejoInfo(in.TrackerURL)
		if err != nil {
			return nil, err
		}
		endpoint := fmt.Sprintf("%s/api/v1/repos/%s/issues", base, repoPath)
		payload := forgejoIssuePayload{Title: in.Title, Body: in.Body}
		var created forgejoIssueResponse
		if err := a.rest.doJSON(ctx, http.MethodPost, endpoint, a.headers(), payload, &created); err != nil {
			return nil, err
		}
		return &domain.ExternalIssueLink{
			Dataspace: in.Dataspace,
			RequestID: in.RequestID,
			Platform:  string(PlatformForgejo),
			Repo:      repoPath,
			IssueID:   fmt.Sprintf("%d", created.Number),
			BaseURL:   base,
		}, nil
	}

	state := "open"
	if in.Closed {
		state = "closed"
	}
	endpoint := fmt.Sprintf("%s/api/v1/repos/%s/issues/%s", in.Link.BaseURL, in.Link.Repo, in.Link.IssueID)
	payload := forgejoIssuePayload{Title: in.Title, Body: in.Body, State: state}
	if err := a.rest.doJSON(ctx, http.MethodPatch, endpoint, a.headers(), payload, nil); err != nil {
		return nil, err
	}
	return in.Link, nil
}

// PostComment appends a comment to the linked Forgejo issue.
func (a *ForgejoAdapter) PostComment(ctx context.Context, link *domain.ExternalIssueLink, text string) error {
	endpoint := fmt.Sprintf("%s/api/v1/repos/%s/issues/%s/comments", link.BaseURL, link.Repo, link.IssueID)
	payload := map[string]string{"body": text}
	return a.rest.doJSON(ctx, http.MethodPost, endpoint, a.headers(), payload, nil)
}

func (a *ForgejoAdapter) headers() map[string]string {
	return map[string]string{"Authorization": "token " + a.token}
}
