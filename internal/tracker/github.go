package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
)

// GitHubAdapter mirrors requests to GitHub issues through the typed API
// client.
type GitHubAdapter struct {
	client *gh.Client
	logger *zap.Logger
}

// GitHubOption configures a GitHubAdapter.
type GitHubOption func(*githubConfig)

type githubConfig struct {
	baseURL string
}

// WithGitHubBaseURL overrides the API base URL (useful for testing).
func WithGitHubBaseURL(url string) GitHubOption {
	return func(c *githubConfig) { c.baseURL = url }
}

// NewGitHubAdapter builds an adapter authenticating with the tenant's
// personal access token.
func NewGitHubAdapter(token string, timeout time.Duration, logger *zap.Logger, opts ...GitHubOption) (*GitHubAdapter, error) {
	cfg := &githubConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := gh.NewClient(&http.Client{Timeout: timeout}).WithAuthToken(token)
	if cfg.baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.baseURL, cfg.baseURL)
		if err != nil {
			return nil, err
		}
	}
	return &GitHubAdapter{client: client, logger: logger}, nil
}

// Platform identifies the adapter.
func (a *GitHubAdapter) Platform() Platform {
	return PlatformGitHub
}

// Sync creates or updates the remote GitHub issue for the request.
func (a *GitHubAdapter) Sync(ctx context.Context, in SyncInput) (*domain.ExternalIssueLink, error) {
	if in.Link == nil {
		repoPath, err := ExtractRepoPath(PlatformGitHub, in.TrackerURL)
		if err != nil {
			return nil, err
		}
		owner, name := splitRepoPath(repoPath)
		issue, _, err := a.client.Issues.Create(ctx, owner, name, &gh.IssueRequest{
			Title: gh.Ptr(in.Title),
			Body:  gh.Ptr(in.Body),
		})
		if err != nil {
			return nil, a.wrapErr(http.MethodPost, fmt.Sprintf("repos/%s/issues", repoPath), err)
		}
		return &domain.ExternalIssueLink{
			Dataspace: in.Dataspace,
			RequestID: in.RequestID,
			Platform:  string(PlatformGitHub),
			Repo:      repoPath,
			IssueID:   strconv.Itoa(issue.GetNumber()),
		}, nil
	}

	owner, name := splitRepoPath(in.Link.Repo)
	number, err := strconv.Atoi(in.Link.IssueID)
	if err != nil {
		return nil, fmt.Errorf("invalid github issue id %q: %w", in.Link.IssueID, err)
	}
	state := "open"
	if in.Closed {
		state = "closed"
	}
	_, _, err = a.client.Issues.Edit(ctx, owner, name, number, &gh.IssueRequest{
		Title: gh.Ptr(in.Title),
		Body:  gh.Ptr(in.Body),
		State: gh.Ptr(state),
	})
	if err != nil {
		return nil, a.wrapErr(http.MethodPatch, fmt.Sprintf("repos/%s/issues/%d", in.Link.Repo, number), err)
	}
	return in.Link, nil
}

// PostComment appends a comment to the linked GitHub issue.
func (a *GitHubAdapter) PostComment(ctx context.Context, link *domain.ExternalIssueLink, text string) error {
	owner, name := splitRepoPath(link.Repo)
	number, err := strconv.Atoi(link.IssueID)
	if err != nil {
		return fmt.Errorf("invalid github issue id %q: %w", link.IssueID, err)
	}
	_, _, err = a.client.Issues.CreateComment(ctx, owner, name, number, &gh.IssueComment{
		Body: gh.Ptr(text),
	})
	if err != nil {
		return a.wrapErr(http.MethodPost, fmt.Sprintf("repos/%s/issues/%d/comments", link.Repo, number), err)
	}
	return nil
}

func (a *GitHubAdapter) wrapErr(method, endpoint string, err error) error {
	if isTimeout(err) {
		a.logger.Error("tracker request timed out",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Error(err))
		return &RemoteTimeoutError{Method: method, URL: endpoint, Err: err}
	}
	var ger *gh.ErrorResponse
	if errors.As(err, &ger) {
		status := 0
		if ger.Response != nil {
			status = ger.Response.StatusCode
		}
		a.logger.Error("tracker request failed",
			zap.String("method", method),
			zap.String("url", endpoint),
			zap.Int("status", status),
			zap.String("body", ger.Message))
		return &RemoteHTTPError{Method: method, URL: endpoint, StatusCode: status, Body: ger.Message}
	}
	return err
}

func splitRepoPath(repoPath string) (owner, name string) {
	parts := strings.SplitN(repoPath, "/", 2)
	if len(parts) != 2 {
		return repoPath, ""
	}
	return parts[0], parts[1]
}
