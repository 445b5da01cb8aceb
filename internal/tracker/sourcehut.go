package tracker

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
)

const sourcehutDefaultBaseURL = "https://todo.sr.ht"

// SourceHutAdapter mirrors requests to todo.sr.ht tickets over GraphQL.
// Every ticket operation needs the numeric tracker id, which is resolved
// from the tracker name once and cached on the link.
type SourceHutAdapter struct {
	baseURL string
	token   string
	rest    *restClient
}

// NewSourceHutAdapter builds an adapter using the tenant's OAuth token.
// baseURL overrides the GraphQL host when non-empty (useful for testing).
func NewSourceHutAdapter(token string, timeout time.Duration, logger *zap.Logger, baseURL string) *SourceHutAdapter {
	if baseURL == "" {
		baseURL = sourcehutDefaultBaseURL
	}
	return &SourceHutAdapter{
		baseURL: baseURL,
		token:   token,
		rest:    newRESTClient(timeout, logger),
	}
}

// Platform identifies the adapter.
func (a *SourceHutAdapter) Platform() Platform {
	return PlatformSourceHut
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// Sync creates or updates the remote SourceHut ticket for the request.
func (a *SourceHutAdapter) Sync(ctx context.Context, in SyncInput) (*domain.ExternalIssueLink, error) {
	if in.Link == nil {
		owner, name, err := ExtractSourceHutTracker(in.TrackerURL)
		if err != nil {
			return nil, err
		}
		trackerID, err := a.resolveTrackerID(ctx, owner, name)
		if err != nil {
			return nil, err
		}
		ticketID, err := a.submitTicket(ctx, trackerID, in.Title, in.Body)
		if err != nil {
			return nil, err
		}
		return &domain.ExternalIssueLink{
			Dataspace:  in.Dataspace,
			RequestID:  in.RequestID,
			Platform:   string(PlatformSourceHut),
			Repo:       owner + "/" + name,
			IssueID:    strconv.Itoa(ticketID),
			BaseURL:    a.baseURL,
			TrackerRef: &trackerID,
		}, nil
	}

	trackerID, err := a.trackerRef(ctx, in.Link)
	if err != nil {
		return nil, err
	}
	ticketID, err := strconv.Atoi(in.Link.IssueID)
	if err != nil {
		return nil, fmt.Errorf("invalid sourcehut ticket id %q: %w", in.Link.IssueID, err)
	}
	if err := a.updateTicket(ctx, trackerID, ticketID, in.Title, in.Body); err != nil {
		return nil, err
	}
	if in.Closed {
		if err := a.resolveTicket(ctx, trackerID, ticketID); err != nil {
			return nil, err
		}
	}
	return in.Link, nil
}

// PostComment appends a comment to the linked SourceHut ticket.
func (a *SourceHutAdapter) PostComment(ctx context.Context, link *domain.ExternalIssueLink, text string) error {
	trackerID, err := a.trackerRef(ctx, link)
	if err != nil {
		return err
	}
	ticketID, err := strconv.Atoi(link.IssueID)
	if err != nil {
		return fmt.Errorf("invalid sourcehut ticket id %q: %w", link.IssueID, err)
	}
	const mutation = `mutation ($trackerId: Int!, $ticketId: Int!, $text: String!) {
		submitComment(trackerId: $trackerId, ticketId: $ticketId, input: {text: $text}) { id }
	}`
	var out struct {
		Errors []graphqlError `json:"errors"`
	}
	if err := a.doQuery(ctx, mutation, map[string]any{
		"trackerId": trackerID,
		"ticketId":  ticketID,
		"text":      text,
	}, &out); err != nil {
		return err
	}
	if len(out.Errors) > 0 {
		return a.graphqlFailure(out.Errors)
	}
	return nil
}

// trackerRef returns the numeric tracker id for the link, resolving and
// caching it via the mutable TrackerRef field when absent. Callers persist
// the link after a successful sync so the resolution happens at most once.
func (a *SourceHutAdapter) trackerRef(ctx context.Context, link *domain.ExternalIssueLink) (int64, error) {
	if link.TrackerRef != nil {
		return *link.TrackerRef, nil
	}
	parts := strings.SplitN(link.Repo, "/", 2)
	if len(parts) != 2 {
		return 0, &InvalidTrackerURLError{Platform: PlatformSourceHut, URL: link.Repo}
	}
	trackerID, err := a.resolveTrackerID(ctx, parts[0], parts[1])
	if err != nil {
		return 0, err
	}
	link.TrackerRef = &trackerID
	return trackerID, nil
}

func (a *SourceHutAdapter) resolveTrackerID(ctx context.Context, owner, name string) (int64, error) {
	const query = `query ($username: String!, $name: String!) {
		user(username: $username) { tracker(name: $name) { id } }
	}`
	var out struct {
		Data struct {
			User *struct {
				Tracker *struct {
					ID int64 `json:"id"`
				} `json:"tracker"`
			} `json:"user"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}
	username := strings.TrimPrefix(owner, "~")
	if err := a.doQuery(ctx, query, map[string]any{"username": username, "name": name}, &out); err != nil {
		return 0, err
	}
	if len(out.Errors) > 0 {
		return 0, a.graphqlFailure(out.Errors)
	}
	if out.Data.User == nil || out.Data.User.Tracker == nil {
		return 0, &TrackerLookupError{Tracker: owner + "/" + name}
	}
	return out.Data.User.Tracker.ID, nil
}

func (a *SourceHutAdapter) submitTicket(ctx context.Context, trackerID int64, subject, body string) (int, error) {
	const mutation = `mutation ($trackerId: Int!, $subject: String!, $body: String!) {
		submitTicket(trackerId: $trackerId, input: {subject: $subject, body: $body}) { id }
	}`
	var out struct {
		Data struct {
			SubmitTicket *struct {
				ID int `json:"id"`
			} `json:"submitTicket"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}
	if err := a.doQuery(ctx, mutation, map[string]any{
		"trackerId": trackerID,
		"subject":   subject,
		"body":      body,
	}, &out); err != nil {
		return 0, err
	}
	if len(out.Errors) > 0 {
		return 0, a.graphqlFailure(out.Errors)
	}
	if out.Data.SubmitTicket == nil {
		return 0, a.graphqlFailure(nil)
	}
	return out.Data.SubmitTicket.ID, nil
}

func (a *SourceHutAdapter) updateTicket(ctx context.Context, trackerID int64, ticketID int, subject, body string) error {
	const mutation = `mutation ($trackerId: Int!, $ticketId: Int!, $subject: String!, $body: String!) {
		updateTicket(trackerId: $trackerId, ticketId: $ticketId, input: {subject: $subject, body: $body}) { id }
	}`
	var out struct {
		Errors []graphqlError `json:"errors"`
	}
	if err := a.doQuery(ctx, mutation, map[string]any{
		"trackerId": trackerID,
		"ticketId":  ticketID,
		"subject":   subject,
		"body":      body,
	}, &out); err != nil {
		return err
	}
	if len(out.Errors) > 0 {
		return a.graphqlFailure(out.Errors)
	}
	return nil
}

func (a *SourceHutAdapter) resolveTicket(ctx context.Context, trackerID int64, ticketID int) error {
	const mutation = `mutation ($trackerId: Int!, $ticketId: Int!) {
		updateTicketStatus(trackerId: $trackerId, ticketId: $ticketId, input: {status: RESOLVED, resolution: CLOSED}) { id }
	}`
	var out struct {
		Errors []graphqlError `json:"errors"`
	}
	if err := a.doQuery(ctx, mutation, map[string]any{
		"trackerId": trackerID,
		"ticketId":  ticketID,
	}, &out); err != nil {
		return err
	}
	if len(out.Errors) > 0 {
		return a.graphqlFailure(out.Errors)
	}
	return nil
}

func (a *SourceHutAdapter) doQuery(ctx context.Context, query string, variables map[string]any, out any) error {
	payload := graphqlRequest{Query: query, Variables: variables}
	headers := map[string]string{"Authorization": "Bearer " + a.token}
	return a.rest.doJSON(ctx, http.MethodPost, a.baseURL+"/query", headers, payload, out)
}

func (a *SourceHutAdapter) graphqlFailure(errs []graphqlError) error {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	body := strings.Join(messages, "; ")
	if body == "" {
		body = "empty graphql response"
	}
	return &RemoteHTTPError{
		Method:     http.MethodPost,
		URL:        a.baseURL + "/query",
		StatusCode: http.StatusOK,
		Body:       body,
	}
}
