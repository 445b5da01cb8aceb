package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
)

type srhtCall struct {
	query     string
	variables map[string]any
}

func newSourceHutTestAdapter(t *testing.T, respond func(call srhtCall) string) (*SourceHutAdapter, *[]srhtCall) {
	t.Helper()
	calls := &[]srhtCall{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		require.Equal(t, "Bearer oauth-token", r.Header.Get("Authorization"))
		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		call := srhtCall{query: req.Query, variables: req.Variables}
		*calls = append(*calls, call)
		_, _ = w.Write([]byte(respond(call)))
	}))
	t.Cleanup(srv.Close)
	return NewSourceHutAdapter("oauth-token", time.Second, zap.NewNop(), srv.URL), calls
}

func TestSourceHutSyncResolvesTrackerAndCreates(t *testing.T) {
	adapter, calls := newSourceHutTestAdapter(t, func(call srhtCall) string {
		if strings.Contains(call.query, "tracker(name:") {
			return `{"data": {"user": {"tracker": {"id": 99}}}}`
		}
		return `{"data": {"submitTicket": {"id": 7}}}`
	})

	link, err := adapter.Sync(context.Background(), SyncInput{
		Dataspace:  "acme",
		RequestID:  "req-1",
		TrackerURL: "https://todo.sr.ht/~acme/widgets",
		Title:      "t",
		Body:       "b",
	})
	require.NoError(t, err)
	require.Len(t, *calls, 2)
	assert.Equal(t, "acme", (*calls)[0].variables["username"])
	assert.Equal(t, "widgets", (*calls)[0].variables["name"])
	assert.Equal(t, float64(99), (*calls)[1].variables["trackerId"])

	assert.Equal(t, "sourcehut", link.Platform)
	assert.Equal(t, "~acme/widgets", link.Repo)
	assert.Equal(t, "7", link.IssueID)
	require.NotNil(t, link.TrackerRef)
	assert.Equal(t, int64(99), *link.TrackerRef)
}

func TestSourceHutSyncTrackerLookupFailure(t *testing.T) {
	adapter, calls := newSourceHutTestAdapter(t, func(call srhtCall) string {
		return `{"data": {"user": {"tracker": null}}}`
	})

	_, err := adapter.Sync(context.Background(), SyncInput{
		TrackerURL: "https://todo.sr.ht/~acme/missing",
		Title:      "t",
		Body:       "b",
	})
	var lookup *TrackerLookupError
	require.ErrorAs(t, err, &lookup)
	assert.Equal(t, "~acme/missing", lookup.Tracker)
	assert.Len(t, *calls, 1)
}

func TestSourceHutSyncUsesCachedTrackerRef(t *testing.T) {
	adapter, calls := newSourceHutTestAdapter(t, func(call srhtCall) string {
		return `{"data": {"updateTicket": {"id": 7}}}`
	})

	ref := int64(99)
	_, err := adapter.Sync(context.Background(), SyncInput{
		Link: &domain.ExternalIssueLink{
			Platform:   "sourcehut",
			Repo:       "~acme/widgets",
			IssueID:    "7",
			TrackerRef: &ref,
		},
		Title: "t",
		Body:  "b",
	})
	require.NoError(t, err)
	// no tracker lookup; straight to the update mutation
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0].query, "updateTicket")
}

func TestSourceHutSyncCloseResolvesTicket(t *testing.T) {
	adapter, calls := newSourceHutTestAdapter(t, func(call srhtCall) string {
		return `{"data": {}}`
	})

	ref := int64(99)
	_, err := adapter.Sync(context.Background(), SyncInput{
		Link: &domain.ExternalIssueLink{
			Platform:   "sourcehut",
			Repo:       "~acme/widgets",
			IssueID:    "7",
			TrackerRef: &ref,
		},
		Title:  "t",
		Body:   "b",
		Closed: true,
	})
	require.NoError(t, err)
	require.Len(t, *calls, 2)
	assert.Contains(t, (*calls)[1].query, "updateTicketStatus")
	assert.Contains(t, (*calls)[1].query, "RESOLVED")
}

func TestSourceHutPostCommentResolvesRefOnce(t *testing.T) {
	adapter, calls := newSourceHutTestAdapter(t, func(call srhtCall) string {
		if strings.Contains(call.query, "tracker(name:") {
			return `{"data": {"user": {"tracker": {"id": 99}}}}`
		}
		return `{"data": {"submitComment": {"id": 1}}}`
	})

	link := &domain.ExternalIssueLink{
		Platform: "sourcehut",
		Repo:     "~acme/widgets",
		IssueID:  "7",
	}
	require.NoError(t, adapter.PostComment(context.Background(), link, "note"))
	require.Len(t, *calls, 2)

	// ref is now cached on the link
	require.NotNil(t, link.TrackerRef)
	require.NoError(t, adapter.PostComment(context.Background(), link, "another"))
	assert.Len(t, *calls, 3)
}

func TestSourceHutGraphQLErrors(t *testing.T) {
	adapter, _ := newSourceHutTestAdapter(t, func(call srhtCall) string {
		return `{"errors": [{"message": "access denied"}]}`
	})

	ref := int64(99)
	err := adapter.PostComment(context.Background(), &domain.ExternalIssueLink{
		Platform:   "sourcehut",
		Repo:       "~acme/widgets",
		IssueID:    "7",
		TrackerRef: &ref,
	}, "note")
	var remote *RemoteHTTPError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Body, "access denied")
}
