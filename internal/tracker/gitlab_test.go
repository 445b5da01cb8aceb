package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
)

func newGitLabTestAdapter(t *testing.T, handler http.Handler) *GitLabAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGitLabAdapter("test-token", time.Second, zap.NewNop(), srv.URL)
}

func TestGitLabSyncCreatesIssue(t *testing.T) {
	var gotToken string
	adapter := newGitLabTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		// subgroup paths are percent-encoded as a single segment
		require.Equal(t, "/api/v4/projects/acme%2Ftools%2Fwidgets/issues", r.URL.EscapedPath())
		gotToken = r.Header.Get("PRIVATE-TOKEN")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"iid": 42}`))
	}))

	link, err := adapter.Sync(context.Background(), SyncInput{
		Dataspace:  "acme",
		RequestID:  "req-1",
		TrackerURL: "https://gitlab.com/acme/tools/widgets",
		Title:      "t",
		Body:       "b",
	})
	require.NoError(t, err)
	assert.Equal(t, "gitlab", link.Platform)
	assert.Equal(t, "acme/tools/widgets", link.Repo)
	assert.Equal(t, "42", link.IssueID)
	assert.Equal(t, "test-token", gotToken)
}

func TestGitLabSyncClosesWithStateEvent(t *testing.T) {
	var gotBody map[string]any
	adapter := newGitLabTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/v4/projects/acme%2Fwidgets/issues/42", r.URL.EscapedPath())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"iid": 42}`))
	}))

	_, err := adapter.Sync(context.Background(), SyncInput{
		Link: &domain.ExternalIssueLink{
			Platform: "gitlab",
			Repo:     "acme/widgets",
			IssueID:  "42",
		},
		Title:  "t",
		Body:   "b",
		Closed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "close", gotBody["state_event"])
}

func TestGitLabPostComment(t *testing.T) {
	var gotBody map[string]any
	adapter := newGitLabTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v4/projects/acme%2Fwidgets/issues/42/notes", r.URL.EscapedPath())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))

	err := adapter.PostComment(context.Background(), &domain.ExternalIssueLink{
		Platform: "gitlab",
		Repo:     "acme/widgets",
		IssueID:  "42",
	}, "a note")
	require.NoError(t, err)
	assert.Equal(t, "a note", gotBody["body"])
}
