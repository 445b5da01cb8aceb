package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/complykit/request-service/internal/domain"
	"github.com/complykit/request-service/internal/events"
	"github.com/complykit/request-service/internal/tracker"
)

const testTrackerURL = "https://github.com/acme/widgets"

type serviceFixture struct {
	service    *RequestService
	requests   *fakeRequestRepo
	comments   *fakeCommentRepo
	audit      *fakeEventRepo
	templates  *fakeTemplateRepo
	links      *fakeLinkRepo
	dispatcher *recordingDispatcher
	adapter    *fakeAdapter
	adapters   *fakeAdapterSource
	logs       *observer.ObservedLogs
}

func newServiceFixture(t *testing.T, trackerURL string) *serviceFixture {
	t.Helper()
	templateRepo := newFakeTemplateRepo(domain.RequestTemplate{
		ID:             "tpl-1",
		Dataspace:      "acme",
		Name:           "License Review",
		IssueTrackerID: trackerURL,
		Questions: []domain.Question{
			{Label: "Component name", InputType: domain.InputTypeText, Required: true, Position: 1},
			{Label: "Is redistributed", InputType: domain.InputTypeBoolean, Position: 2},
		},
	})
	userRepo := newFakeUserRepo(
		domain.User{ID: "user-1", Dataspace: "acme", Name: "Dana Reyes", Email: "dana@example.com"},
		domain.User{ID: "user-2", Dataspace: "acme", Name: "Sam Okafor", Email: "sam@example.com"},
	)

	fix := &serviceFixture{
		requests:   newFakeRequestRepo(),
		comments:   newFakeCommentRepo(),
		audit:      newFakeEventRepo(),
		templates:  templateRepo,
		links:      newFakeLinkRepo(),
		dispatcher: newRecordingDispatcher(),
		adapter:    &fakeAdapter{platform: tracker.PlatformGitHub, nextIssueID: "17"},
	}
	fix.adapters = &fakeAdapterSource{adapter: fix.adapter}

	core, logs := observer.New(zap.WarnLevel)
	fix.logs = logs
	logger := zap.New(core)

	sync := NewTrackerSyncService(fix.adapters, fix.links, userRepo, logger, nil,
		"[Request]", "https://compliance.example.com")
	fix.service = NewRequestService(RequestDependencies{
		RequestRepo:  fix.requests,
		CommentRepo:  fix.comments,
		EventRepo:    fix.audit,
		TemplateRepo: templateRepo,
		LinkRepo:     fix.links,
		Dispatcher:   fix.dispatcher,
		Sync:         sync,
		Logger:       logger,
	})
	return fix
}

func requester() *domain.User {
	return &domain.User{ID: "user-1", Dataspace: "acme", Name: "Dana Reyes", Role: domain.UserRoleMember}
}

func otherUser() *domain.User {
	return &domain.User{ID: "user-2", Dataspace: "acme", Name: "Sam Okafor", Role: domain.UserRoleMember}
}

func adminUser() *domain.User {
	return &domain.User{ID: "admin-1", Dataspace: "acme", Role: domain.UserRoleAdmin}
}

func validCreateInput() RequestCreateInput {
	return RequestCreateInput{
		TemplateID:    "tpl-1",
		Title:         "Review license for zlib",
		Answers:       domain.Answers{"Component name": "zlib"},
		ContentObject: &domain.ContentObject{Type: "component", ID: "comp-42"},
	}
}

func TestCreateRequestOpensAndSyncs(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)

	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOpen, request.Status)
	assert.Nil(t, request.AssigneeID)

	created := fix.dispatcher.eventsOfType(events.EventRequestCreated)
	require.Len(t, created, 1)
	assert.Equal(t, request.ID, created[0].RequestID)

	require.Len(t, fix.adapter.syncCalls, 1)
	assert.Nil(t, fix.adapter.syncCalls[0].Link)
	assert.Equal(t, "[Request] Review license for zlib", fix.adapter.syncCalls[0].Title)

	link, err := fix.links.GetByRequest(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "17", link.IssueID)
	assert.Equal(t, "github", link.Platform)
}

func TestCreateRequestDraftIsQuietAndSelfAssigned(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)

	input := validCreateInput()
	input.SaveAsDraft = true
	request, err := fix.service.CreateRequest(context.Background(), requester(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusDraft, request.Status)
	require.NotNil(t, request.AssigneeID)
	assert.Equal(t, "user-1", *request.AssigneeID)

	assert.Empty(t, fix.dispatcher.published)
	assert.Empty(t, fix.adapter.syncCalls)
	assert.Equal(t, 0, fix.adapters.calls)
}

func TestCreateRequestValidatesAnswers(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)

	input := validCreateInput()
	input.Answers = domain.Answers{"Unknown question": "value"}
	_, err := fix.service.CreateRequest(context.Background(), requester(), input)
	require.Error(t, err)

	input.Answers = domain.Answers{}
	_, err = fix.service.CreateRequest(context.Background(), requester(), input)
	require.Error(t, err)
	assert.Empty(t, fix.adapter.syncCalls)
}

func TestCreateRequestSyncFailureDoesNotFailSave(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	fix.adapter.syncErr = errors.New("remote down")

	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)

	// the request persisted and the event fired despite the failed sync
	stored, err := fix.requests.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOpen, stored.Status)
	assert.Len(t, fix.dispatcher.eventsOfType(events.EventRequestCreated), 1)

	_, err = fix.links.GetByRequest(context.Background(), request.ID)
	assert.Error(t, err)
}

func TestCreateRequestWithoutContentObjectSkipsSync(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)

	input := validCreateInput()
	input.ContentObject = nil
	request, err := fix.service.CreateRequest(context.Background(), requester(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOpen, request.Status)

	// notifications fire, but the request never reaches the tracker
	assert.Len(t, fix.dispatcher.eventsOfType(events.EventRequestCreated), 1)
	assert.Equal(t, 0, fix.adapters.calls)
	assert.Empty(t, fix.adapter.syncCalls)
}

func TestUpdateRequestWithoutContentObjectSkipsSync(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	input := validCreateInput()
	input.ContentObject = nil
	request, err := fix.service.CreateRequest(context.Background(), requester(), input)
	require.NoError(t, err)

	title := "Review license for zlib 1.3"
	_, err = fix.service.UpdateRequest(context.Background(), requester(), request.ID, RequestUpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, 0, fix.adapters.calls)
}

func TestCreateRequestUnclassifiedTrackerSkipsSync(t *testing.T) {
	fix := newServiceFixture(t, "not-a-tracker-url")

	_, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, 0, fix.adapters.calls)
}

func TestUpdateRequestEditsAndResyncs(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)

	title := "Review license for zlib 1.3"
	updated, err := fix.service.UpdateRequest(context.Background(), requester(), request.ID, RequestUpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	// audit trail records the edit
	trail, err := fix.audit.ListByRequest(context.Background(), request.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.EventKindEdit, trail[0].Kind)

	assert.Len(t, fix.dispatcher.eventsOfType(events.EventRequestUpdated), 1)

	// second sync runs against the existing link
	require.Len(t, fix.adapter.syncCalls, 2)
	require.NotNil(t, fix.adapter.syncCalls[1].Link)
	assert.Equal(t, "17", fix.adapter.syncCalls[1].Link.IssueID)
}

func TestUpdateRequestPromotesDraft(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	input := validCreateInput()
	input.SaveAsDraft = true
	request, err := fix.service.CreateRequest(context.Background(), requester(), input)
	require.NoError(t, err)

	promoted, err := fix.service.UpdateRequest(context.Background(), requester(), request.ID, RequestUpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusOpen, promoted.Status)
	assert.Nil(t, promoted.AssigneeID)

	// promotion notifies as a newly submitted request
	created := fix.dispatcher.eventsOfType(events.EventRequestCreated)
	require.Len(t, created, 1)
	payload, ok := created[0].Payload.(events.RequestCreatedPayload)
	require.True(t, ok)
	assert.True(t, payload.WasDraft)
	assert.Equal(t, "tpl-1", payload.TemplateID)

	assert.Len(t, fix.adapter.syncCalls, 1)
}

func TestUpdateRequestDraftStaysDraftWithFlag(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	input := validCreateInput()
	input.SaveAsDraft = true
	request, err := fix.service.CreateRequest(context.Background(), requester(), input)
	require.NoError(t, err)

	notes := "still working on this"
	updated, err := fix.service.UpdateRequest(context.Background(), requester(), request.ID, RequestUpdateInput{
		Notes:       &notes,
		SaveAsDraft: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusDraft, updated.Status)
	assert.Empty(t, fix.dispatcher.published)
	assert.Empty(t, fix.adapter.syncCalls)
}

func TestUpdateRequestDraftPrivateToCreator(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	input := validCreateInput()
	input.SaveAsDraft = true
	request, err := fix.service.CreateRequest(context.Background(), requester(), input)
	require.NoError(t, err)

	_, err = fix.service.UpdateRequest(context.Background(), otherUser(), request.ID, RequestUpdateInput{})
	require.Error(t, err)

	_, err = fix.service.UpdateRequest(context.Background(), adminUser(), request.ID, RequestUpdateInput{})
	require.Error(t, err)
}

func TestUpdateRequestClosedIsTerminal(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)
	_, err = fix.service.CloseRequest(context.Background(), requester(), request.ID, "done")
	require.NoError(t, err)

	title := "new title"
	_, err = fix.service.UpdateRequest(context.Background(), requester(), request.ID, RequestUpdateInput{Title: &title})
	require.Error(t, err)

	_, err = fix.service.CloseRequest(context.Background(), requester(), request.ID, "again")
	require.Error(t, err)
}

func TestCloseRequestRequesterOnly(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)

	_, err = fix.service.CloseRequest(context.Background(), otherUser(), request.ID, "nope")
	require.Error(t, err)

	_, err = fix.service.CloseRequest(context.Background(), adminUser(), request.ID, "nope")
	require.Error(t, err)
}

func TestCloseRequestMirrorsStateAndReason(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)

	closed, err := fix.service.CloseRequest(context.Background(), requester(), request.ID, "resolved upstream")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	trail, err := fix.audit.ListByRequest(context.Background(), request.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.EventKindClosed, trail[0].Kind)
	assert.Equal(t, "resolved upstream", trail[0].Text)

	assert.Len(t, fix.dispatcher.eventsOfType(events.EventRequestClosed), 1)

	// create + close syncs; the close sync carries the closed flag
	require.Len(t, fix.adapter.syncCalls, 2)
	assert.True(t, fix.adapter.syncCalls[1].Closed)

	// reason is mirrored as a remote comment
	require.Len(t, fix.adapter.commentCalls, 1)
	assert.Equal(t, "resolved upstream", fix.adapter.commentCalls[0])
}

func TestCloseRequestMissingTemplateStillCloses(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)

	delete(fix.templates.store, "tpl-1")

	closed, err := fix.service.CloseRequest(context.Background(), requester(), request.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusClosed, closed.Status)

	// the skipped sync is logged, not silent
	entries := fix.logs.FilterMessage("failed to load template for close sync").All()
	require.Len(t, entries, 1)
	assert.Equal(t, request.ID, entries[0].ContextMap()["request_id"])

	// only the create sync ran
	assert.Len(t, fix.adapter.syncCalls, 1)
	// the close reason is still mirrored through the existing link
	assert.Equal(t, []string{"done"}, fix.adapter.commentCalls)
}

func TestAddCommentWithoutLinkMakesNoRemoteCalls(t *testing.T) {
	fix := newServiceFixture(t, "not-a-tracker-url")
	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)

	comment, err := fix.service.AddComment(context.Background(), requester(), request.ID, "any update?")
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)

	assert.Len(t, fix.dispatcher.eventsOfType(events.EventRequestCommented), 1)
	assert.Equal(t, 0, fix.adapters.calls)
	assert.Empty(t, fix.adapter.commentCalls)
}

func TestAddCommentMirrorsToLinkedIssue(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)

	_, err = fix.service.AddComment(context.Background(), requester(), request.ID, "any update?")
	require.NoError(t, err)
	require.Len(t, fix.adapter.commentCalls, 1)
	assert.Equal(t, "any update?", fix.adapter.commentCalls[0])
}

func TestAddCommentRemoteFailureKeepsComment(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	request, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)
	fix.adapter.commentErr = errors.New("remote down")

	comment, err := fix.service.AddComment(context.Background(), requester(), request.ID, "any update?")
	require.NoError(t, err)
	assert.NotEmpty(t, comment.ID)
}

func TestGetRequestLoadsLinkCommentsAndTrail(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	created, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)
	_, err = fix.service.AddComment(context.Background(), requester(), created.ID, "first")
	require.NoError(t, err)

	request, comments, _, err := fix.service.GetRequest(context.Background(), requester(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, request.ExternalLink)
	assert.Equal(t, "17", request.ExternalLink.IssueID)
	assert.Len(t, comments, 1)
}

func TestGetRequestDeniesOutsiders(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)
	created, err := fix.service.CreateRequest(context.Background(), requester(), validCreateInput())
	require.NoError(t, err)

	_, _, _, err = fix.service.GetRequest(context.Background(), otherUser(), created.ID)
	require.Error(t, err)

	// admins in the dataspace can view
	_, _, _, err = fix.service.GetRequest(context.Background(), adminUser(), created.ID)
	require.NoError(t, err)

	outsider := &domain.User{ID: "user-9", Dataspace: "other", Role: domain.UserRoleAdmin}
	_, _, _, err = fix.service.GetRequest(context.Background(), outsider, created.ID)
	require.Error(t, err)
}

func TestListRequestsScopesNonAdminsToOwn(t *testing.T) {
	fix := newServiceFixture(t, testTrackerURL)

	_, err := fix.service.ListRequests(context.Background(), requester(), RequestListFilter{})
	require.NoError(t, err)
	require.NotNil(t, fix.requests.lastFilter.RequesterID)
	assert.Equal(t, "user-1", *fix.requests.lastFilter.RequesterID)

	_, err = fix.service.ListRequests(context.Background(), adminUser(), RequestListFilter{})
	require.NoError(t, err)
	assert.Nil(t, fix.requests.lastFilter.RequesterID)
	require.NotNil(t, fix.requests.lastFilter.Dataspace)
	assert.Equal(t, "acme", *fix.requests.lastFilter.Dataspace)
}
