package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/complykit/request-service/internal/domain"
	"github.com/complykit/request-service/internal/events"
	"github.com/complykit/request-service/internal/queue"
	"github.com/complykit/request-service/internal/repository"
	"github.com/complykit/request-service/internal/tracker"
)

type fakeRequestRepo struct {
	store      map[string]domain.Request
	seq        int
	lastFilter repository.RequestFilter
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{store: map[string]domain.Request{}}
}

func (r *fakeRequestRepo) Create(_ context.Context, request *domain.Request) error {
	r.seq++
	request.ID = fmt.Sprintf("req-%d", r.seq)
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	r.store[request.ID] = *request
	return nil
}

func (r *fakeRequestRepo) Update(_ context.Context, request *domain.Request) error {
	if _, ok := r.store[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	request.UpdatedAt = time.Now()
	r.store[request.ID] = *request
	return nil
}

func (r *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.Request, error) {
	stored, ok := r.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := stored
	return &out, nil
}

func (r *fakeRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	r.lastFilter = filter
	var out []domain.Request
	for _, req := range r.store {
		out = append(out, req)
	}
	return out, nil
}

type fakeCommentRepo struct {
	store map[string][]domain.RequestComment
	seq   int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{store: map[string][]domain.RequestComment{}}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.RequestComment) error {
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now()
	r.store[comment.RequestID] = append(r.store[comment.RequestID], *comment)
	return nil
}

func (r *fakeCommentRepo) ListByRequest(_ context.Context, requestID string) ([]domain.RequestComment, error) {
	return r.store[requestID], nil
}

type fakeEventRepo struct {
	store map[string][]domain.RequestEvent
	seq   int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{store: map[string][]domain.RequestEvent{}}
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.RequestEvent) error {
	r.seq++
	event.ID = fmt.Sprintf("event-%d", r.seq)
	event.CreatedAt = time.Now()
	r.store[event.RequestID] = append(r.store[event.RequestID], *event)
	return nil
}

func (r *fakeEventRepo) ListByRequest(_ context.Context, requestID string, _, _ int) ([]domain.RequestEvent, error) {
	return r.store[requestID], nil
}

type fakeTemplateRepo struct {
	store map[string]domain.RequestTemplate
}

func newFakeTemplateRepo(templates ...domain.RequestTemplate) *fakeTemplateRepo {
	repo := &fakeTemplateRepo{store: map[string]domain.RequestTemplate{}}
	for _, tpl := range templates {
		repo.store[tpl.ID] = tpl
	}
	return repo
}

func (r *fakeTemplateRepo) Create(_ context.Context, template *domain.RequestTemplate) error {
	r.store[template.ID] = *template
	return nil
}

func (r *fakeTemplateRepo) GetByID(_ context.Context, id string) (*domain.RequestTemplate, error) {
	tpl, ok := r.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := tpl
	return &out, nil
}

func (r *fakeTemplateRepo) ListByDataspace(_ context.Context, dataspace string) ([]domain.RequestTemplate, error) {
	var out []domain.RequestTemplate
	for _, tpl := range r.store {
		if tpl.Dataspace == dataspace {
			out = append(out, tpl)
		}
	}
	return out, nil
}

type fakeLinkRepo struct {
	store map[string]domain.ExternalIssueLink
	seq   int
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{store: map[string]domain.ExternalIssueLink{}}
}

func (r *fakeLinkRepo) Create(_ context.Context, link *domain.ExternalIssueLink) error {
	if _, ok := r.store[link.RequestID]; ok {
		return repository.ErrLinkExists
	}
	r.seq++
	link.ID = fmt.Sprintf("link-%d", r.seq)
	link.CreatedAt = time.Now()
	r.store[link.RequestID] = *link
	return nil
}

func (r *fakeLinkRepo) GetByRequest(_ context.Context, requestID string) (*domain.ExternalIssueLink, error) {
	link, ok := r.store[requestID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := link
	return &out, nil
}

func (r *fakeLinkRepo) UpdateTrackerRef(_ context.Context, id string, trackerRef int64) error {
	for requestID, link := range r.store {
		if link.ID == id {
			link.TrackerRef = &trackerRef
			r.store[requestID] = link
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeUserRepo struct {
	store map[string]domain.User
}

func newFakeUserRepo(users ...domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{store: map[string]domain.User{}}
	for _, user := range users {
		repo.store[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.store[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.store[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := user
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.store {
		if user.Email == email {
			out := user
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByIDs(_ context.Context, ids []string) ([]domain.User, error) {
	var out []domain.User
	for _, id := range ids {
		if user, ok := r.store[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	user, ok := r.store[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	r.store[id] = user
	return nil
}

type fakeNotificationRepo struct {
	created []domain.Notification
	seq     int
}

func (r *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.seq++
	notification.ID = fmt.Sprintf("notif-%d", r.seq)
	notification.CreatedAt = time.Now()
	r.created = append(r.created, *notification)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientID string, unreadOnly bool, _, _ int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.created {
		if n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && !n.Unread {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id string) error {
	for i, n := range r.created {
		if n.ID == id {
			r.created[i].Unread = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

type recordingDispatcher struct {
	published []events.Event
	handlers  map[events.EventType][]events.EventHandler
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{handlers: map[events.EventType][]events.EventHandler{}}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	for _, handler := range d.handlers[event.Type] {
		_ = handler(ctx, event)
	}
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

func (d *recordingDispatcher) eventsOfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type fakeQueue struct {
	jobs []queue.Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job queue.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Dequeue(_ context.Context, _ time.Duration) (*queue.Job, error) {
	if len(q.jobs) == 0 {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

type fakeAdapter struct {
	platform     tracker.Platform
	syncCalls    []tracker.SyncInput
	commentCalls []string
	syncErr      error
	commentErr   error
	nextIssueID  string
}

func (a *fakeAdapter) Platform() tracker.Platform {
	return a.platform
}

func (a *fakeAdapter) Sync(_ context.Context, in tracker.SyncInput) (*domain.ExternalIssueLink, error) {
	a.syncCalls = append(a.syncCalls, in)
	if a.syncErr != nil {
		return nil, a.syncErr
	}
	if in.Link != nil {
		return in.Link, nil
	}
	issueID := a.nextIssueID
	if issueID == "" {
		issueID = "1"
	}
	return &domain.ExternalIssueLink{
		Dataspace: in.Dataspace,
		RequestID: in.RequestID,
		Platform:  string(a.platform),
		Repo:      "acme/widgets",
		IssueID:   issueID,
	}, nil
}

func (a *fakeAdapter) PostComment(_ context.Context, _ *domain.ExternalIssueLink, text string) error {
	if a.commentErr != nil {
		return a.commentErr
	}
	a.commentCalls = append(a.commentCalls, text)
	return nil
}

type fakeAdapterSource struct {
	adapter *fakeAdapter
	calls   int
	err     error
}

func (s *fakeAdapterSource) Adapter(_ context.Context, _ string, _ tracker.Platform) (tracker.Adapter, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.adapter, nil
}
