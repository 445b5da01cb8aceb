package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/domain"
	"github.com/complykit/request-service/internal/events"
	"github.com/complykit/request-service/internal/repository"
)

// RequestService coordinates the request lifecycle: draft/open/closed
// transitions, audit events, and the best-effort tracker sync that follows
// every successful non-draft save.
type RequestService struct {
	requests   repository.RequestRepository
	comments   repository.RequestCommentRepository
	audit      repository.RequestEventRepository
	templates  repository.TemplateRepository
	links      repository.ExternalLinkRepository
	dispatcher events.Dispatcher
	sync       *TrackerSyncService
	logger     *zap.Logger
}

// RequestDependencies bundles repositories for the request service.
type RequestDependencies struct {
	RequestRepo  repository.RequestRepository
	CommentRepo  repository.RequestCommentRepository
	EventRepo    repository.RequestEventRepository
	TemplateRepo repository.TemplateRepository
	LinkRepo     repository.ExternalLinkRepository
	Dispatcher   events.Dispatcher
	Sync         *TrackerSyncService
	Logger       *zap.Logger
}

// RequestCreateInput describes request creation payload.
type RequestCreateInput struct {
	TemplateID     string
	Title          string
	Notes          string
	Priority       *domain.RequestPriority
	Answers        domain.Answers
	ContentObject  *domain.ContentObject
	ProductContext *string
	CCEmails       []string
	SaveAsDraft    bool
}

// RequestUpdateInput describes edit payload. Nil fields keep their value.
type RequestUpdateInput struct {
	Title          *string
	Notes          *string
	Priority       *domain.RequestPriority
	AssigneeID     *string
	Answers        domain.Answers
	ContentObject  *domain.ContentObject
	ProductContext *string
	CCEmails       []string
	SaveAsDraft    bool
}

// RequestListFilter describes listing filters for a caller.
type RequestListFilter struct {
	Statuses    []domain.RequestStatus
	TemplateID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		comments:   deps.CommentRepo,
		audit:      deps.EventRepo,
		templates:  deps.TemplateRepo,
		links:      deps.LinkRepo,
		dispatcher: deps.Dispatcher,
		sync:       deps.Sync,
		logger:     deps.Logger,
	}
}

// CreateRequest creates a request. Saving as draft self-assigns the draft
// to its creator and suppresses outbound notifications and tracker sync.
func (s *RequestService) CreateRequest(ctx context.Context, requester *domain.User, input RequestCreateInput) (*domain.Request, error) {
	template, err := s.templates.GetByID(ctx, input.TemplateID)
	if err != nil {
		return nil, err
	}
	if template.Dataspace != requester.Dataspace {
		return nil, errors.New("template not in dataspace")
	}
	if err := template.ValidateAnswers(input.Answers); err != nil {
		return nil, err
	}

	request := &domain.Request{
		Dataspace:      requester.Dataspace,
		TemplateID:     template.ID,
		RequesterID:    requester.ID,
		Title:          strings.TrimSpace(input.Title),
		Notes:          strings.TrimSpace(input.Notes),
		Status:         domain.RequestStatusOpen,
		Priority:       input.Priority,
		Answers:        input.Answers,
		ContentObject:  input.ContentObject,
		ProductContext: input.ProductContext,
		CCEmails:       input.CCEmails,
	}
	if request.Title == "" {
		return nil, errors.New("title required")
	}
	if input.SaveAsDraft {
		request.Status = domain.RequestStatusDraft
		requesterID := requester.ID
		request.AssigneeID = &requesterID
	}

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	if !request.IsDraft() {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestCreated,
			RequestID: request.ID,
			Dataspace: request.Dataspace,
			ActorID:   requester.ID,
			Payload: events.RequestCreatedPayload{
				TemplateID: template.ID,
				Title:      request.Title,
				Priority:   request.Priority,
			},
		})
		s.attemptSync(ctx, request, template)
	}
	return request, nil
}

// UpdateRequest edits a request. Editing a draft without the draft flag
// promotes it to open and fires the full created flow; editing an open
// request fires the updated flow. Closed requests reject all edits.
func (s *RequestService) UpdateRequest(ctx context.Context, actor *domain.User, requestID string, input RequestUpdateInput) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.IsClosed() {
		return nil, errors.New("request is closed")
	}
	if request.IsDraft() && request.RequesterID != actor.ID {
		return nil, errors.New("drafts are private to their creator")
	}
	if !s.canMutate(actor, request) {
		return nil, errors.New("access denied")
	}

	template, err := s.templates.GetByID(ctx, request.TemplateID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		request.Title = strings.TrimSpace(*input.Title)
	}
	if input.Notes != nil {
		request.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.Priority != nil {
		request.Priority = input.Priority
	}
	if input.Answers != nil {
		request.Answers = input.Answers
	}
	if input.ContentObject != nil {
		request.ContentObject = input.ContentObject
	}
	if input.ProductContext != nil {
		request.ProductContext = input.ProductContext
	}
	if input.CCEmails != nil {
		request.CCEmails = input.CCEmails
	}
	if err := template.ValidateAnswers(request.Answers); err != nil {
		return nil, err
	}

	wasDraft := request.IsDraft()
	if wasDraft && !input.SaveAsDraft {
		request.Status = domain.RequestStatusOpen
		request.AssigneeID = nil
	}
	if input.AssigneeID != nil && !request.IsDraft() {
		request.AssigneeID = input.AssigneeID
	}

	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	if err := s.recordEvent(ctx, actor.ID, request.ID, domain.EventKindEdit, ""); err != nil {
		return nil, err
	}

	if !request.IsDraft() {
		if wasDraft {
			// promoted draft notifies as if newly submitted
			s.publishEvent(ctx, events.Event{
				Type:      events.EventRequestCreated,
				RequestID: request.ID,
				Dataspace: request.Dataspace,
				ActorID:   actor.ID,
				Payload: events.RequestCreatedPayload{
					TemplateID: template.ID,
					Title:      request.Title,
					Priority:   request.Priority,
					WasDraft:   true,
				},
			})
		} else {
			s.publishEvent(ctx, events.Event{
				Type:      events.EventRequestUpdated,
				RequestID: request.ID,
				Dataspace: request.Dataspace,
				ActorID:   actor.ID,
				Payload:   events.RequestUpdatedPayload{Title: request.Title},
			})
		}
		s.attemptSync(ctx, request, template)
	}
	return request, nil
}

// CloseRequest closes the request. Only the original requester may close,
// exactly once; the close reason is recorded as an audit event and posted
// to the remote issue when a link exists.
func (s *RequestService) CloseRequest(ctx context.Context, actor *domain.User, requestID, reason string) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.IsClosed() {
		return nil, errors.New("request is closed")
	}
	if request.IsDraft() {
		return nil, errors.New("drafts cannot be closed")
	}
	if request.RequesterID != actor.ID {
		return nil, errors.New("only the requester may close a request")
	}

	now := time.Now()
	request.Status = domain.RequestStatusClosed
	request.ClosedAt = &now
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, err
	}
	if err := s.recordEvent(ctx, actor.ID, request.ID, domain.EventKindClosed, reason); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestClosed,
		RequestID: request.ID,
		Dataspace: request.Dataspace,
		ActorID:   actor.ID,
		Payload:   events.RequestClosedPayload{Reason: reason},
	})

	template, err := s.templates.GetByID(ctx, request.TemplateID)
	if err != nil {
		s.logger.Warn("failed to load template for close sync",
			zap.String("request_id", request.ID),
			zap.String("template_id", request.TemplateID),
			zap.Error(err))
	} else {
		s.attemptSync(ctx, request, template)
	}
	if s.sync != nil && strings.TrimSpace(reason) != "" {
		if err := s.sync.PostComment(ctx, request, reason); err != nil {
			s.logger.Warn("failed to post close reason to tracker",
				zap.String("request_id", request.ID),
				zap.Error(err))
		}
	}
	return request, nil
}

// AddComment appends a comment and mirrors it to the remote issue when a
// link exists; without a link no network call is made.
func (s *RequestService) AddComment(ctx context.Context, actor *domain.User, requestID, text string) (*domain.RequestComment, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.IsDraft() && request.RequesterID != actor.ID {
		return nil, errors.New("drafts are private to their creator")
	}
	if !s.canView(actor, request) {
		return nil, errors.New("access denied")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("comment text required")
	}

	comment := &domain.RequestComment{
		RequestID: request.ID,
		AuthorID:  actor.ID,
		Text:      text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCommented,
		RequestID: request.ID,
		Dataspace: request.Dataspace,
		ActorID:   actor.ID,
		Payload: events.RequestCommentedPayload{
			CommentID:   comment.ID,
			TextPreview: stringPreview(text, 120),
		},
	})

	if s.sync != nil && !request.IsDraft() {
		if err := s.sync.PostComment(ctx, request, text); err != nil {
			s.logger.Warn("failed to post comment to tracker",
				zap.String("request_id", request.ID),
				zap.Error(err))
		}
	}
	return comment, nil
}

// GetRequest fetches a request with its comments and audit trail, enforcing
// visibility.
func (s *RequestService) GetRequest(ctx context.Context, actor *domain.User, requestID string) (*domain.Request, []domain.RequestComment, []domain.RequestEvent, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, nil, err
	}
	if request.IsDraft() && request.RequesterID != actor.ID {
		return nil, nil, nil, errors.New("access denied")
	}
	if !s.canView(actor, request) {
		return nil, nil, nil, errors.New("access denied")
	}
	comments, err := s.comments.ListByRequest(ctx, request.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	trail, err := s.audit.ListByRequest(ctx, request.ID, 100, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	if link, err := s.links.GetByRequest(ctx, request.ID); err == nil {
		request.ExternalLink = link
	}
	return request, comments, trail, nil
}

// ListRequests returns requests visible to the actor.
func (s *RequestService) ListRequests(ctx context.Context, actor *domain.User, filter RequestListFilter) ([]domain.Request, error) {
	repoFilter := repository.RequestFilter{
		Dataspace:   &actor.Dataspace,
		TemplateID:  filter.TemplateID,
		Statuses:    filter.Statuses,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	if !actor.IsAdmin() {
		repoFilter.RequesterID = &actor.ID
	}
	return s.requests.ListWithFilter(ctx, repoFilter)
}

func (s *RequestService) canView(actor *domain.User, request *domain.Request) bool {
	if actor.Dataspace != request.Dataspace {
		return false
	}
	if actor.IsAdmin() || request.RequesterID == actor.ID {
		return true
	}
	return request.AssigneeID != nil && *request.AssigneeID == actor.ID
}

func (s *RequestService) canMutate(actor *domain.User, request *domain.Request) bool {
	return s.canView(actor, request)
}

// attemptSync fires the best-effort tracker sync after a successful save.
// Only non-draft requests that reference a content object reach the
// tracker. Failures are logged and never surfaced to the caller: the
// persisted request state stands regardless of integration outcome.
func (s *RequestService) attemptSync(ctx context.Context, request *domain.Request, template *domain.RequestTemplate) {
	if s.sync == nil || request.IsDraft() || request.ContentObject == nil {
		return
	}
	if err := s.sync.SyncRequest(ctx, request, template); err != nil {
		s.logger.Warn("tracker sync failed",
			zap.String("request_id", request.ID),
			zap.String("tracker_url", template.IssueTrackerID),
			zap.Error(err))
	}
}

func (s *RequestService) recordEvent(ctx context.Context, actorID, requestID string, kind domain.RequestEventKind, text string) error {
	entry := &domain.RequestEvent{
		RequestID: requestID,
		ActorID:   actorID,
		Kind:      kind,
		Text:      text,
	}
	return s.audit.Create(ctx, entry)
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
