package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/complykit/request-service/internal/config"
	"github.com/complykit/request-service/internal/domain"
	"github.com/complykit/request-service/internal/events"
	"github.com/complykit/request-service/internal/notify"
	"github.com/complykit/request-service/internal/queue"
	"github.com/complykit/request-service/internal/repository"
)

// slackMarker identifies Slack-compatible webhook targets, which get a
// colored attachment payload instead of the generic envelope.
const slackMarker = "hooks.slack.com"

// Attachment colors per action.
const (
	colorCreated = "#36a64f"
	colorUpdated = "#ff9900"
	colorClosed  = "#d9534f"
)

// NotificationService turns request lifecycle events into email, chat
// webhook, and in-app notifications. Delivery is enqueued fire-and-forget;
// failures never reach the acting user's request cycle.
type NotificationService struct {
	requests      repository.RequestRepository
	comments      repository.RequestCommentRepository
	audit         repository.RequestEventRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	jobs          queue.Queue
	logger        *zap.Logger
	cfg           config.NotificationConfig
	siteURL       string
}

// NotificationDependencies bundles collaborators for the service.
type NotificationDependencies struct {
	RequestRepo      repository.RequestRepository
	CommentRepo      repository.RequestCommentRepository
	EventRepo        repository.RequestEventRepository
	UserRepo         repository.UserRepository
	NotificationRepo repository.NotificationRepository
	Dispatcher       events.Dispatcher
	Jobs             queue.Queue
	Logger           *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies, cfg config.NotificationConfig, siteURL string) *NotificationService {
	return &NotificationService{
		requests:      deps.RequestRepo,
		comments:      deps.CommentRepo,
		audit:         deps.EventRepo,
		users:         deps.UserRepo,
		notifications: deps.NotificationRepo,
		dispatcher:    deps.Dispatcher,
		jobs:          deps.Jobs,
		logger:        deps.Logger,
		cfg:           cfg,
		siteURL:       siteURL,
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handle)
	n.dispatcher.Subscribe(events.EventRequestUpdated, n.handle)
	n.dispatcher.Subscribe(events.EventRequestCommented, n.handle)
	n.dispatcher.Subscribe(events.EventRequestClosed, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	request, err := n.requests.GetByID(ctx, event.RequestID)
	if err != nil {
		return err
	}

	action := actionForEvent(event.Type)
	recipients, err := n.recipients(ctx, request)
	if err != nil {
		return err
	}

	n.sendEmails(ctx, request, event, action, recipients)
	n.sendWebhook(ctx, request, event, action)
	n.recordInApp(ctx, request, event, action, recipients)
	return nil
}

// recipients computes the involved-user set for a request: requester,
// assignee, prior editors, and prior commenters.
func (n *NotificationService) recipients(ctx context.Context, request *domain.Request) ([]domain.User, error) {
	ids := map[string]struct{}{request.RequesterID: {}}
	if request.AssigneeID != nil {
		ids[*request.AssigneeID] = struct{}{}
	}
	trail, err := n.audit.ListByRequest(ctx, request.ID, 200, 0)
	if err != nil {
		return nil, err
	}
	for _, entry := range trail {
		ids[entry.ActorID] = struct{}{}
	}
	comments, err := n.comments.ListByRequest(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	for _, comment := range comments {
		ids[comment.AuthorID] = struct{}{}
	}

	ordered := make([]string, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)
	return n.users.ListByIDs(ctx, ordered)
}

// EmailAudience filters recipients for the email channel: the acting user
// is excluded on every action except created, where the actor is the
// requester and stays in the audience.
func EmailAudience(recipients []domain.User, actorID string, action string) []domain.User {
	if action == "created" {
		return recipients
	}
	filtered := make([]domain.User, 0, len(recipients))
	for _, user := range recipients {
		if user.ID == actorID {
			continue
		}
		filtered = append(filtered, user)
	}
	return filtered
}

func (n *NotificationService) sendEmails(ctx context.Context, request *domain.Request, event events.Event, action string, recipients []domain.User) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || n.jobs == nil {
		return
	}
	audience := EmailAudience(recipients, event.ActorID, action)
	to := make([]string, 0, len(audience)+len(request.CCEmails))
	for _, user := range audience {
		to = append(to, user.Email)
	}
	to = append(to, request.CCEmails...)
	if len(to) == 0 {
		return
	}

	msg := notify.EmailMessage{
		From:    n.cfg.EmailFrom,
		To:      to,
		Subject: fmt.Sprintf("Request %s %s: %s", request.ID, action, request.Title),
		Body: fmt.Sprintf("The request %q was %s.\n\nView it at %s/requests/%s\n",
			request.Title, action, n.siteURL, request.ID),
	}
	n.enqueue(ctx, queue.KindEmail, msg, request.ID)
}

func (n *NotificationService) sendWebhook(ctx context.Context, request *domain.Request, event events.Event, action string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" || n.jobs == nil {
		return
	}
	payload, err := RenderWebhookPayload(n.cfg.WebhookURL, request, action, n.siteURL)
	if err != nil {
		n.logger.Warn("failed to render webhook payload", zap.Error(err))
		return
	}
	msg := notify.WebhookMessage{URL: n.cfg.WebhookURL, Payload: payload}
	n.enqueue(ctx, queue.KindWebhook, msg, request.ID)
}

// recordInApp persists dashboard notifications. The acting user never
// receives an in-app notification, including on created.
func (n *NotificationService) recordInApp(ctx context.Context, request *domain.Request, event events.Event, action string, recipients []domain.User) {
	if n.notifications == nil {
		return
	}
	for _, user := range recipients {
		if user.ID == event.ActorID {
			continue
		}
		entry := &domain.Notification{
			Dataspace:   request.Dataspace,
			RecipientID: user.ID,
			ActorID:     event.ActorID,
			RequestID:   request.ID,
			Verb:        action,
			Description: fmt.Sprintf("Request %q was %s", request.Title, action),
			Unread:      true,
		}
		if err := n.notifications.Create(ctx, entry); err != nil {
			n.logger.Warn("failed to record in-app notification",
				zap.String("recipient", user.ID),
				zap.Error(err))
		}
	}
}

func (n *NotificationService) enqueue(ctx context.Context, kind string, payload any, requestID string) {
	raw, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("failed to encode delivery job", zap.Error(err))
		return
	}
	job := queue.Job{ID: uuid.NewString(), Kind: kind, Payload: raw}
	if err := n.jobs.Enqueue(ctx, job); err != nil {
		n.logger.Warn("failed to enqueue delivery job",
			zap.String("kind", kind),
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// RenderWebhookPayload returns the JSON body for a webhook target. Targets
// carrying the Slack marker get a colored attachment; everything else gets
// the generic {hook, data} envelope.
func RenderWebhookPayload(targetURL string, request *domain.Request, action, siteURL string) (json.RawMessage, error) {
	permalink := siteURL + "/requests/" + request.ID
	if strings.Contains(targetURL, slackMarker) {
		payload := map[string]any{
			"attachments": []map[string]any{{
				"fallback":   fmt.Sprintf("Request %s: %s", action, request.Title),
				"color":      actionColor(action),
				"title":      request.Title,
				"title_link": permalink,
				"text":       fmt.Sprintf("Request %s by a member of %s", action, request.Dataspace),
			}},
		}
		return json.Marshal(payload)
	}
	payload := map[string]any{
		"hook": map[string]any{
			"target": targetURL,
			"event":  action,
		},
		"data": map[string]any{
			"request_id": request.ID,
			"title":      request.Title,
			"status":     request.Status,
			"permalink":  permalink,
		},
	}
	return json.Marshal(payload)
}

func actionColor(action string) string {
	switch action {
	case "created":
		return colorCreated
	case "closed":
		return colorClosed
	default:
		return colorUpdated
	}
}

func actionForEvent(eventType events.EventType) string {
	switch eventType {
	case events.EventRequestCreated:
		return "created"
	case events.EventRequestUpdated:
		return "updated"
	case events.EventRequestCommented:
		return "commented"
	case events.EventRequestClosed:
		return "closed"
	}
	return string(eventType)
}
