package events

import (
	"time"

	"github.com/complykit/request-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestCreated   EventType = "request_created"
	EventRequestUpdated   EventType = "request_updated"
	EventRequestCommented EventType = "request_commented"
	EventRequestClosed    EventType = "request_closed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RequestID string      `json:"request_id"`
	Dataspace string      `json:"dataspace"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestCreatedPayload payload.
type RequestCreatedPayload struct {
	TemplateID string                  `json:"template_id"`
	Title      string                  `json:"title"`
	Priority   *domain.RequestPriority `json:"priority,omitempty"`
	// WasDraft marks a draft promoted to open rather than a fresh
	// submission; both fire the created notification flow.
	WasDraft bool `json:"was_draft"`
}

// RequestUpdatedPayload payload.
type RequestUpdatedPayload struct {
	Title string `json:"title"`
}

// RequestCommentedPayload payload.
type RequestCommentedPayload struct {
	CommentID   string `json:"comment_id"`
	TextPreview string `json:"text_preview"`
}

// RequestClosedPayload payload.
type RequestClosedPayload struct {
	Reason string `json:"reason"`
}
