package domain

import "time"

// RequestEventKind captures what an audit log entry records.
type RequestEventKind string

const (
	EventKindEdit       RequestEventKind = "EDIT"
	EventKindAttachment RequestEventKind = "ATTACHMENT"
	EventKindClosed     RequestEventKind = "CLOSED"
)

// RequestEvent is an immutable append-only audit entry tied to a request.
// Closed entries carry the close reason in Text.
type RequestEvent struct {
	ID        string
	RequestID string
	ActorID   string
	Kind      RequestEventKind
	Text      string
	CreatedAt time.Time
}
