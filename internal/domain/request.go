package domain

import "time"

// RequestStatus enumerates lifecycle states for requests.
type RequestStatus string

const (
	RequestStatusDraft  RequestStatus = "DRAFT"
	RequestStatusOpen   RequestStatus = "OPEN"
	RequestStatusClosed RequestStatus = "CLOSED"
)

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	RequestPriorityLow    RequestPriority = "LOW"
	RequestPriorityMedium RequestPriority = "MEDIUM"
	RequestPriorityHigh   RequestPriority = "HIGH"
	RequestPriorityUrgent RequestPriority = "URGENT"
)

// Answers maps question labels to submitted values. Boolean answers are
// stored as "true"/"false" and rendered as Yes/No on outbound documents.
type Answers map[string]string

// ContentObject points at the business entity a request concerns.
type ContentObject struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Request is the aggregate for compliance workflow requests.
type Request struct {
	ID             string
	Dataspace      string
	TemplateID     string
	RequesterID    string
	AssigneeID     *string
	Title          string
	Notes          string
	Status         RequestStatus
	Priority       *RequestPriority
	Answers        Answers
	ContentObject  *ContentObject
	ProductContext *string
	CCEmails       []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time

	// ExternalLink is loaded alongside the request when present. A request
	// has at most one link and it is never repointed once created.
	ExternalLink *ExternalIssueLink
}

// IsClosed reports whether the request reached its terminal state.
func (r *Request) IsClosed() bool {
	return r.Status == RequestStatusClosed
}

// IsDraft reports whether the request is still a private draft.
func (r *Request) IsDraft() bool {
	return r.Status == RequestStatusDraft
}
