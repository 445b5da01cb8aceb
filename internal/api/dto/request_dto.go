package dto

import (
	"time"

	"github.com/complykit/request-service/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	TemplateID     string                   `json:"template_id"`
	Title          string                   `json:"title"`
	Notes          string                   `json:"notes"`
	Priority       *domain.RequestPriority  `json:"priority"`
	Answers        domain.Answers           `json:"answers"`
	ContentObject  *ContentObjectPayload    `json:"content_object"`
	ProductContext *string                  `json:"product_context"`
	CCEmails       []string                 `json:"cc_emails"`
	SaveAsDraft    bool                     `json:"save_as_draft"`
}

// UpdateRequestRequest payload; nil fields are left untouched.
type UpdateRequestRequest struct {
	Title          *string                 `json:"title"`
	Notes          *string                 `json:"notes"`
	Priority       *domain.RequestPriority `json:"priority"`
	AssigneeID     *string                 `json:"assignee_id"`
	Answers        domain.Answers          `json:"answers"`
	ContentObject  *ContentObjectPayload   `json:"content_object"`
	ProductContext *string                 `json:"product_context"`
	CCEmails       []string                `json:"cc_emails"`
	SaveAsDraft    bool                    `json:"save_as_draft"`
}

// CloseRequestRequest payload.
type CloseRequestRequest struct {
	Reason string `json:"reason"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Text string `json:"text"`
}

// ContentObjectPayload names the business entity a request concerns.
type ContentObjectPayload struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RequestSummary response.
type RequestSummary struct {
	ID          string                  `json:"id"`
	TemplateID  string                  `json:"template_id"`
	RequesterID string                  `json:"requester_id"`
	AssigneeID  *string                 `json:"assignee_id"`
	Title       string                  `json:"title"`
	Status      domain.RequestStatus    `json:"status"`
	Priority    *domain.RequestPriority `json:"priority"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// RequestDetailResponse provides full request info.
type RequestDetailResponse struct {
	ID             string                  `json:"id"`
	TemplateID     string                  `json:"template_id"`
	RequesterID    string                  `json:"requester_id"`
	AssigneeID     *string                 `json:"assignee_id"`
	Title          string                  `json:"title"`
	Notes          string                  `json:"notes"`
	Status         domain.RequestStatus    `json:"status"`
	Priority       *domain.RequestPriority `json:"priority"`
	Answers        domain.Answers          `json:"answers"`
	ContentObject  *ContentObjectPayload   `json:"content_object"`
	ProductContext *string                 `json:"product_context"`
	CCEmails       []string                `json:"cc_emails"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	ClosedAt       *time.Time              `json:"closed_at"`
	ExternalIssue  *ExternalIssueResponse  `json:"external_issue"`
	Comments       []CommentResponse       `json:"comments"`
	Events         []RequestEventResponse  `json:"events"`
}

// ExternalIssueResponse describes the linked remote tracker issue.
type ExternalIssueResponse struct {
	Platform string `json:"platform"`
	Repo     string `json:"repo"`
	IssueID  string `json:"issue_id"`
	BaseURL  string `json:"base_url"`
}

// CommentResponse represents one discussion entry.
type CommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// RequestEventResponse represents one audit trail entry.
type RequestEventResponse struct {
	ID        string                  `json:"id"`
	ActorID   string                  `json:"actor_id"`
	Kind      domain.RequestEventKind `json:"kind"`
	Text      string                  `json:"text"`
	CreatedAt time.Time               `json:"created_at"`
}
