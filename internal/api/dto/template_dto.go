package dto

import (
	"time"

	"github.com/complykit/request-service/internal/domain"
)

// CreateTemplateRequest payload.
type CreateTemplateRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	IssueTrackerID string            `json:"issue_tracker_id"`
	Questions      []QuestionPayload `json:"questions"`
}

// QuestionPayload defines one form question.
type QuestionPayload struct {
	Label     string                   `json:"label"`
	InputType domain.QuestionInputType `json:"input_type"`
	Required  bool                     `json:"required"`
	Position  int                      `json:"position"`
}

// TemplateResponse describes a template with its question schema.
type TemplateResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	IssueTrackerID string             `json:"issue_tracker_id"`
	Questions      []QuestionResponse `json:"questions"`
	CreatedAt      time.Time          `json:"created_at"`
}

// QuestionResponse describes one question of a template.
type QuestionResponse struct {
	ID        string                   `json:"id"`
	Label     string                   `json:"label"`
	InputType domain.QuestionInputType `json:"input_type"`
	Required  bool                     `json:"required"`
	Position  int                      `json:"position"`
}
