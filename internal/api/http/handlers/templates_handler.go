package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/complykit/request-service/internal/api/dto"
	"github.com/complykit/request-service/internal/auth"
	"github.com/complykit/request-service/internal/domain"
	"github.com/complykit/request-service/internal/repository"
	apperrors "github.com/complykit/request-service/pkg/util/errorutil"
)

// TemplatesHandler exposes template management endpoints. Creation is
// restricted to dataspace administrators at the route level.
type TemplatesHandler struct {
	templates repository.TemplateRepository
}

// NewTemplatesHandler constructs handler.
func NewTemplatesHandler(templates repository.TemplateRepository) *TemplatesHandler {
	return &TemplatesHandler{templates: templates}
}

// CreateTemplate POST /templates.
func (h *TemplatesHandler) CreateTemplate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	seen := make(map[string]struct{}, len(req.Questions))
	questions := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		if strings.TrimSpace(q.Label) == "" {
			return apperrors.NewValidationError("question label required", nil)
		}
		if _, dup := seen[q.Label]; dup {
			return apperrors.NewValidationError("duplicate question label", map[string]any{"label": q.Label})
		}
		seen[q.Label] = struct{}{}
		questions = append(questions, domain.Question{
			Label:     q.Label,
			InputType: q.InputType,
			Required:  q.Required,
			Position:  q.Position,
		})
	}

	template := &domain.RequestTemplate{
		Dataspace:      principal.User.Dataspace,
		Name:           req.Name,
		Description:    req.Description,
		IssueTrackerID: req.IssueTrackerID,
		Questions:      questions,
	}
	if err := h.templates.Create(c.UserContext(), template); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": templateResponse(template)})
}

// ListTemplates GET /templates.
func (h *TemplatesHandler) ListTemplates(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	templates, err := h.templates.ListByDataspace(c.UserContext(), principal.User.Dataspace)
	if err != nil {
		return err
	}
	items := make([]dto.TemplateResponse, 0, len(templates))
	for i := range templates {
		items = append(items, templateResponse(&templates[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTemplate GET /templates/:id.
func (h *TemplatesHandler) GetTemplate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	template, err := h.templates.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("template")
		}
		return err
	}
	if template.Dataspace != principal.User.Dataspace {
		return apperrors.NewNotFound("template")
	}
	return c.JSON(fiber.Map{"data": templateResponse(template)})
}

func templateResponse(template *domain.RequestTemplate) dto.TemplateResponse {
	questions := make([]dto.QuestionResponse, 0, len(template.Questions))
	for _, q := range template.SortedQuestions() {
		questions = append(questions, dto.QuestionResponse{
			ID:        q.ID,
			Label:     q.Label,
			InputType: q.InputType,
			Required:  q.Required,
			Position:  q.Position,
		})
	}
	return dto.TemplateResponse{
		ID:             template.ID,
		Name:           template.Name,
		Description:    template.Description,
		IssueTrackerID: template.IssueTrackerID,
		Questions:      questions,
		CreatedAt:      template.CreatedAt,
	}
}
