package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/complykit/request-service/internal/api/dto"
	"github.com/complykit/request-service/internal/auth"
	"github.com/complykit/request-service/internal/domain"
	"github.com/complykit/request-service/internal/service"
	apperrors "github.com/complykit/request-service/pkg/util/errorutil"
)

// RequestsHandler manages request lifecycle endpoints.
type RequestsHandler struct {
	service *service.RequestService
}

// NewRequestsHandler constructs handler.
func NewRequestsHandler(requestService *service.RequestService) *RequestsHandler {
	return &RequestsHandler{service: requestService}
}

// CreateRequest POST /requests.
func (h *RequestsHandler) CreateRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TemplateID == "" || strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("template_id and title required", nil)
	}

	input := service.RequestCreateInput{
		TemplateID:     req.TemplateID,
		Title:          req.Title,
		Notes:          req.Notes,
		Priority:       req.Priority,
		Answers:        req.Answers,
		ContentObject:  contentObjectFromPayload(req.ContentObject),
		ProductContext: req.ProductContext,
		CCEmails:       req.CCEmails,
		SaveAsDraft:    req.SaveAsDraft,
	}
	request, err := h.service.CreateRequest(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": requestSummary(request)})
}

// ListRequests GET /requests.
func (h *RequestsHandler) ListRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseRequestQuery(c)
	requests, err := h.service.ListRequests(c.UserContext(), principal.User, filter)
	if err != nil {
		return err
	}
	items := make([]dto.RequestSummary, 0, len(requests))
	for i := range requests {
		items = append(items, requestSummary(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRequest GET /requests/:id.
func (h *RequestsHandler) GetRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	request, comments, trail, err := h.service.GetRequest(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestDetail(request, comments, trail)})
}

// UpdateRequest PATCH /requests/:id.
func (h *RequestsHandler) UpdateRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.RequestUpdateInput{
		Title:          req.Title,
		Notes:          req.Notes,
		Priority:       req.Priority,
		AssigneeID:     req.AssigneeID,
		Answers:        req.Answers,
		ContentObject:  contentObjectFromPayload(req.ContentObject),
		ProductContext: req.ProductContext,
		CCEmails:       req.CCEmails,
		SaveAsDraft:    req.SaveAsDraft,
	}
	request, err := h.service.UpdateRequest(c.UserContext(), principal.User, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// CloseRequest POST /requests/:id/close.
func (h *RequestsHandler) CloseRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CloseRequestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	request, err := h.service.CloseRequest(c.UserContext(), principal.User, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": requestSummary(request)})
}

// AddComment POST /requests/:id/comments.
func (h *RequestsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return apperrors.NewValidationError("text required", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), principal.User, c.Params("id"), req.Text)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func parseRequestQuery(c *fiber.Ctx) service.RequestListFilter {
	filter := service.RequestListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.RequestStatus(strings.TrimSpace(part)))
		}
	}
	if templateID := c.Query("template_id"); templateID != "" {
		filter.TemplateID = &templateID
	}
	if term := c.Query("q"); term != "" {
		filter.SearchTerm = &term
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func contentObjectFromPayload(payload *dto.ContentObjectPayload) *domain.ContentObject {
	if payload == nil {
		return nil
	}
	return &domain.ContentObject{Type: payload.Type, ID: payload.ID}
}

func requestSummary(request *domain.Request) dto.RequestSummary {
	return dto.RequestSummary{
		ID:          request.ID,
		TemplateID:  request.TemplateID,
		RequesterID: request.RequesterID,
		AssigneeID:  request.AssigneeID,
		Title:       request.Title,
		Status:      request.Status,
		Priority:    request.Priority,
		CreatedAt:   request.CreatedAt,
		UpdatedAt:   request.UpdatedAt,
	}
}

func requestDetail(request *domain.Request, comments []domain.RequestComment, trail []domain.RequestEvent) dto.RequestDetailResponse {
	commentItems := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		commentItems = append(commentItems, commentResponse(&comments[i]))
	}
	eventItems := make([]dto.RequestEventResponse, 0, len(trail))
	for _, entry := range trail {
		eventItems = append(eventItems, dto.RequestEventResponse{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			Kind:      entry.Kind,
			Text:      entry.Text,
			CreatedAt: entry.CreatedAt,
		})
	}
	detail := dto.RequestDetailResponse{
		ID:             request.ID,
		TemplateID:     request.TemplateID,
		RequesterID:    request.RequesterID,
		AssigneeID:     request.AssigneeID,
		Title:          request.Title,
		Notes:          request.Notes,
		Status:         request.Status,
		Priority:       request.Priority,
		Answers:        request.Answers,
		ProductContext: request.ProductContext,
		CCEmails:       request.CCEmails,
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
		ClosedAt:       request.ClosedAt,
		Comments:       commentItems,
		Events:         eventItems,
	}
	if request.ContentObject != nil {
		detail.ContentObject = &dto.ContentObjectPayload{
			Type: request.ContentObject.Type,
			ID:   request.ContentObject.ID,
		}
	}
	if request.ExternalLink != nil {
		detail.ExternalIssue = &dto.ExternalIssueResponse{
			Platform: request.ExternalLink.Platform,
			Repo:     request.ExternalLink.Repo,
			IssueID:  request.ExternalLink.IssueID,
			BaseURL:  request.ExternalLink.BaseURL,
		}
	}
	return detail
}

func commentResponse(comment *domain.RequestComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}
}
