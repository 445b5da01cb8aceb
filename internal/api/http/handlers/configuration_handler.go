package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/complykit/request-service/internal/api/dto"
	"github.com/complykit/request-service/internal/auth"
	"github.com/complykit/request-service/internal/repository"
	"github.com/complykit/request-service/internal/tracker"
	apperrors "github.com/complykit/request-service/pkg/util/errorutil"
)

// ConfigurationHandler manages tenant configuration entries, primarily the
// tracker credentials the sync adapters read. Admin-only at the route level.
type ConfigurationHandler struct {
	configuration repository.ConfigurationRepository
}

// NewConfigurationHandler constructs handler.
func NewConfigurationHandler(configuration repository.ConfigurationRepository) *ConfigurationHandler {
	return &ConfigurationHandler{configuration: configuration}
}

// SetConfiguration PUT /configuration.
func (h *ConfigurationHandler) SetConfiguration(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SetConfigurationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Key = strings.TrimSpace(req.Key)
	if !tracker.KnownConfigKey(req.Key) {
		return apperrors.NewValidationError("unknown configuration key", map[string]any{"key": req.Key})
	}
	if err := h.configuration.SetConfiguration(c.UserContext(), principal.User.Dataspace, req.Key, req.Value); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
