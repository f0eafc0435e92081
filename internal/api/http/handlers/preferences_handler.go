package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-tracker/internal/api/dto"
	"github.com/spec-kit/helpdesk-tracker/internal/store"
	apperrors "github.com/spec-kit/helpdesk-tracker/pkg/util"
)

// PreferencesHandler manages per-session display settings.
type PreferencesHandler struct {
	preferences *store.Preferences
}

// NewPreferencesHandler constructs handler.
func NewPreferencesHandler(preferences *store.Preferences) *PreferencesHandler {
	return &PreferencesHandler{preferences: preferences}
}

// GetTheme GET /preferences/theme.
func (h *PreferencesHandler) GetTheme(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.ThemeResponse{
		DarkMode: h.preferences.DarkMode(c.UserContext()),
	}})
}

// SetTheme PUT /preferences/theme.
func (h *PreferencesHandler) SetTheme(c *fiber.Ctx) error {
	var req dto.ThemeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	h.preferences.SetDarkMode(c.UserContext(), req.DarkMode)
	return c.JSON(fiber.Map{"data": dto.ThemeResponse{DarkMode: req.DarkMode}})
}
