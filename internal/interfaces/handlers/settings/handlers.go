package settings

import (
	settingsvc "rsutrack-backend/internal/application/settings"
	"rsutrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *settingsvc.Service
}

// All GET /api/settings
func (h *Handlers) All(c *fiber.Ctx) error {
	settings, err := h.Service.All(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Settings retrieved", settings, nil)
}

// Upsert PUT /api/settings — merges the posted pairs into the store.
func (h *Handlers) Upsert(c *fiber.Ctx) error {
	var pairs map[string]string
	if err := c.BodyParser(&pairs); err != nil {
		return response.Error(c, "Body must be an object of string values", 400, nil)
	}
	if len(pairs) == 0 {
		return response.Error(c, "At least one setting is required", 400, nil)
	}

	settings, err := h.Service.Upsert(c.Context(), pairs)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Settings updated", settings, nil)
}
