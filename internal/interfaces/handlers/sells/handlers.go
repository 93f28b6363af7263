package sells

import (
	"errors"

	sellsvc "rsutrack-backend/internal/application/sells"
	"rsutrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handlers struct {
	Service *sellsvc.Service
}

// List GET /api/sells
func (h *Handlers) List(c *fiber.Ctx) error {
	sells, err := h.Service.List(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Sells retrieved", sells, nil)
}

// Create POST /api/sells
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body sellsvc.CreateRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.Date == "" || body.ShareAmount <= 0 {
		return response.Error(c, "date and a positive shareAmount are required", 400, nil)
	}

	sell, err := h.Service.Create(c.Context(), body)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Sell created", sell, nil)
}

// Update PUT /api/sells/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	var body sellsvc.UpdateRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	if body.ShareAmount != nil && *body.ShareAmount <= 0 {
		return response.Error(c, "shareAmount must be a positive number", 400, nil)
	}

	sell, err := h.Service.Update(c.Context(), c.Params("id"), body)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Sell updated", sell, nil)
}

// Delete DELETE /api/sells/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Sell deleted", fiber.Map{"success": true}, nil)
}
