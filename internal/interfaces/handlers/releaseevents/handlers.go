package releaseevents

import (
	"errors"
	"fmt"
	"strconv"

	resvc "rsutrack-backend/internal/application/releaseevents"
	"rsutrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handlers struct {
	Service *resvc.Service
}

// List GET /api/release-events
func (h *Handlers) List(c *fiber.Ctx) error {
	events, err := h.Service.List(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Release events retrieved", events, nil)
}

// Get GET /api/release-events/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	event, err := h.Service.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Release event retrieved", event, nil)
}

// Create POST /api/release-events
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body resvc.CreateRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	event, err := h.Service.Create(c.Context(), body)
	if err != nil {
		return serviceError(c, err)
	}
	return response.SuccessCreated(c, "Release event created", event, nil)
}

// Update PUT /api/release-events/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	var body resvc.UpdateRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	event, err := h.Service.Update(c.Context(), c.Params("id"), body)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Release event updated", event, nil)
}

// Delete DELETE /api/release-events/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Release event deleted", fiber.Map{"success": true}, nil)
}

// SuggestAllocations GET /api/release-events/suggest-allocations?totalShares=
// Runs the FIFO consumer prospectively. On shortfall the partial
// allocation and availability snapshot are still returned in the error
// details for caller inspection.
func (h *Handlers) SuggestAllocations(c *fiber.Ctx) error {
	raw := c.Query("totalShares")
	if raw == "" {
		return response.Error(c, "totalShares query parameter required", 400, nil)
	}
	totalShares, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return response.Error(c, "totalShares must be a number", 400, nil)
	}

	suggestion, err := h.Service.Suggest(c.Context(), totalShares)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	if suggestion.Shortfall > 0 {
		msg := fmt.Sprintf("Insufficient grant shares. Need %v more shares.", suggestion.Shortfall)
		return response.Error(c, msg, 400, fiber.Map{
			"allocations":       suggestion.Allocations,
			"grantAvailability": suggestion.Availability,
		})
	}
	return response.Success(c, "Allocations suggested", suggestion, nil)
}

func serviceError(c *fiber.Ctx, err error) error {
	var ve *resvc.ValidationError
	if errors.As(err, &ve) {
		return response.Error(c, ve.Message, 400, nil)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.Error(c, "Not found", 404, nil)
	}
	return response.Error(c, "Internal Server Error", 500, nil)
}
