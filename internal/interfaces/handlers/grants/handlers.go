package grants

import (
	"errors"

	grantsvc "rsutrack-backend/internal/application/grants"
	"rsutrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handlers struct {
	Service *grantsvc.Service
}

// List GET /api/grants
func (h *Handlers) List(c *fiber.Ctx) error {
	grants, err := h.Service.List(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Grants retrieved", grants, nil)
}

// Get GET /api/grants/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	grant, err := h.Service.Get(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Grant retrieved", grant, nil)
}

// Create POST /api/grants
func (h *Handlers) Create(c *fiber.Ctx) error {
	var body grantsvc.CreateRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.Name == "" || body.Date == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.ShareAmount <= 0 {
		return response.Error(c, "shareAmount must be a positive number", 400, nil)
	}

	grant, err := h.Service.Create(c.Context(), body)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Error(c, "A grant with this name already exists", 409, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Grant created", grant, nil)
}

// Update PUT /api/grants/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	var body grantsvc.UpdateRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	if body.ShareAmount != nil && *body.ShareAmount <= 0 {
		return response.Error(c, "shareAmount must be a positive number", 400, nil)
	}

	grant, err := h.Service.Update(c.Context(), c.Params("id"), body)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Not found", 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Grant updated", grant, nil)
}

// Delete DELETE /api/grants/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	err := h.Service.Delete(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.Error(c, "Not found", 404, nil)
		}
		if errors.Is(err, grantsvc.ErrReferenced) {
			return response.Error(c, err.Error(), 409, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Grant deleted", fiber.Map{"success": true}, nil)
}
