// Package vesting exposes the detailed-schema pipeline: vests plus their
// owned sell-for-tax, tax-cash-return and release records.
package vesting

import (
	"errors"

	vestsvc "rsutrack-backend/internal/application/vesting"
	"rsutrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handlers struct {
	Service *vestsvc.Service
}

// ListVests GET /api/vests — each vest embeds its linked records.
func (h *Handlers) ListVests(c *fiber.Ctx) error {
	vests, err := h.Service.ListVests(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Vests retrieved", vests, nil)
}

// GetVest GET /api/vests/:id
func (h *Handlers) GetVest(c *fiber.Ctx) error {
	vest, err := h.Service.GetVest(c.Context(), c.Params("id"))
	if err != nil {
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Vest retrieved", vest, nil)
}

// CreateVest POST /api/vests
func (h *Handlers) CreateVest(c *fiber.Ctx) error {
	var body vestsvc.CreateVestRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.Date == "" || body.ShareAmount <= 0 {
		return response.Error(c, "date and a positive shareAmount are required", 400, nil)
	}

	vest, err := h.Service.CreateVest(c.Context(), body)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Vest created", vest, nil)
}

// UpdateVest PUT /api/vests/:id
func (h *Handlers) UpdateVest(c *fiber.Ctx) error {
	var body vestsvc.UpdateVestRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	vest, err := h.Service.UpdateVest(c.Context(), c.Params("id"), body)
	if err != nil {
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Vest updated", vest, nil)
}

// DeleteVest DELETE /api/vests/:id — removes linked records with it.
func (h *Handlers) DeleteVest(c *fiber.Ctx) error {
	if err := h.Service.DeleteVest(c.Context(), c.Params("id")); err != nil {
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Vest deleted", fiber.Map{"success": true}, nil)
}

// ListSellForTax GET /api/sell-for-tax
func (h *Handlers) ListSellForTax(c *fiber.Ctx) error {
	rows, err := h.Service.ListSellForTax(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Sell-for-tax records retrieved", rows, nil)
}

// CreateSellForTax POST /api/sell-for-tax
func (h *Handlers) CreateSellForTax(c *fiber.Ctx) error {
	var body vestsvc.CreateSellForTaxRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.VestID == "" || body.Date == "" {
		return response.Error(c, "vestId and date are required", 400, nil)
	}

	row, err := h.Service.CreateSellForTax(c.Context(), body)
	if err != nil {
		if errors.Is(err, vestsvc.ErrNonPositiveShares) {
			return response.Error(c, err.Error(), 400, nil)
		}
		return notFoundOr500(c, err)
	}
	return response.SuccessCreated(c, "Sell-for-tax record created", row, nil)
}

// UpdateSellForTax PUT /api/sell-for-tax/:id
func (h *Handlers) UpdateSellForTax(c *fiber.Ctx) error {
	var body vestsvc.UpdateSellForTaxRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	row, err := h.Service.UpdateSellForTax(c.Context(), c.Params("id"), body)
	if err != nil {
		if errors.Is(err, vestsvc.ErrNonPositiveShares) {
			return response.Error(c, err.Error(), 400, nil)
		}
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Sell-for-tax record updated", row, nil)
}

// DeleteSellForTax DELETE /api/sell-for-tax/:id
func (h *Handlers) DeleteSellForTax(c *fiber.Ctx) error {
	if err := h.Service.DeleteSellForTax(c.Context(), c.Params("id")); err != nil {
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Sell-for-tax record deleted", fiber.Map{"success": true}, nil)
}

// ListTaxCashReturns GET /api/tax-cash-returns
func (h *Handlers) ListTaxCashReturns(c *fiber.Ctx) error {
	rows, err := h.Service.ListTaxCashReturns(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Tax cash returns retrieved", rows, nil)
}

// CreateTaxCashReturn POST /api/tax-cash-returns
func (h *Handlers) CreateTaxCashReturn(c *fiber.Ctx) error {
	var body vestsvc.CreateTaxCashReturnRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.VestID == "" || body.Date == "" {
		return response.Error(c, "vestId and date are required", 400, nil)
	}

	row, err := h.Service.CreateTaxCashReturn(c.Context(), body)
	if err != nil {
		return notFoundOr500(c, err)
	}
	return response.SuccessCreated(c, "Tax cash return created", row, nil)
}

// UpdateTaxCashReturn PUT /api/tax-cash-returns/:id
func (h *Handlers) UpdateTaxCashReturn(c *fiber.Ctx) error {
	var body vestsvc.UpdateTaxCashReturnRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	row, err := h.Service.UpdateTaxCashReturn(c.Context(), c.Params("id"), body)
	if err != nil {
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Tax cash return updated", row, nil)
}

// DeleteTaxCashReturn DELETE /api/tax-cash-returns/:id
func (h *Handlers) DeleteTaxCashReturn(c *fiber.Ctx) error {
	if err := h.Service.DeleteTaxCashReturn(c.Context(), c.Params("id")); err != nil {
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Tax cash return deleted", fiber.Map{"success": true}, nil)
}

// ListReleases GET /api/releases
func (h *Handlers) ListReleases(c *fiber.Ctx) error {
	rows, err := h.Service.ListReleases(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Releases retrieved", rows, nil)
}

// CreateRelease POST /api/releases
func (h *Handlers) CreateRelease(c *fiber.Ctx) error {
	var body vestsvc.CreateReleaseRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.VestID == "" || body.Date == "" || body.ShareAmount <= 0 {
		return response.Error(c, "vestId, date and a positive shareAmount are required", 400, nil)
	}

	row, err := h.Service.CreateRelease(c.Context(), body)
	if err != nil {
		return notFoundOr500(c, err)
	}
	return response.SuccessCreated(c, "Release created", row, nil)
}

// UpdateRelease PUT /api/releases/:id
func (h *Handlers) UpdateRelease(c *fiber.Ctx) error {
	var body vestsvc.UpdateReleaseRequest
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	row, err := h.Service.UpdateRelease(c.Context(), c.Params("id"), body)
	if err != nil {
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Release updated", row, nil)
}

// DeleteRelease DELETE /api/releases/:id
func (h *Handlers) DeleteRelease(c *fiber.Ctx) error {
	if err := h.Service.DeleteRelease(c.Context(), c.Params("id")); err != nil {
		return notFoundOr500(c, err)
	}
	return response.Success(c, "Release deleted", fiber.Map{"success": true}, nil)
}

func notFoundOr500(c *fiber.Ctx, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return response.Error(c, "Not found", 404, nil)
	}
	return response.Error(c, "Internal Server Error", 500, nil)
}
