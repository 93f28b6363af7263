package insights

import (
	insightsvc "rsutrack-backend/internal/application/insights"
	"rsutrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *insightsvc.Service
}

// Portfolio GET /api/insights/portfolio
func (h *Handlers) Portfolio(c *fiber.Ctx) error {
	overview, err := h.Service.Portfolio(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Portfolio overview", overview, nil)
}

// Lots GET /api/insights/lots — tax lots with remaining shares after
// replaying all sells.
func (h *Handlers) Lots(c *fiber.Ctx) error {
	lots, err := h.Service.Lots(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Tax lots", lots, nil)
}

// CapitalGains GET /api/insights/capital-gains
func (h *Handlers) CapitalGains(c *fiber.Ctx) error {
	gains, err := h.Service.CapitalGains(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Capital gains", gains, nil)
}

// TaxWithholding GET /api/insights/tax-withholding
func (h *Handlers) TaxWithholding(c *fiber.Ctx) error {
	summaries, err := h.Service.TaxWithholding(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Tax withholding summary", summaries, nil)
}

// SellToCoverGains GET /api/insights/sell-to-cover-gains
func (h *Handlers) SellToCoverGains(c *fiber.Ctx) error {
	summaries, err := h.Service.SellToCoverGains(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Sell-to-cover gains", summaries, nil)
}

// PromisedVsFactual GET /api/insights/promised-vs-factual
func (h *Handlers) PromisedVsFactual(c *fiber.Ctx) error {
	rows, err := h.Service.PromisedVsFactual(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Promised vs factual value", rows, nil)
}
