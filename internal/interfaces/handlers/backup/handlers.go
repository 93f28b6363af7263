package backup

import (
	"errors"

	backupsvc "rsutrack-backend/internal/application/backup"
	"rsutrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *backupsvc.Service
}

// Export GET /api/data/export
func (h *Handlers) Export(c *fiber.Ctx) error {
	payload, err := h.Service.Export(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Data exported", payload, nil)
}

// Import POST /api/data/import — full replace; rejects malformed or
// version-mismatched payloads before touching the database.
func (h *Handlers) Import(c *fiber.Ctx) error {
	if err := h.Service.Import(c.Context(), c.Body()); err != nil {
		var fe *backupsvc.FormatError
		if errors.As(err, &fe) {
			return response.Error(c, fe.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Data imported", fiber.Map{"success": true}, nil)
}
