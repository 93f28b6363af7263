package health

import (
	"rsutrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DBPinger abstracts the database liveness check.
type DBPinger interface {
	Ping() error
}

type Handlers struct {
	DB   DBPinger
	Mode string
}

// Check GET /api/health — reports service status and database liveness.
func (h *Handlers) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	status := "ok"
	if h.DB != nil {
		if err := h.DB.Ping(); err != nil {
			dbStatus = "unreachable"
			status = "degraded"
		}
	}
	return response.Success(c, "Health check", fiber.Map{
		"status":     status,
		"database":   dbStatus,
		"schemaMode": h.Mode,
	}, nil)
}
