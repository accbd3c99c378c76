package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/inventory-ledger/internal/application/dto"
	"github.com/tu-usuario/inventory-ledger/internal/application/reports"
)

// SnapshotHandler cálculo bajo demanda del paquete de métricas diarias
// (protegido). El cálculo programado corre en el worker; este endpoint computa
// la misma agregación para la empresa del token sin persistirla.
type SnapshotHandler struct {
	uc *reports.SnapshotUseCase
}

// NewSnapshotHandler construye el handler.
func NewSnapshotHandler(uc *reports.SnapshotUseCase) *SnapshotHandler {
	return &SnapshotHandler{uc: uc}
}

// GetSnapshot devuelve las métricas de la empresa al instante as_of (query
// param opcional, RFC3339 o YYYY-MM-DD; por defecto ahora).
// GET /api/ledger/snapshot
func (h *SnapshotHandler) GetSnapshot(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := parseDateParam(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "parámetro as_of inválido"})
		}
		asOf = *parsed
	}

	snapshot, err := h.uc.ComputeDailySnapshot(c.Context(), companyID, asOf)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(snapshot)
}
