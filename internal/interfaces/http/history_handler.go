package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/inventory-ledger/internal/application/dto"
	"github.com/tu-usuario/inventory-ledger/internal/application/ledger"
	"github.com/tu-usuario/inventory-ledger/internal/domain"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

// HistoryHandler lectura paginada del historial de movimientos (protegido).
type HistoryHandler struct {
	uc *ledger.HistoryUseCase
}

// NewHistoryHandler construye el handler.
func NewHistoryHandler(uc *ledger.HistoryUseCase) *HistoryHandler {
	return &HistoryHandler{uc: uc}
}

// ListMovements devuelve la página filtrada del historial.
// GET /api/ledger/movements
//
// Query params: from, to (RFC3339 o YYYY-MM-DD), product_id,
// from_warehouse_id, to_warehouse_id, kind, page, page_size.
func (h *HistoryHandler) ListMovements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de paginación inválidos"})
	}
	page.DefaultPage()

	from, err := parseDateParam(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "parámetro from inválido"})
	}
	to, err := parseDateParam(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: "parámetro to inválido"})
	}

	filter := repository.MovementFilter{
		CompanyID:       companyID,
		From:            from,
		To:              to,
		ProductID:       c.Query("product_id"),
		FromWarehouseID: c.Query("from_warehouse_id"),
		ToWarehouseID:   c.Query("to_warehouse_id"),
		Kind:            ledger.KindFromString(c.Query("kind")),
		Page:            page.Page,
		PageSize:        page.PageSize,
	}

	result, err := h.uc.ListMovements(c.Context(), filter)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoResultsForFilter):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NO_RESULTS", Message: "ningún movimiento satisface el filtro"})
		case errors.Is(err, domain.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(result)
}

// parseDateParam acepta RFC3339 o fecha corta YYYY-MM-DD. Vacío es nil.
func parseDateParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
