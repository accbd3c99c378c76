package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/inventory-ledger/internal/application/dto"
	"github.com/tu-usuario/inventory-ledger/internal/application/ledger"
	"github.com/tu-usuario/inventory-ledger/internal/domain"
)

// MovementHandler maneja las peticiones HTTP del motor de movimientos
// (protegido). Cada endpoint es una operación lógica del ledger: compra,
// venta o traslado.
type MovementHandler struct {
	engine *ledger.MovementEngine
}

// NewMovementHandler construye el handler.
func NewMovementHandler(engine *ledger.MovementEngine) *MovementHandler {
	return &MovementHandler{engine: engine}
}

// ApplyPurchase registra una entrada de stock.
// POST /api/ledger/purchases
func (h *MovementHandler) ApplyPurchase(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	actorID := GetUserID(c)
	if companyID == "" || actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.PurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	result, err := h.engine.ApplyPurchase(c.Context(), ledger.PurchaseInput{
		CompanyID:   companyID,
		ActorID:     actorID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		Note:        in.Note,
	})
	if err != nil {
		return movementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementResponse{
		MovementID:    result.MovementID,
		CorrelationID: result.CorrelationID,
		ProductID:     in.ProductID,
		WarehouseID:   in.WarehouseID,
		NewQuantity:   result.NewQuantity,
	})
}

// ApplySale registra una salida de stock. Se rechaza con 409 si la cantidad
// solicitada supera la disponible.
// POST /api/ledger/sales
func (h *MovementHandler) ApplySale(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	actorID := GetUserID(c)
	if companyID == "" || actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.SaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	result, err := h.engine.ApplySale(c.Context(), ledger.SaleInput{
		CompanyID:   companyID,
		ActorID:     actorID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		Note:        in.Note,
	})
	if err != nil {
		return movementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementResponse{
		MovementID:    result.MovementID,
		CorrelationID: result.CorrelationID,
		ProductID:     in.ProductID,
		WarehouseID:   in.WarehouseID,
		NewQuantity:   result.NewQuantity,
	})
}

// ApplyTransfer mueve stock entre dos bodegas de la misma empresa como unidad
// atómica.
// POST /api/ledger/transfers
func (h *MovementHandler) ApplyTransfer(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	actorID := GetUserID(c)
	if companyID == "" || actorID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	result, err := h.engine.ApplyTransfer(c.Context(), ledger.TransferInput{
		CompanyID:       companyID,
		ActorID:         actorID,
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		Note:            in.Note,
	})
	if err != nil {
		return movementError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		CorrelationID:       result.CorrelationID,
		ProductID:           in.ProductID,
		FromWarehouseID:     in.FromWarehouseID,
		ToWarehouseID:       in.ToWarehouseID,
		SourceQuantity:      result.SourceQuantity,
		DestinationQuantity: result.DestinationQuantity,
	})
}

// movementError traduce los errores del motor al contrato HTTP.
func movementError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "la cantidad debe ser un entero positivo"})
	case errors.Is(err, domain.ErrSameWarehouseTransfer):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "SAME_WAREHOUSE", Message: "origen y destino deben ser bodegas distintas"})
	case errors.Is(err, domain.ErrPositionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "POSITION_NOT_FOUND", Message: "no hay posición de stock para ese producto y bodega"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto o bodega no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "recurso de otra empresa"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente para la operación"})
	case errors.Is(err, domain.ErrConcurrentConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENT_CONFLICT", Message: "conflicto de concurrencia, reintentar la operación"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
