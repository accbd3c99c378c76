package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/inventory-ledger/internal/domain"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
	"github.com/tu-usuario/inventory-ledger/pkg/logger"
)

// MovementEngine único componente autorizado a mutar la cantidad de una
// StockPosition y a anexar movimientos al ledger. Cada operación lógica
// (compra, venta, traslado) resuelve la(s) posición(es) bajo bloqueo de fila,
// valida contra la cantidad recién leída y escribe cantidad y movimiento(s)
// en la misma transacción. Operaciones sobre posiciones distintas avanzan en
// paralelo; sobre la misma posición, el bloqueo de fila las serializa en
// orden de llegada.
type MovementEngine struct {
	txRunner TxRunner
	catalog  repository.CatalogRepository
	audit    AuditEmitter
	cache    QueryCache
	log      *logger.Logger
}

// NewMovementEngine construye el motor. audit y cache son opcionales (nil los
// desactiva); catalog y txRunner son obligatorios.
func NewMovementEngine(
	txRunner TxRunner,
	catalog repository.CatalogRepository,
	audit AuditEmitter,
	cache QueryCache,
	log *logger.Logger,
) *MovementEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &MovementEngine{
		txRunner: txRunner,
		catalog:  catalog,
		audit:    audit,
		cache:    cache,
		log:      log,
	}
}

// PurchaseInput entrada de ApplyPurchase.
type PurchaseInput struct {
	CompanyID   string
	ActorID     string
	ProductID   string
	WarehouseID string
	Quantity    int64
	Note        string
}

// SaleInput entrada de ApplySale.
type SaleInput struct {
	CompanyID   string
	ActorID     string
	ProductID   string
	WarehouseID string
	Quantity    int64
	Note        string
}

// TransferInput entrada de ApplyTransfer.
type TransferInput struct {
	CompanyID       string
	ActorID         string
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        int64
	Note            string
}

// MovementResult resultado de una compra o venta confirmada.
type MovementResult struct {
	MovementID    string
	CorrelationID string
	NewQuantity   int64
}

// TransferResult resultado de un traslado confirmado: cantidades resultantes
// en ambas piernas.
type TransferResult struct {
	CorrelationID       string
	SourceQuantity      int64
	DestinationQuantity int64
}

// ApplyPurchase incrementa la posición en Quantity unidades y anexa un
// movimiento PURCHASE con delta positivo. Rechaza cantidades no positivas y
// posiciones inexistentes antes de escribir.
func (e *MovementEngine) ApplyPurchase(ctx context.Context, input PurchaseInput) (*MovementResult, error) {
	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := e.checkOwnership(ctx, input.CompanyID, input.ProductID, input.WarehouseID); err != nil {
		return nil, err
	}

	now := time.Now()
	correlationID := uuid.New().String()
	movementID := uuid.New().String()
	var newQuantity int64

	err := e.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		posRepo repository.StockPositionRepository,
	) error {
		pos, err := posRepo.GetForUpdate(ctx, input.ProductID, input.WarehouseID)
		if err != nil {
			return err
		}
		newQuantity = pos.Quantity + input.Quantity
		if err := posRepo.UpdateQuantity(ctx, input.ProductID, input.WarehouseID, newQuantity); err != nil {
			return err
		}
		return movRepo.Create(ctx, &entity.Movement{
			ID:              movementID,
			CorrelationID:   correlationID,
			CompanyID:       input.CompanyID,
			ProductID:       input.ProductID,
			WarehouseID:     input.WarehouseID,
			Kind:            entity.MovementKindPurchase,
			QuantityDelta:   input.Quantity,
			Note:            input.Note,
			ActorID:         input.ActorID,
			TransactionDate: now,
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	e.afterCommit(ctx, input.CompanyID, AuditEvent{
		ActorID:   input.ActorID,
		CompanyID: input.CompanyID,
		Action:    "ledger:purchase",
		Description: fmt.Sprintf("compra de %d unidades del producto %s en bodega %s",
			input.Quantity, input.ProductID, input.WarehouseID),
	})
	return &MovementResult{
		MovementID:    movementID,
		CorrelationID: correlationID,
		NewQuantity:   newQuantity,
	}, nil
}

// ApplySale decrementa la posición en Quantity unidades y anexa un movimiento
// SALE con delta negativo. Si la cantidad solicitada supera la disponible, la
// operación se rechaza con ErrInsufficientStock (nunca se recorta a cero),
// decidido contra la cantidad bloqueada, no contra una lectura vieja.
func (e *MovementEngine) ApplySale(ctx context.Context, input SaleInput) (*MovementResult, error) {
	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := e.checkOwnership(ctx, input.CompanyID, input.ProductID, input.WarehouseID); err != nil {
		return nil, err
	}

	now := time.Now()
	correlationID := uuid.New().String()
	movementID := uuid.New().String()
	var newQuantity int64

	err := e.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		posRepo repository.StockPositionRepository,
	) error {
		pos, err := posRepo.GetForUpdate(ctx, input.ProductID, input.WarehouseID)
		if err != nil {
			return err
		}
		if pos.Quantity < input.Quantity {
			return domain.ErrInsufficientStock
		}
		newQuantity = pos.Quantity - input.Quantity
		if err := posRepo.UpdateQuantity(ctx, input.ProductID, input.WarehouseID, newQuantity); err != nil {
			return err
		}
		return movRepo.Create(ctx, &entity.Movement{
			ID:              movementID,
			CorrelationID:   correlationID,
			CompanyID:       input.CompanyID,
			ProductID:       input.ProductID,
			WarehouseID:     input.WarehouseID,
			Kind:            entity.MovementKindSale,
			QuantityDelta:   -input.Quantity,
			Note:            input.Note,
			ActorID:         input.ActorID,
			TransactionDate: now,
			CreatedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	e.afterCommit(ctx, input.CompanyID, AuditEvent{
		ActorID:   input.ActorID,
		CompanyID: input.CompanyID,
		Action:    "ledger:sale",
		Description: fmt.Sprintf("venta de %d unidades del producto %s en bodega %s",
			input.Quantity, input.ProductID, input.WarehouseID),
	})
	return &MovementResult{
		MovementID:    movementID,
		CorrelationID: correlationID,
		NewQuantity:   newQuantity,
	}, nil
}

// ApplyTransfer mueve Quantity unidades de la bodega origen a la destino como
// una sola unidad atómica: ambas posiciones y ambas piernas del movimiento se
// confirman juntas o no se confirma nada. Un fallo a mitad de camino (por
// ejemplo, posición destino inexistente) deja la posición origen intacta.
func (e *MovementEngine) ApplyTransfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.FromWarehouseID == input.ToWarehouseID {
		return nil, domain.ErrSameWarehouseTransfer
	}
	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if err := e.checkOwnership(ctx, input.CompanyID, input.ProductID, input.FromWarehouseID); err != nil {
		return nil, err
	}
	if err := e.checkWarehouse(ctx, input.CompanyID, input.ToWarehouseID); err != nil {
		return nil, err
	}

	now := time.Now()
	correlationID := uuid.New().String()
	var sourceQty, destQty int64

	err := e.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		posRepo repository.StockPositionRepository,
	) error {
		// Bloqueo en orden determinista por id de bodega: dos traslados en
		// sentidos opuestos sobre las mismas bodegas no pueden interbloquearse.
		first, second := input.FromWarehouseID, input.ToWarehouseID
		if second < first {
			first, second = second, first
		}
		locked := map[string]*entity.StockPosition{}
		for _, warehouseID := range []string{first, second} {
			pos, err := posRepo.GetForUpdate(ctx, input.ProductID, warehouseID)
			if err != nil {
				return err
			}
			locked[warehouseID] = pos
		}

		origin := locked[input.FromWarehouseID]
		dest := locked[input.ToWarehouseID]
		if origin.Quantity < input.Quantity {
			return domain.ErrInsufficientStock
		}
		sourceQty = origin.Quantity - input.Quantity
		destQty = dest.Quantity + input.Quantity

		if err := posRepo.UpdateQuantity(ctx, input.ProductID, input.FromWarehouseID, sourceQty); err != nil {
			return err
		}
		if err := posRepo.UpdateQuantity(ctx, input.ProductID, input.ToWarehouseID, destQty); err != nil {
			return err
		}

		// Dos filas, una por pierna, unidas por CorrelationID y mismo timestamp.
		outLeg := &entity.Movement{
			ID:              uuid.New().String(),
			CorrelationID:   correlationID,
			CompanyID:       input.CompanyID,
			ProductID:       input.ProductID,
			WarehouseID:     input.FromWarehouseID,
			Kind:            entity.MovementKindTransfer,
			QuantityDelta:   -input.Quantity,
			FromWarehouseID: input.FromWarehouseID,
			ToWarehouseID:   input.ToWarehouseID,
			Note:            input.Note,
			ActorID:         input.ActorID,
			TransactionDate: now,
			CreatedAt:       now,
		}
		if err := movRepo.Create(ctx, outLeg); err != nil {
			return err
		}
		inLeg := &entity.Movement{
			ID:              uuid.New().String(),
			CorrelationID:   correlationID,
			CompanyID:       input.CompanyID,
			ProductID:       input.ProductID,
			WarehouseID:     input.ToWarehouseID,
			Kind:            entity.MovementKindTransfer,
			QuantityDelta:   input.Quantity,
			FromWarehouseID: input.FromWarehouseID,
			ToWarehouseID:   input.ToWarehouseID,
			Note:            input.Note,
			ActorID:         input.ActorID,
			TransactionDate: now,
			CreatedAt:       now,
		}
		return movRepo.Create(ctx, inLeg)
	})
	if err != nil {
		return nil, err
	}

	e.afterCommit(ctx, input.CompanyID, AuditEvent{
		ActorID:   input.ActorID,
		CompanyID: input.CompanyID,
		Action:    "ledger:transfer",
		Description: fmt.Sprintf("traslado de %d unidades del producto %s de bodega %s a bodega %s",
			input.Quantity, input.ProductID, input.FromWarehouseID, input.ToWarehouseID),
	})
	return &TransferResult{
		CorrelationID:       correlationID,
		SourceQuantity:      sourceQty,
		DestinationQuantity: destQty,
	}, nil
}

// checkOwnership valida que producto y bodega existan y pertenezcan a la
// empresa del caller. Se ejecuta antes de abrir la transacción.
func (e *MovementEngine) checkOwnership(ctx context.Context, companyID, productID, warehouseID string) error {
	product, err := e.catalog.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return e.checkWarehouse(ctx, companyID, warehouseID)
}

func (e *MovementEngine) checkWarehouse(ctx context.Context, companyID, warehouseID string) error {
	warehouse, err := e.catalog.GetWarehouse(ctx, warehouseID)
	if err != nil {
		return err
	}
	if warehouse == nil {
		return domain.ErrNotFound
	}
	if warehouse.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return nil
}

// afterCommit efectos posteriores al commit: invalidación del side-cache del
// tenant y emisión del evento de auditoría. Ningún fallo aquí revierte la
// mutación ya confirmada; se reporta como éxito degradado en warn.
func (e *MovementEngine) afterCommit(ctx context.Context, companyID string, event AuditEvent) {
	if e.cache != nil {
		if err := e.cache.InvalidateByPrefix(ctx, HistoryCachePrefix(companyID)); err != nil {
			e.log.Warn().Err(err).
				Str("company_id", companyID).
				Msg("no se pudo invalidar el side-cache del tenant")
		}
	}
	if e.audit != nil {
		if err := e.audit.Emit(ctx, event); err != nil {
			e.log.Warn().Err(err).
				Str("action", event.Action).
				Str("company_id", companyID).
				Msg("éxito degradado: el movimiento quedó confirmado sin evento de auditoría")
		}
	}
}
