package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
)

// TopProductResult resultado crudo del ranking de productos por ventas.
type TopProductResult struct {
	ProductID string
	SKU       string
	Name      string
	UnitsSold int64
	Revenue   decimal.Decimal
}

// LowStockResult producto con stock sumado entre bodegas bajo el umbral.
type LowStockResult struct {
	ProductID     string
	SKU           string
	Name          string
	TotalQuantity int64
}

// ReportRepository consultas de solo lectura para el motor de agregación.
// Las implementaciones no modifican datos; dos llamadas contra el mismo
// snapshot del ledger devuelven resultados idénticos.
type ReportRepository interface {
	// GetInventoryValue valor total del inventario de la empresa:
	// Σ cantidad × precio de venta del producto, sobre posiciones activas.
	GetInventoryValue(ctx context.Context, companyID string) (decimal.Decimal, error)

	// GetMovementTotals unidades (valor absoluto de los deltas) y monto
	// (unidades × precio del producto) de los movimientos del tipo dado
	// en el rango de fechas.
	GetMovementTotals(
		ctx context.Context,
		companyID string,
		kind entity.MovementKind,
		from, to time.Time,
	) (units int64, amount decimal.Decimal, err error)

	// GetTopProducts los `limit` productos con mayor ingreso por ventas en el
	// período, orden descendente por ingreso con desempate estable por id.
	GetTopProducts(
		ctx context.Context,
		companyID string,
		from, to time.Time,
		limit int,
	) ([]TopProductResult, error)

	// GetLowStock productos cuya cantidad sumada entre bodegas queda por
	// debajo del umbral.
	GetLowStock(ctx context.Context, companyID string, threshold int64) ([]LowStockResult, error)
}
