package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

var _ repository.ReportRepository = (*ReportRepo)(nil)

// ReportRepo consultas de solo lectura para el motor de agregación.
// Todas usan COALESCE para devolver cero en períodos sin movimientos.
type ReportRepo struct {
	pool *pgxpool.Pool
}

// NewReportRepository construye el adaptador de reportes.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// GetInventoryValue valor total del inventario: Σ cantidad × precio de venta,
// sobre posiciones activas de la empresa.
func (r *ReportRepo) GetInventoryValue(ctx context.Context, companyID string) (decimal.Decimal, error) {
	const query = `
	SELECT COALESCE(SUM(sp.quantity * p.price), 0) AS total_value
	FROM stock_positions sp
	JOIN products p ON p.id = sp.product_id
	WHERE sp.company_id = $1
	  AND NOT sp.retired`

	var value decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, companyID).Scan(&value); err != nil {
		return decimal.Zero, fmt.Errorf("reports.GetInventoryValue: %w", err)
	}
	return value, nil
}

// GetMovementTotals unidades (|delta|) y monto (|delta| × precio) de los
// movimientos del tipo dado en el rango de fechas.
func (r *ReportRepo) GetMovementTotals(
	ctx context.Context,
	companyID string,
	kind entity.MovementKind,
	from, to time.Time,
) (int64, decimal.Decimal, error) {
	const query = `
	SELECT
	    COALESCE(SUM(ABS(m.quantity_delta)), 0)           AS units,
	    COALESCE(SUM(ABS(m.quantity_delta) * p.price), 0) AS amount
	FROM movements m
	JOIN products p ON p.id = m.product_id
	WHERE m.company_id = $1
	  AND m.kind = $2
	  AND m.transaction_date BETWEEN $3 AND $4`

	var units int64
	var amount decimal.Decimal
	err := r.pool.QueryRow(ctx, query, companyID, string(kind), from, to).Scan(&units, &amount)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("reports.GetMovementTotals: %w", err)
	}
	return units, amount, nil
}

// GetTopProducts ranking de productos por ingreso de ventas en el período.
// Orden descendente por ingreso, desempate estable por id de producto.
func (r *ReportRepo) GetTopProducts(
	ctx context.Context,
	companyID string,
	from, to time.Time,
	limit int,
) ([]repository.TopProductResult, error) {
	const query = `
	SELECT
	    p.id,
	    p.sku,
	    p.name,
	    COALESCE(SUM(ABS(m.quantity_delta)), 0)           AS units_sold,
	    COALESCE(SUM(ABS(m.quantity_delta) * p.price), 0) AS revenue
	FROM movements m
	JOIN products p ON p.id = m.product_id
	WHERE m.company_id = $1
	  AND m.kind = 'SALE'
	  AND m.transaction_date BETWEEN $2 AND $3
	GROUP BY p.id, p.sku, p.name
	ORDER BY revenue DESC, p.id ASC
	LIMIT $4`

	rows, err := r.pool.Query(ctx, query, companyID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("reports.GetTopProducts: %w", err)
	}
	defer rows.Close()

	var results []repository.TopProductResult
	for rows.Next() {
		var row repository.TopProductResult
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.UnitsSold, &row.Revenue); err != nil {
			return nil, fmt.Errorf("reports.GetTopProducts scan: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// GetLowStock productos con stock sumado entre bodegas bajo el umbral.
// Un producto con existencias en varias bodegas aparece una sola vez con la
// cantidad agregada.
func (r *ReportRepo) GetLowStock(ctx context.Context, companyID string, threshold int64) ([]repository.LowStockResult, error) {
	const query = `
	SELECT
	    p.id,
	    p.sku,
	    p.name,
	    COALESCE(SUM(sp.quantity), 0) AS total_quantity
	FROM stock_positions sp
	JOIN products p ON p.id = sp.product_id
	WHERE sp.company_id = $1
	  AND NOT sp.retired
	GROUP BY p.id, p.sku, p.name
	HAVING COALESCE(SUM(sp.quantity), 0) < $2
	ORDER BY total_quantity ASC, p.id ASC`

	rows, err := r.pool.Query(ctx, query, companyID, threshold)
	if err != nil {
		return nil, fmt.Errorf("reports.GetLowStock: %w", err)
	}
	defer rows.Close()

	var results []repository.LowStockResult
	for rows.Next() {
		var row repository.LowStockResult
		if err := rows.Scan(&row.ProductID, &row.SKU, &row.Name, &row.TotalQuantity); err != nil {
			return nil, fmt.Errorf("reports.GetLowStock scan: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
