package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/inventory-ledger/internal/domain"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

var _ repository.StockPositionRepository = (*StockPositionRepo)(nil)

// StockPositionRepo implementación de StockPositionRepository sobre
// PostgreSQL (usable con pool o tx).
type StockPositionRepo struct {
	q Querier
}

// NewStockPositionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockPositionRepository(q Querier) *StockPositionRepo {
	return &StockPositionRepo{q: q}
}

const stockPositionColumns = `product_id, warehouse_id, company_id, quantity, retired, created_at, updated_at`

// Get obtiene la posición sin bloquear. Una pareja (producto, bodega) sin
// posición establecida es ErrPositionNotFound: el ledger no asume cero.
func (r *StockPositionRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.StockPosition, error) {
	query := `
		SELECT ` + stockPositionColumns + `
		FROM stock_positions WHERE product_id = $1 AND warehouse_id = $2`
	return r.scanOne(ctx, query, productID, warehouseID)
}

// GetForUpdate obtiene la posición y bloquea la fila (SELECT FOR UPDATE),
// serializando en orden de llegada las operaciones concurrentes sobre la
// misma posición.
func (r *StockPositionRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockPosition, error) {
	query := `
		SELECT ` + stockPositionColumns + `
		FROM stock_positions WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`
	return r.scanOne(ctx, query, productID, warehouseID)
}

func (r *StockPositionRepo) scanOne(ctx context.Context, query, productID, warehouseID string) (*entity.StockPosition, error) {
	var p entity.StockPosition
	err := r.q.QueryRow(ctx, query, productID, warehouseID).Scan(
		&p.ProductID, &p.WarehouseID, &p.CompanyID, &p.Quantity, &p.Retired, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPositionNotFound
		}
		return nil, fmt.Errorf("get stock position: %w", err)
	}
	return &p, nil
}

// UpdateQuantity escribe la nueva cantidad de una posición ya bloqueada.
// El CHECK (quantity >= 0) de la tabla es la última línea de defensa del
// invariante de no-negatividad; el motor valida antes.
func (r *StockPositionRepo) UpdateQuantity(ctx context.Context, productID, warehouseID string, quantity int64) error {
	query := `
		UPDATE stock_positions SET quantity = $3, updated_at = now()
		WHERE product_id = $1 AND warehouse_id = $2`
	tag, err := r.q.Exec(ctx, query, productID, warehouseID, quantity)
	if err != nil {
		return fmt.Errorf("update stock position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPositionNotFound
	}
	return nil
}
