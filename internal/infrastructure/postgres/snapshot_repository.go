package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/inventory-ledger/internal/application/dto"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo persistencia de snapshots diarios. Un registro por empresa y
// fecha; recalcular el mismo día sobreescribe (upsert).
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository construye el adaptador de snapshots.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// Save inserta o reemplaza el snapshot de la empresa para la fecha de asOf.
// Los rankings se guardan como JSONB.
func (r *SnapshotRepo) Save(ctx context.Context, s *dto.DailySnapshotDTO) error {
	topJSON, err := json.Marshal(s.TopProducts)
	if err != nil {
		return fmt.Errorf("marshal top products: %w", err)
	}
	lowJSON, err := json.Marshal(s.LowStock)
	if err != nil {
		return fmt.Errorf("marshal low stock: %w", err)
	}

	query := `
		INSERT INTO daily_snapshots (id, company_id, snapshot_date, as_of,
			total_inventory_value, monthly_purchases, monthly_sales, units_sold_month,
			top_products, low_stock, created_at)
		VALUES ($1, $2, $3::date, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (company_id, snapshot_date)
		DO UPDATE SET as_of = EXCLUDED.as_of,
			total_inventory_value = EXCLUDED.total_inventory_value,
			monthly_purchases = EXCLUDED.monthly_purchases,
			monthly_sales = EXCLUDED.monthly_sales,
			units_sold_month = EXCLUDED.units_sold_month,
			top_products = EXCLUDED.top_products,
			low_stock = EXCLUDED.low_stock,
			created_at = now()`
	_, err = r.pool.Exec(ctx, query,
		uuid.New().String(), s.CompanyID, s.AsOf,
		s.TotalInventoryValue, s.MonthlyPurchases, s.MonthlySales, s.UnitsSoldThisMonth,
		topJSON, lowJSON,
	)
	if err != nil {
		return fmt.Errorf("save daily snapshot: %w", err)
	}
	return nil
}
