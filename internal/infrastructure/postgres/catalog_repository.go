package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo proyecciones read-only sobre las tablas del catálogo
// (products, warehouses, companies), propiedad del subsistema CRUD externo.
// El ledger solo lee lo necesario para validar pertenencia y valorizar.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository construye el adaptador de catálogo.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// GetProduct proyección de producto, o (nil, nil) si no existe.
func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*entity.ProductRef, error) {
	query := `
		SELECT id, company_id, sku, name, price
		FROM products WHERE id = $1`
	var p entity.ProductRef
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetWarehouse proyección de bodega, o (nil, nil) si no existe.
func (r *CatalogRepo) GetWarehouse(ctx context.Context, id string) (*entity.WarehouseRef, error) {
	query := `
		SELECT id, company_id, name
		FROM warehouses WHERE id = $1`
	var w entity.WarehouseRef
	err := r.pool.QueryRow(ctx, query, id).Scan(&w.ID, &w.CompanyID, &w.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// ListCompanyIDs ids de todas las empresas, para el fanout diario de snapshots.
func (r *CatalogRepo) ListCompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
