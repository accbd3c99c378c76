package repository

import (
	"context"

	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
)

// CatalogRepository puerto read-only hacia el colaborador de catálogo
// (precios e identidad). Productos, bodegas y empresas son propiedad del
// subsistema CRUD externo; el ledger solo los consulta.
type CatalogRepository interface {
	// GetProduct devuelve la proyección del producto o (nil, nil) si no existe.
	GetProduct(ctx context.Context, id string) (*entity.ProductRef, error)

	// GetWarehouse devuelve la proyección de la bodega o (nil, nil) si no existe.
	GetWarehouse(ctx context.Context, id string) (*entity.WarehouseRef, error)

	// ListCompanyIDs ids de todas las empresas activas (fanout de snapshots).
	ListCompanyIDs(ctx context.Context) ([]string, error)
}
