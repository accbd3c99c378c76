package entity

import "github.com/shopspring/decimal"

// Proyecciones read-only de las entidades del catálogo. El CRUD de productos,
// bodegas y empresas vive en otro subsistema; el ledger solo necesita el id,
// la pertenencia a la empresa y el precio para valorización. Nunca se embeben
// referencias cruzadas: la propiedad se modela por id.

// ProductRef proyección de producto para validación y valorización.
type ProductRef struct {
	ID        string
	CompanyID string
	SKU       string
	Name      string
	Price     decimal.Decimal // precio de venta usado en métricas
}

// WarehouseRef proyección de bodega para validación de pertenencia.
type WarehouseRef struct {
	ID        string
	CompanyID string
	Name      string
}
