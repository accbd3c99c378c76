package entity

import "time"

// StockPosition cantidad disponible de un producto en una bodega.
// La cantidad es entera (unidades) y nunca negativa: es la suma de todos los
// deltas de movimientos aplicados a la posición desde su creación. Solo el
// motor de movimientos la modifica, bajo bloqueo de fila (SELECT FOR UPDATE).
// La fila nunca se borra físicamente; Retired marca el retiro lógico cuando
// el producto o la bodega se dan de baja.
type StockPosition struct {
	ProductID   string
	WarehouseID string
	CompanyID   string
	Quantity    int64
	Retired     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
