package repository

import (
	"context"

	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
)

// StockPositionRepository puerto de persistencia del estado de stock.
// GetForUpdate y UpdateQuantity solo tienen sentido dentro de la transacción
// que abre el TxRunner; el resto son lecturas sobre el pool.
type StockPositionRepository interface {
	// Get lectura sin bloqueo. Devuelve domain.ErrPositionNotFound si la
	// pareja (producto, bodega) no tiene posición establecida.
	Get(ctx context.Context, productID, warehouseID string) (*entity.StockPosition, error)

	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) y devuelve la cantidad
	// fresca contra la que se valida la operación. domain.ErrPositionNotFound
	// si no existe: el ledger no auto-crea posiciones.
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockPosition, error)

	// UpdateQuantity escribe la nueva cantidad de la posición ya bloqueada.
	UpdateQuantity(ctx context.Context, productID, warehouseID string, quantity int64) error
}
