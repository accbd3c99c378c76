package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
)

// MovementFilter filtro de consulta del historial de movimientos.
// Page es 1-indexed; los campos opcionales vacíos no filtran.
type MovementFilter struct {
	CompanyID       string
	From            *time.Time
	To              *time.Time
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Kind            entity.MovementKind
	Page            int
	PageSize        int
}

// MovementRepository puerto de persistencia del ledger de movimientos.
// El ledger es append-only: no existen operaciones de update ni delete.
type MovementRepository interface {
	// Create anexa un movimiento. Asigna ID si viene vacío.
	Create(ctx context.Context, movement *entity.Movement) error

	// List devuelve la página filtrada (orden: transaction_date descendente)
	// y el total de filas que satisfacen el filtro.
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, int, error)
}
