package repository

import (
	"context"

	"github.com/tu-usuario/inventory-ledger/internal/application/dto"
)

// SnapshotRepository persistencia de los snapshots diarios calculados por el
// motor de agregación. Un snapshot por empresa y fecha; recalcular el mismo
// día sobreescribe el anterior.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *dto.DailySnapshotDTO) error
}
