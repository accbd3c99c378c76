package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tu-usuario/inventory-ledger/internal/application/ledger"
	"github.com/tu-usuario/inventory-ledger/internal/domain"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

var _ ledger.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL. Es la
// unidad atómica del motor de movimientos: la(s) posición(es) y la(s)
// fila(s) del ledger se confirman juntas o se revierte todo.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. Una cancelación del ctx antes del commit revierte sin
// dejar escrituras parciales. Los errores de commit se traducen a
// ErrConcurrentConflict (reintentar) o ErrPersistenceFailure (fatal).
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	posRepo repository.StockPositionRepository,
) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapTxError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	movRepo := NewMovementRepository(tx)
	posRepo := NewStockPositionRepository(tx)

	if err := fn(movRepo, posRepo); err != nil {
		// Un deadlock o serialization failure dentro del callback también es
		// reintentable; los sentinelas del dominio pasan sin traducir.
		if isSerializationFailure(err) {
			return domain.ErrConcurrentConflict
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxError(err)
	}
	return nil
}
