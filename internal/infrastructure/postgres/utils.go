package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tu-usuario/inventory-ledger/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isSerializationFailure detecta conflictos de concurrencia del lado de la DB:
// serialization_failure (40001) y deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// mapTxError traduce errores de commit/escritura a los sentinelas del dominio:
// conflicto concurrente (reintenta el caller) o fallo de persistencia (fatal,
// sin estado parcial porque la transacción se revierte entera).
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	if isSerializationFailure(err) {
		return domain.ErrConcurrentConflict
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
}
