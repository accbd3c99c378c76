package domain

import "errors"

// Errores de dominio del ledger (sin dependencias externas).
// Los handlers HTTP y los callers del motor deciden por sentinela (errors.Is).
var (
	ErrNotFound  = errors.New("recurso no encontrado")
	ErrForbidden = errors.New("acceso denegado")

	// Validación previa a cualquier escritura.
	ErrInvalidQuantity       = errors.New("cantidad inválida: debe ser mayor que cero")
	ErrSameWarehouseTransfer = errors.New("bodega origen y destino no pueden ser la misma")

	// Rechazos tras lectura consistente, antes de escribir.
	ErrPositionNotFound  = errors.New("posición de stock no encontrada para el producto en la bodega")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Fallos de la unidad de escritura.
	ErrConcurrentConflict = errors.New("conflicto concurrente sobre la posición; reintentar la operación completa")
	ErrPersistenceFailure = errors.New("fallo de persistencia: la unidad de trabajo no quedó registrada")

	// Consulta sin filas: fallo blando, distinguible de un error de consulta.
	ErrNoResultsForFilter = errors.New("sin resultados para el filtro aplicado")
)
