package ledger

import (
	"context"

	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es la frontera de atomicidad del motor: todo
// lo que ocurre dentro de fn se confirma o se revierte como una sola unidad.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		posRepo repository.StockPositionRepository,
	) error) error
}

// AuditEvent evento que el motor emite al colaborador de auditoría después de
// cada mutación confirmada. El ledger no es dueño del almacén de auditoría.
type AuditEvent struct {
	ActorID     string
	CompanyID   string
	Action      string
	Description string
}

// AuditEmitter colaborador de auditoría. Se invoca únicamente después del
// commit; un fallo de emisión degrada (se loguea en warn) pero nunca revierte
// la mutación ya confirmada.
type AuditEmitter interface {
	Emit(ctx context.Context, event AuditEvent) error
}

// QueryCache side-cache de consultas con claves deterministas por tenant.
// Contrato de invalidación: toda mutación confirmada sobre una posición debe
// invalidar las entradas cuyo prefijo es el namespace del tenant.
type QueryCache interface {
	// GetOrPopulate intenta el cache; en miss ejecuta loader, guarda el
	// resultado serializado y lo decodifica en dest.
	GetOrPopulate(ctx context.Context, key string, dest any, loader func(ctx context.Context) (any, error)) error

	// InvalidateByPrefix elimina todas las entradas cuya clave comienza por prefix.
	InvalidateByPrefix(ctx context.Context, prefix string) error
}
