// Package audit adapta el colaborador de auditoría del motor de movimientos.
package audit

import (
	"context"

	"github.com/tu-usuario/inventory-ledger/internal/application/ledger"
	"github.com/tu-usuario/inventory-ledger/pkg/logger"
)

var _ ledger.AuditEmitter = (*LogEmitter)(nil)

// LogEmitter emisor de auditoría respaldado por el log estructurado. El
// almacén de auditoría real vive en otro subsistema; este adaptador deja el
// rastro con los campos del contrato (actor, empresa, acción, descripción).
type LogEmitter struct {
	log *logger.Logger
}

// NewLogEmitter construye el emisor. Un logger nil usa el logger nop.
func NewLogEmitter(log *logger.Logger) *LogEmitter {
	if log == nil {
		log = logger.Nop()
	}
	return &LogEmitter{log: log}
}

// Emit registra el evento de auditoría.
func (e *LogEmitter) Emit(_ context.Context, event ledger.AuditEvent) error {
	e.log.Info().
		Str("actor_id", event.ActorID).
		Str("company_id", event.CompanyID).
		Str("action", event.Action).
		Str("description", event.Description).
		Msg("evento de auditoría")
	return nil
}
