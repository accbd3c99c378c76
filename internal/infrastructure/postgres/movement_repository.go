package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación append-only del ledger sobre PostgreSQL
// (usable con pool o tx). No expone update ni delete: los movimientos son
// inmutables una vez escritos.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create anexa un movimiento al ledger.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO movements (id, correlation_id, company_id, product_id, warehouse_id, kind,
			quantity_delta, from_warehouse_id, to_warehouse_id, note, actor_id, transaction_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	fromWh := nullableString(m.FromWarehouseID)
	toWh := nullableString(m.ToWarehouseID)
	actor := nullableString(m.ActorID)
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CorrelationID, m.CompanyID, m.ProductID, m.WarehouseID, string(m.Kind),
		m.QuantityDelta, fromWh, toWh, m.Note, actor, m.TransactionDate, m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create movement %s: %w", m.ID, err)
		}
		return fmt.Errorf("create movement: %w", err)
	}
	return nil
}

// List devuelve la página filtrada (orden transaction_date descendente) y el
// total de filas que satisfacen el filtro. Dos consultas con el mismo WHERE.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	where := ` WHERE company_id = $1`
	args := []any{f.CompanyID}
	pos := 2
	if f.From != nil {
		where += fmt.Sprintf(" AND transaction_date >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND transaction_date <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	if f.ProductID != "" {
		where += fmt.Sprintf(" AND product_id = $%d", pos)
		args = append(args, f.ProductID)
		pos++
	}
	if f.FromWarehouseID != "" {
		where += fmt.Sprintf(" AND from_warehouse_id = $%d", pos)
		args = append(args, f.FromWarehouseID)
		pos++
	}
	if f.ToWarehouseID != "" {
		where += fmt.Sprintf(" AND to_warehouse_id = $%d", pos)
		args = append(args, f.ToWarehouseID)
		pos++
	}
	if f.Kind != "" {
		where += fmt.Sprintf(" AND kind = $%d", pos)
		args = append(args, string(f.Kind))
		pos++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM movements` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movements: %w", err)
	}

	query := `
		SELECT id, correlation_id, company_id, product_id, warehouse_id, kind,
			quantity_delta, from_warehouse_id, to_warehouse_id, note, actor_id, transaction_date, created_at
		FROM movements` + where +
		fmt.Sprintf(" ORDER BY transaction_date DESC, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		var kind string
		var fromWh, toWh, actor *string
		if err := rows.Scan(&m.ID, &m.CorrelationID, &m.CompanyID, &m.ProductID, &m.WarehouseID, &kind,
			&m.QuantityDelta, &fromWh, &toWh, &m.Note, &actor, &m.TransactionDate, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan movement: %w", err)
		}
		m.Kind = entity.MovementKind(kind)
		if fromWh != nil {
			m.FromWarehouseID = *fromWh
		}
		if toWh != nil {
			m.ToWarehouseID = *toWh
		}
		if actor != nil {
			m.ActorID = *actor
		}
		list = append(list, &m)
	}
	return list, total, rows.Err()
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
