package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tu-usuario/inventory-ledger/internal/application/dto"
	"github.com/tu-usuario/inventory-ledger/internal/domain"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

// HistoryUseCase lectura paginada del ledger de movimientos con filtros por
// empresa, rango de fechas, producto, bodega origen/destino y tipo. Nunca
// muta estado; los resultados pasan por el side-cache del tenant cuando hay
// uno configurado.
type HistoryUseCase struct {
	movRepo repository.MovementRepository
	posRepo repository.StockPositionRepository
	cache   QueryCache
}

// NewHistoryUseCase construye el caso de uso. cache puede ser nil.
func NewHistoryUseCase(
	movRepo repository.MovementRepository,
	posRepo repository.StockPositionRepository,
	cache QueryCache,
) *HistoryUseCase {
	return &HistoryUseCase{movRepo: movRepo, posRepo: posRepo, cache: cache}
}

// ListMovements devuelve la página filtrada del historial. Un resultado vacío
// es ErrNoResultsForFilter (fallo blando que el caller distingue de un error
// de consulta), no un éxito con cero filas.
func (uc *HistoryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) (*dto.MovementHistoryPage, error) {
	if filter.CompanyID == "" {
		return nil, domain.ErrForbidden
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrNoResultsForFilter, filter.Kind)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}

	if uc.cache == nil {
		return uc.loadPage(ctx, filter)
	}

	var page dto.MovementHistoryPage
	key := HistoryCacheKey(filter)
	err := uc.cache.GetOrPopulate(ctx, key, &page, func(ctx context.Context) (any, error) {
		loaded, err := uc.loadPage(ctx, filter)
		if err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// loadPage consulta el ledger y reconstruye el antes/después de cada fila a
// partir de la cantidad actual de la posición afectada y el delta del
// movimiento (conveniencia de presentación por tipo: compra, venta o pierna
// de traslado).
func (uc *HistoryUseCase) loadPage(ctx context.Context, filter repository.MovementFilter) (*dto.MovementHistoryPage, error) {
	movements, total, err := uc.movRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(movements) == 0 {
		return nil, domain.ErrNoResultsForFilter
	}

	// Cantidades actuales por posición, una sola lectura por pareja.
	type posKey struct{ productID, warehouseID string }
	current := map[posKey]int64{}
	for _, m := range movements {
		k := posKey{m.ProductID, m.WarehouseID}
		if _, ok := current[k]; ok {
			continue
		}
		pos, err := uc.posRepo.Get(ctx, m.ProductID, m.WarehouseID)
		if err != nil {
			return nil, err
		}
		current[k] = pos.Quantity
	}

	items := make([]dto.MovementHistoryItem, 0, len(movements))
	for _, m := range movements {
		qty := current[posKey{m.ProductID, m.WarehouseID}]
		items = append(items, dto.MovementHistoryItem{
			ID:               m.ID,
			CorrelationID:    m.CorrelationID,
			ProductID:        m.ProductID,
			WarehouseID:      m.WarehouseID,
			Kind:             string(m.Kind),
			QuantityDelta:    m.QuantityDelta,
			FromWarehouseID:  m.FromWarehouseID,
			ToWarehouseID:    m.ToWarehouseID,
			Note:             m.Note,
			ActorID:          m.ActorID,
			TransactionDate:  m.TransactionDate,
			PreviousQuantity: qty - m.QuantityDelta,
			NewQuantity:      qty,
		})
	}

	return &dto.MovementHistoryPage{
		Items:    items,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Total:    total,
	}, nil
}

// HistoryCachePrefix namespace del side-cache de un tenant. Toda mutación
// confirmada invalida las entradas bajo este prefijo.
func HistoryCachePrefix(companyID string) string {
	return "ledger:history:" + companyID + ":"
}

// HistoryCacheKey clave determinista derivada de los parámetros del filtro.
// Mismos parámetros, misma clave.
func HistoryCacheKey(filter repository.MovementFilter) string {
	parts := []string{
		formatDate(filter.From),
		formatDate(filter.To),
		orDash(filter.ProductID),
		orDash(filter.FromWarehouseID),
		orDash(filter.ToWarehouseID),
		orDash(string(filter.Kind)),
		fmt.Sprintf("p%d", filter.Page),
		fmt.Sprintf("s%d", filter.PageSize),
	}
	return HistoryCachePrefix(filter.CompanyID) + strings.Join(parts, ":")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// KindFromString convierte el parámetro de query en MovementKind, aceptando
// minúsculas. Cadena vacía significa "todos los tipos".
func KindFromString(s string) entity.MovementKind {
	return entity.MovementKind(strings.ToUpper(strings.TrimSpace(s)))
}
