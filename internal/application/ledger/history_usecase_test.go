package ledger_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/inventory-ledger/internal/application/ledger"
	"github.com/tu-usuario/inventory-ledger/internal/domain"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes de lectura
// ──────────────────────────────────────────────────────────────────────────────

// listMovRepo devuelve una página fija y captura el filtro recibido.
type listMovRepo struct {
	movements  []*entity.Movement
	total      int
	lastFilter repository.MovementFilter
	calls      int
}

func (r *listMovRepo) Create(context.Context, *entity.Movement) error { return nil }

func (r *listMovRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, int, error) {
	r.lastFilter = f
	r.calls++
	return r.movements, r.total, nil
}

// mapPosRepo posiciones de solo lectura por pareja producto/bodega.
type mapPosRepo struct {
	quantities map[posKey]int64
	reads      int
}

func (r *mapPosRepo) Get(_ context.Context, productID, warehouseID string) (*entity.StockPosition, error) {
	r.reads++
	qty, ok := r.quantities[posKey{productID, warehouseID}]
	if !ok {
		return nil, domain.ErrPositionNotFound
	}
	return &entity.StockPosition{ProductID: productID, WarehouseID: warehouseID, Quantity: qty}, nil
}

func (r *mapPosRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.StockPosition, error) {
	return r.Get(ctx, productID, warehouseID)
}

func (r *mapPosRepo) UpdateQuantity(context.Context, string, string, int64) error { return nil }

// memoCache side-cache en memoria que sí almacena, para verificar hits.
type memoCache struct {
	entries map[string][]byte
}

func newMemoCache() *memoCache { return &memoCache{entries: map[string][]byte{}} }

func (c *memoCache) GetOrPopulate(ctx context.Context, key string, dest any, loader func(ctx context.Context) (any, error)) error {
	if raw, ok := c.entries[key]; ok {
		return json.Unmarshal(raw, dest)
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return json.Unmarshal(raw, dest)
}

func (c *memoCache) InvalidateByPrefix(_ context.Context, prefix string) error {
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func saleMovement(id string, delta int64, date time.Time) *entity.Movement {
	return &entity.Movement{
		ID:              id,
		CorrelationID:   "corr-" + id,
		CompanyID:       companyA,
		ProductID:       product1,
		WarehouseID:     whMain,
		Kind:            entity.MovementKindSale,
		QuantityDelta:   delta,
		TransactionDate: date,
	}
}

func TestListMovements_ReconstruyeAntesYDespues(t *testing.T) {
	now := time.Now()
	movRepo := &listMovRepo{
		movements: []*entity.Movement{saleMovement("m1", -30, now)},
		total:     1,
	}
	posRepo := &mapPosRepo{quantities: map[posKey]int64{{product1, whMain}: 70}}
	uc := ledger.NewHistoryUseCase(movRepo, posRepo, nil)

	page, err := uc.ListMovements(context.Background(), repository.MovementFilter{CompanyID: companyA})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	item := page.Items[0]
	assert.Equal(t, int64(100), item.PreviousQuantity, "antes = cantidad actual - delta")
	assert.Equal(t, int64(70), item.NewQuantity, "después = cantidad actual")
	assert.Equal(t, int64(-30), item.QuantityDelta)
	assert.Equal(t, 1, page.Total)
}

func TestListMovements_UnaLecturaPorPosicion(t *testing.T) {
	now := time.Now()
	movRepo := &listMovRepo{
		movements: []*entity.Movement{
			saleMovement("m1", -10, now),
			saleMovement("m2", -5, now.Add(-time.Hour)),
			saleMovement("m3", -3, now.Add(-2*time.Hour)),
		},
		total: 3,
	}
	posRepo := &mapPosRepo{quantities: map[posKey]int64{{product1, whMain}: 82}}
	uc := ledger.NewHistoryUseCase(movRepo, posRepo, nil)

	page, err := uc.ListMovements(context.Background(), repository.MovementFilter{CompanyID: companyA})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 1, posRepo.reads, "tres movimientos de la misma posición, una sola lectura")
}

func TestListMovements_SinEmpresaEsForbidden(t *testing.T) {
	uc := ledger.NewHistoryUseCase(&listMovRepo{}, &mapPosRepo{}, nil)
	_, err := uc.ListMovements(context.Background(), repository.MovementFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestListMovements_FiltroSinResultados(t *testing.T) {
	uc := ledger.NewHistoryUseCase(&listMovRepo{movements: nil, total: 0}, &mapPosRepo{}, nil)
	_, err := uc.ListMovements(context.Background(), repository.MovementFilter{CompanyID: companyA})
	assert.ErrorIs(t, err, domain.ErrNoResultsForFilter, "cero filas es fallo blando, no éxito vacío")
}

func TestListMovements_KindDesconocido(t *testing.T) {
	uc := ledger.NewHistoryUseCase(&listMovRepo{}, &mapPosRepo{}, nil)
	_, err := uc.ListMovements(context.Background(), repository.MovementFilter{
		CompanyID: companyA,
		Kind:      ledger.KindFromString("devolucion"),
	})
	assert.ErrorIs(t, err, domain.ErrNoResultsForFilter)
}

func TestListMovements_AplicaDefaultsDePaginacion(t *testing.T) {
	now := time.Now()
	movRepo := &listMovRepo{movements: []*entity.Movement{saleMovement("m1", -1, now)}, total: 1}
	posRepo := &mapPosRepo{quantities: map[posKey]int64{{product1, whMain}: 5}}
	uc := ledger.NewHistoryUseCase(movRepo, posRepo, nil)

	_, err := uc.ListMovements(context.Background(), repository.MovementFilter{
		CompanyID: companyA, Page: 0, PageSize: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, movRepo.lastFilter.Page)
	assert.Equal(t, 20, movRepo.lastFilter.PageSize)

	_, err = uc.ListMovements(context.Background(), repository.MovementFilter{
		CompanyID: companyA, Page: 2, PageSize: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, movRepo.lastFilter.Page)
	assert.Equal(t, 100, movRepo.lastFilter.PageSize, "el tamaño de página se acota a 100")
}

func TestListMovements_SegundaConsultaSaleDelCache(t *testing.T) {
	now := time.Now()
	movRepo := &listMovRepo{movements: []*entity.Movement{saleMovement("m1", -30, now)}, total: 1}
	posRepo := &mapPosRepo{quantities: map[posKey]int64{{product1, whMain}: 70}}
	cache := newMemoCache()
	uc := ledger.NewHistoryUseCase(movRepo, posRepo, cache)

	filter := repository.MovementFilter{CompanyID: companyA, Page: 1, PageSize: 20}

	first, err := uc.ListMovements(context.Background(), filter)
	require.NoError(t, err)
	second, err := uc.ListMovements(context.Background(), filter)
	require.NoError(t, err)

	assert.Equal(t, 1, movRepo.calls, "la segunda consulta no debe tocar el repositorio")
	assert.Equal(t, first.Items[0].ID, second.Items[0].ID)
	assert.Equal(t, first.Items[0].PreviousQuantity, second.Items[0].PreviousQuantity)
}

func TestHistoryCacheKey_EsDeterminista(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	filter := repository.MovementFilter{
		CompanyID: companyA,
		From:      &from,
		ProductID: product1,
		Kind:      entity.MovementKindSale,
		Page:      2,
		PageSize:  50,
	}
	again := filter
	assert.Equal(t, ledger.HistoryCacheKey(filter), ledger.HistoryCacheKey(again))
	assert.Contains(t, ledger.HistoryCacheKey(filter), ledger.HistoryCachePrefix(companyA),
		"la clave vive bajo el namespace del tenant para poder invalidarse por prefijo")

	other := filter
	other.Page = 3
	assert.NotEqual(t, ledger.HistoryCacheKey(filter), ledger.HistoryCacheKey(other))
}
