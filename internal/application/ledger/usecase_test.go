package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
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
// Fakes: almacén en memoria con semántica transaccional
// ──────────────────────────────────────────────────────────────────────────────

type posKey struct{ productID, warehouseID string }

// fakeStore estado compartido entre transacciones. El mutex modela el bloqueo
// de fila: cada Run entra en exclusión, igual que FOR UPDATE serializa las
// operaciones sobre la misma posición.
type fakeStore struct {
	mu        sync.Mutex
	positions map[posKey]*entity.StockPosition
	movements []*entity.Movement
}

func newFakeStore() *fakeStore {
	return &fakeStore{positions: map[posKey]*entity.StockPosition{}}
}

func (s *fakeStore) setPosition(productID, warehouseID, companyID string, qty int64) {
	s.positions[posKey{productID, warehouseID}] = &entity.StockPosition{
		ProductID:   productID,
		WarehouseID: warehouseID,
		CompanyID:   companyID,
		Quantity:    qty,
	}
}

func (s *fakeStore) quantity(t *testing.T, productID, warehouseID string) int64 {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	pos, ok := s.positions[posKey{productID, warehouseID}]
	require.True(t, ok, "la posición %s/%s debe existir", productID, warehouseID)
	return pos.Quantity
}

func (s *fakeStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

// txState copia de trabajo de una transacción: los cambios solo se publican
// en el commit.
type txState struct {
	staged  map[posKey]entity.StockPosition
	created []*entity.Movement
}

type fakeTxRunner struct {
	store *fakeStore
}

func (r *fakeTxRunner) Run(_ context.Context, fn func(
	movRepo repository.MovementRepository,
	posRepo repository.StockPositionRepository,
) error) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txState{staged: make(map[posKey]entity.StockPosition, len(s.positions))}
	for k, v := range s.positions {
		tx.staged[k] = *v
	}
	if err := fn(&txMovementRepo{tx: tx}, &txPositionRepo{tx: tx}); err != nil {
		return err
	}
	// Commit
	for k, v := range tx.staged {
		committed := v
		s.positions[k] = &committed
	}
	s.movements = append(s.movements, tx.created...)
	return nil
}

type txMovementRepo struct{ tx *txState }

func (r *txMovementRepo) Create(_ context.Context, m *entity.Movement) error {
	copied := *m
	r.tx.created = append(r.tx.created, &copied)
	return nil
}

func (r *txMovementRepo) List(context.Context, repository.MovementFilter) ([]*entity.Movement, int, error) {
	return nil, 0, errors.New("no implementado en el fake transaccional")
}

type txPositionRepo struct{ tx *txState }

func (r *txPositionRepo) Get(_ context.Context, productID, warehouseID string) (*entity.StockPosition, error) {
	return r.GetForUpdate(context.Background(), productID, warehouseID)
}

func (r *txPositionRepo) GetForUpdate(_ context.Context, productID, warehouseID string) (*entity.StockPosition, error) {
	pos, ok := r.tx.staged[posKey{productID, warehouseID}]
	if !ok {
		return nil, domain.ErrPositionNotFound
	}
	copied := pos
	return &copied, nil
}

func (r *txPositionRepo) UpdateQuantity(_ context.Context, productID, warehouseID string, quantity int64) error {
	k := posKey{productID, warehouseID}
	pos, ok := r.tx.staged[k]
	if !ok {
		return domain.ErrPositionNotFound
	}
	pos.Quantity = quantity
	r.tx.staged[k] = pos
	return nil
}

type fakeCatalog struct {
	products   map[string]*entity.ProductRef
	warehouses map[string]*entity.WarehouseRef
}

func (c *fakeCatalog) GetProduct(_ context.Context, id string) (*entity.ProductRef, error) {
	return c.products[id], nil
}

func (c *fakeCatalog) GetWarehouse(_ context.Context, id string) (*entity.WarehouseRef, error) {
	return c.warehouses[id], nil
}

func (c *fakeCatalog) ListCompanyIDs(context.Context) ([]string, error) {
	return nil, nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []ledger.AuditEvent
	fail   bool
}

func (a *fakeAudit) Emit(_ context.Context, event ledger.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("almacén de auditoría caído")
	}
	a.events = append(a.events, event)
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *fakeCache) GetOrPopulate(ctx context.Context, _ string, dest any, loader func(ctx context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) InvalidateByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, prefix)
	return nil
}

func (c *fakeCache) invalidations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Montaje
// ──────────────────────────────────────────────────────────────────────────────

const (
	companyA = "11111111-1111-1111-1111-111111111111"
	companyB = "22222222-2222-2222-2222-222222222222"
	product1 = "aaaaaaaa-0000-0000-0000-000000000001"
	product2 = "aaaaaaaa-0000-0000-0000-000000000002"
	whMain   = "bbbbbbbb-0000-0000-0000-000000000001"
	whNorth  = "bbbbbbbb-0000-0000-0000-000000000002"
	whOther  = "bbbbbbbb-0000-0000-0000-000000000009"
	actor    = "cccccccc-0000-0000-0000-000000000001"
)

type engineFixture struct {
	engine  *ledger.MovementEngine
	store   *fakeStore
	audit   *fakeAudit
	cache   *fakeCache
	catalog *fakeCatalog
}

func newEngineFixture() *engineFixture {
	store := newFakeStore()
	catalog := &fakeCatalog{
		products: map[string]*entity.ProductRef{
			product1: {ID: product1, CompanyID: companyA, SKU: "SKU-001", Name: "Tornillo 3/8"},
			product2: {ID: product2, CompanyID: companyB, SKU: "SKU-777", Name: "Tuerca 1/2"},
		},
		warehouses: map[string]*entity.WarehouseRef{
			whMain:  {ID: whMain, CompanyID: companyA, Name: "Principal"},
			whNorth: {ID: whNorth, CompanyID: companyA, Name: "Norte"},
			whOther: {ID: whOther, CompanyID: companyB, Name: "Ajena"},
		},
	}
	auditFake := &fakeAudit{}
	cacheFake := &fakeCache{}
	engine := ledger.NewMovementEngine(&fakeTxRunner{store: store}, catalog, auditFake, cacheFake, nil)
	return &engineFixture{engine: engine, store: store, audit: auditFake, cache: cacheFake, catalog: catalog}
}

// ──────────────────────────────────────────────────────────────────────────────
// Compras
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyPurchase_CantidadNoPositiva(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 100)

	for _, qty := range []int64{0, -5} {
		_, err := f.engine.ApplyPurchase(context.Background(), ledger.PurchaseInput{
			CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: qty,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "cantidad %d debe rechazarse", qty)
	}
	assert.Equal(t, 0, f.store.movementCount(), "no debe anexarse ningún movimiento")
}

func TestApplyPurchase_PosicionInexistente(t *testing.T) {
	f := newEngineFixture()
	// Sin posición sembrada: el motor no asume cantidad cero.
	_, err := f.engine.ApplyPurchase(context.Background(), ledger.PurchaseInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: 10,
	})
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
	assert.Equal(t, 0, f.store.movementCount())
}

func TestApplyPurchase_IncrementaYAnexaMovimiento(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 100)

	result, err := f.engine.ApplyPurchase(context.Background(), ledger.PurchaseInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain,
		Quantity: 30, Note: "reposición semanal",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(130), result.NewQuantity)
	assert.NotEmpty(t, result.MovementID)
	assert.NotEmpty(t, result.CorrelationID)
	assert.Equal(t, int64(130), f.store.quantity(t, product1, whMain))

	require.Equal(t, 1, f.store.movementCount())
	m := f.store.movements[0]
	assert.Equal(t, entity.MovementKindPurchase, m.Kind)
	assert.Equal(t, int64(30), m.QuantityDelta, "el delta de una compra es positivo")
	assert.Equal(t, actor, m.ActorID)
	assert.Equal(t, "reposición semanal", m.Note)
}

func TestApplyPurchase_ProductoInexistente(t *testing.T) {
	f := newEngineFixture()
	_, err := f.engine.ApplyPurchase(context.Background(), ledger.PurchaseInput{
		CompanyID: companyA, ActorID: actor,
		ProductID: "dddddddd-0000-0000-0000-000000000000", WarehouseID: whMain, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

func TestApplySale_DecrementaYRechazaInsuficiente(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 100)

	// Venta válida: 100 - 30 = 70.
	result, err := f.engine.ApplySale(context.Background(), ledger.SaleInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(70), result.NewQuantity)

	// Venta de 80 con 70 disponibles: se rechaza entera, nunca se recorta.
	_, err = f.engine.ApplySale(context.Background(), ledger.SaleInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: 80,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(70), f.store.quantity(t, product1, whMain), "la posición no debe cambiar tras el rechazo")

	require.Equal(t, 1, f.store.movementCount(), "solo la venta confirmada queda en el ledger")
	assert.Equal(t, int64(-30), f.store.movements[0].QuantityDelta, "el delta de una venta es negativo")
	assert.Equal(t, entity.MovementKindSale, f.store.movements[0].Kind)
}

func TestApplySale_ProductoDeOtraEmpresa(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product2, whOther, companyB, 50)

	_, err := f.engine.ApplySale(context.Background(), ledger.SaleInput{
		CompanyID: companyA, ActorID: actor, ProductID: product2, WarehouseID: whOther, Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, int64(50), f.store.quantity(t, product2, whOther))
}

func TestApplySale_ConcurrenciaNoSobrevende(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 5)

	const sellers = 8
	errs := make(chan error, sellers)
	var wg sync.WaitGroup
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.ApplySale(context.Background(), ledger.SaleInput{
				CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: 1,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}
	assert.Equal(t, 5, ok, "deben confirmarse exactamente 5 ventas")
	assert.Equal(t, 3, insufficient, "las 3 restantes se rechazan por stock insuficiente")
	assert.Equal(t, int64(0), f.store.quantity(t, product1, whMain), "la posición nunca baja de cero")
	assert.Equal(t, 5, f.store.movementCount())
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyTransfer_ConservaElTotal(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 70)
	f.store.setPosition(product1, whNorth, companyA, 0)

	result, err := f.engine.ApplyTransfer(context.Background(), ledger.TransferInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1,
		FromWarehouseID: whMain, ToWarehouseID: whNorth, Quantity: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), result.SourceQuantity)
	assert.Equal(t, int64(50), result.DestinationQuantity)
	assert.Equal(t, int64(20), f.store.quantity(t, product1, whMain))
	assert.Equal(t, int64(50), f.store.quantity(t, product1, whNorth))

	require.Equal(t, 2, f.store.movementCount(), "un traslado anexa exactamente dos piernas")
	out, in := f.store.movements[0], f.store.movements[1]
	assert.Equal(t, out.CorrelationID, in.CorrelationID, "ambas piernas comparten correlación")
	assert.Equal(t, out.TransactionDate, in.TransactionDate, "ambas piernas comparten timestamp")
	assert.Equal(t, int64(-50), out.QuantityDelta)
	assert.Equal(t, int64(50), in.QuantityDelta)
	assert.Equal(t, int64(0), out.QuantityDelta+in.QuantityDelta, "el total entre bodegas se conserva")
	assert.Equal(t, whMain, out.WarehouseID)
	assert.Equal(t, whNorth, in.WarehouseID)
	assert.Equal(t, entity.MovementKindTransfer, out.Kind)
	assert.Equal(t, entity.MovementKindTransfer, in.Kind)
}

func TestApplyTransfer_MismaBodega(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 70)

	_, err := f.engine.ApplyTransfer(context.Background(), ledger.TransferInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1,
		FromWarehouseID: whMain, ToWarehouseID: whMain, Quantity: 10,
	})
	assert.ErrorIs(t, err, domain.ErrSameWarehouseTransfer)
}

func TestApplyTransfer_StockInsuficienteEnOrigen(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 10)
	f.store.setPosition(product1, whNorth, companyA, 0)

	_, err := f.engine.ApplyTransfer(context.Background(), ledger.TransferInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1,
		FromWarehouseID: whMain, ToWarehouseID: whNorth, Quantity: 11,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(10), f.store.quantity(t, product1, whMain))
	assert.Equal(t, int64(0), f.store.quantity(t, product1, whNorth))
}

func TestApplyTransfer_DestinoSinPosicion_EsAtomico(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 70)
	// Sin posición en whNorth: el fallo a mitad de la transacción no debe
	// dejar el decremento del origen aplicado.
	_, err := f.engine.ApplyTransfer(context.Background(), ledger.TransferInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1,
		FromWarehouseID: whMain, ToWarehouseID: whNorth, Quantity: 50,
	})
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
	assert.Equal(t, int64(70), f.store.quantity(t, product1, whMain), "el origen queda intacto")
	assert.Equal(t, 0, f.store.movementCount(), "no queda ninguna pierna huérfana")
}

// ──────────────────────────────────────────────────────────────────────────────
// Efectos post-commit: auditoría y cache
// ──────────────────────────────────────────────────────────────────────────────

func TestAuditoriaFallida_NoRevierteElMovimiento(t *testing.T) {
	f := newEngineFixture()
	f.audit.fail = true
	f.store.setPosition(product1, whMain, companyA, 100)

	result, err := f.engine.ApplySale(context.Background(), ledger.SaleInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: 30,
	})
	require.NoError(t, err, "el fallo de auditoría no debe propagar error")
	assert.Equal(t, int64(70), result.NewQuantity)
	assert.Equal(t, int64(70), f.store.quantity(t, product1, whMain))
	assert.Equal(t, 1, f.store.movementCount(), "el movimiento confirmado se conserva")
}

func TestAuditoria_EmiteConActorYAccion(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 100)

	_, err := f.engine.ApplyPurchase(context.Background(), ledger.PurchaseInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: 10,
	})
	require.NoError(t, err)

	require.Len(t, f.audit.events, 1)
	event := f.audit.events[0]
	assert.Equal(t, "ledger:purchase", event.Action)
	assert.Equal(t, actor, event.ActorID)
	assert.Equal(t, companyA, event.CompanyID)
}

func TestCache_SeInvalidaSoloTrasCommit(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 100)

	// Mutación confirmada: invalida el namespace del tenant.
	_, err := f.engine.ApplySale(context.Background(), ledger.SaleInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: 1,
	})
	require.NoError(t, err)
	require.Len(t, f.cache.invalidations(), 1)
	assert.Equal(t, ledger.HistoryCachePrefix(companyA), f.cache.invalidations()[0])

	// Mutación rechazada: el cache no se toca.
	_, err = f.engine.ApplySale(context.Background(), ledger.SaleInput{
		CompanyID: companyA, ActorID: actor, ProductID: product1, WarehouseID: whMain, Quantity: 1000,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Len(t, f.cache.invalidations(), 1, "sin commit no hay invalidación")
}

// Serializar dos traslados opuestos sobre las mismas bodegas no debe
// interbloquearse ni perder unidades.
func TestApplyTransfer_SentidosOpuestosConcurrentes(t *testing.T) {
	f := newEngineFixture()
	f.store.setPosition(product1, whMain, companyA, 40)
	f.store.setPosition(product1, whNorth, companyA, 40)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := whMain, whNorth
			if i%2 == 1 {
				from, to = whNorth, whMain
			}
			_, _ = f.engine.ApplyTransfer(context.Background(), ledger.TransferInput{
				CompanyID: companyA, ActorID: actor, ProductID: product1,
				FromWarehouseID: from, ToWarehouseID: to, Quantity: 3,
			})
		}(i)
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("posible interbloqueo: los traslados no terminaron")
	}

	total := f.store.quantity(t, product1, whMain) + f.store.quantity(t, product1, whNorth)
	assert.Equal(t, int64(80), total, "el total entre bodegas se conserva")
}
