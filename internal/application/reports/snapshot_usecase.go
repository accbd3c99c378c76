// Package reports contiene el motor de agregación: métricas de negocio
// derivadas del ledger de movimientos y del estado de stock. Todas las
// funciones son de solo lectura e idempotentes sobre un mismo snapshot.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/inventory-ledger/internal/application/dto"
	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
)

const (
	topProductsLimit         = 5  // productos en el ranking mensual de ventas
	defaultLowStockThreshold = 10 // unidades sumadas entre bodegas
)

// SnapshotUseCase calcula el paquete de métricas diarias de una empresa.
// Lo invoca el scheduler externo una vez por tenant al día; el motor no
// programa nada por sí mismo, solo computa para una empresa y un "ahora".
type SnapshotUseCase struct {
	reportRepo repository.ReportRepository
	threshold  int64
}

// NewSnapshotUseCase construye el caso de uso. threshold <= 0 usa el umbral
// por defecto de bajo stock.
func NewSnapshotUseCase(reportRepo repository.ReportRepository, threshold int64) *SnapshotUseCase {
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	return &SnapshotUseCase{reportRepo: reportRepo, threshold: threshold}
}

// ComputeDailySnapshot computa las métricas de la empresa al instante asOf.
// El mes en curso es el mes calendario que contiene asOf (día 1 a las 00:00
// hasta asOf).
//
// Cinco consultas en paralelo, todas read-only:
//  1. Valor total del inventario (Σ cantidad × precio)
//  2. Compras del mes (|deltas| de PURCHASE × precio)
//  3. Ventas del mes (|deltas| de SALE × precio) + unidades vendidas
//  4. Top-5 productos por ingreso de ventas (desempate estable por id)
//  5. Lista de bajo stock (suma entre bodegas bajo el umbral)
func (uc *SnapshotUseCase) ComputeDailySnapshot(
	ctx context.Context,
	companyID string,
	asOf time.Time,
) (*dto.DailySnapshotDTO, error) {
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	monthEnd := asOf

	type valueResult struct {
		value decimal.Decimal
		err   error
	}
	type totalsResult struct {
		units  int64
		amount decimal.Decimal
		err    error
	}
	type topResult struct {
		products []repository.TopProductResult
		err      error
	}
	type lowResult struct {
		products []repository.LowStockResult
		err      error
	}

	valueCh := make(chan valueResult, 1)
	purchasesCh := make(chan totalsResult, 1)
	salesCh := make(chan totalsResult, 1)
	topCh := make(chan topResult, 1)
	lowCh := make(chan lowResult, 1)

	go func() {
		v, err := uc.reportRepo.GetInventoryValue(ctx, companyID)
		valueCh <- valueResult{v, err}
	}()
	go func() {
		units, amount, err := uc.reportRepo.GetMovementTotals(ctx, companyID, entity.MovementKindPurchase, monthStart, monthEnd)
		purchasesCh <- totalsResult{units, amount, err}
	}()
	go func() {
		units, amount, err := uc.reportRepo.GetMovementTotals(ctx, companyID, entity.MovementKindSale, monthStart, monthEnd)
		salesCh <- totalsResult{units, amount, err}
	}()
	go func() {
		products, err := uc.reportRepo.GetTopProducts(ctx, companyID, monthStart, monthEnd, topProductsLimit)
		topCh <- topResult{products, err}
	}()
	go func() {
		products, err := uc.reportRepo.GetLowStock(ctx, companyID, uc.threshold)
		lowCh <- lowResult{products, err}
	}()

	value := <-valueCh
	purchases := <-purchasesCh
	sales := <-salesCh
	top := <-topCh
	low := <-lowCh

	if value.err != nil {
		return nil, fmt.Errorf("snapshot: valor de inventario: %w", value.err)
	}
	if purchases.err != nil {
		return nil, fmt.Errorf("snapshot: compras del mes: %w", purchases.err)
	}
	if sales.err != nil {
		return nil, fmt.Errorf("snapshot: ventas del mes: %w", sales.err)
	}
	if top.err != nil {
		return nil, fmt.Errorf("snapshot: top productos: %w", top.err)
	}
	if low.err != nil {
		return nil, fmt.Errorf("snapshot: bajo stock: %w", low.err)
	}

	topProducts := make([]dto.TopProductDTO, 0, len(top.products))
	for _, p := range top.products {
		topProducts = append(topProducts, dto.TopProductDTO{
			ProductID: p.ProductID,
			SKU:       p.SKU,
			Name:      p.Name,
			UnitsSold: p.UnitsSold,
			Revenue:   p.Revenue.Round(2),
		})
	}
	lowStock := make([]dto.LowStockProductDTO, 0, len(low.products))
	for _, p := range low.products {
		lowStock = append(lowStock, dto.LowStockProductDTO{
			ProductID:     p.ProductID,
			SKU:           p.SKU,
			Name:          p.Name,
			TotalQuantity: p.TotalQuantity,
		})
	}

	return &dto.DailySnapshotDTO{
		CompanyID:           companyID,
		AsOf:                asOf,
		TotalInventoryValue: value.value.Round(2),
		MonthlyPurchases:    purchases.amount.Round(2),
		MonthlySales:        sales.amount.Round(2),
		UnitsSoldThisMonth:  sales.units,
		TopProducts:         topProducts,
		LowStock:            lowStock,
	}, nil
}
