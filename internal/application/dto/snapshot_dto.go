package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TopProductDTO un producto del ranking mensual de ventas.
type TopProductDTO struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// LowStockProductDTO producto bajo el umbral de stock (suma entre bodegas).
type LowStockProductDTO struct {
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	TotalQuantity int64  `json:"total_quantity"`
}

// DailySnapshotDTO paquete de métricas derivadas del ledger para una empresa
// en un punto del tiempo. Lo calcula el motor de agregación bajo demanda y lo
// persiste el worker diario; recalcular contra el mismo snapshot del ledger
// produce valores idénticos.
type DailySnapshotDTO struct {
	CompanyID string    `json:"company_id"`
	AsOf      time.Time `json:"as_of"`

	TotalInventoryValue decimal.Decimal `json:"total_inventory_value"`
	MonthlyPurchases    decimal.Decimal `json:"monthly_purchases"`
	MonthlySales        decimal.Decimal `json:"monthly_sales"`
	UnitsSoldThisMonth  int64           `json:"units_sold_this_month"`

	TopProducts []TopProductDTO      `json:"top_products"`
	LowStock    []LowStockProductDTO `json:"low_stock"`
}
