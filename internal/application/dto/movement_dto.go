package dto

// PurchaseRequest body para POST /api/ledger/purchases.
type PurchaseRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid4"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid4"`
	Quantity    int64  `json:"quantity" validate:"required"`
	Note        string `json:"note,omitempty" validate:"max=500"`
}

// SaleRequest body para POST /api/ledger/sales.
type SaleRequest struct {
	ProductID   string `json:"product_id" validate:"required,uuid4"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid4"`
	Quantity    int64  `json:"quantity" validate:"required"`
	Note        string `json:"note,omitempty" validate:"max=500"`
}

// TransferRequest body para POST /api/ledger/transfers.
type TransferRequest struct {
	ProductID       string `json:"product_id" validate:"required,uuid4"`
	FromWarehouseID string `json:"from_warehouse_id" validate:"required,uuid4"`
	ToWarehouseID   string `json:"to_warehouse_id" validate:"required,uuid4"`
	Quantity        int64  `json:"quantity" validate:"required"`
	Note            string `json:"note,omitempty" validate:"max=500"`
}

// MovementResponse respuesta de compra o venta aplicada.
type MovementResponse struct {
	MovementID    string `json:"movement_id"`
	CorrelationID string `json:"correlation_id"`
	ProductID     string `json:"product_id"`
	WarehouseID   string `json:"warehouse_id"`
	NewQuantity   int64  `json:"new_quantity"`
}

// TransferResponse respuesta de traslado aplicado: cantidad resultante en
// ambas piernas más el id de correlación que las une.
type TransferResponse struct {
	CorrelationID       string `json:"correlation_id"`
	ProductID           string `json:"product_id"`
	FromWarehouseID     string `json:"from_warehouse_id"`
	ToWarehouseID       string `json:"to_warehouse_id"`
	SourceQuantity      int64  `json:"source_quantity"`
	DestinationQuantity int64  `json:"destination_quantity"`
}
