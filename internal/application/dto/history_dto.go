package dto

import "time"

// MovementHistoryItem proyección de un movimiento para el historial.
// PreviousQuantity/NewQuantity se reconstruyen desde la cantidad actual de la
// posición y el delta del movimiento: es una conveniencia de presentación,
// no una nueva ruta de datos, y nunca muta estado.
type MovementHistoryItem struct {
	ID               string    `json:"id"`
	CorrelationID    string    `json:"correlation_id"`
	ProductID        string    `json:"product_id"`
	WarehouseID      string    `json:"warehouse_id"`
	Kind             string    `json:"kind"`
	QuantityDelta    int64     `json:"quantity_delta"`
	FromWarehouseID  string    `json:"from_warehouse_id,omitempty"`
	ToWarehouseID    string    `json:"to_warehouse_id,omitempty"`
	Note             string    `json:"note,omitempty"`
	ActorID          string    `json:"actor_id"`
	TransactionDate  time.Time `json:"transaction_date"`
	PreviousQuantity int64     `json:"previous_quantity"`
	NewQuantity      int64     `json:"new_quantity"`
}

// MovementHistoryPage página del historial de movimientos.
type MovementHistoryPage struct {
	Items    []MovementHistoryItem `json:"items"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Total    int                   `json:"total"`
}
