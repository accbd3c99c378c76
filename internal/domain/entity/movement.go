package entity

import "time"

// MovementKind variante cerrada del tipo de movimiento. Añadir un nuevo tipo
// exige tocar Valid() y los switch exhaustivos del motor.
type MovementKind string

const (
	MovementKindPurchase MovementKind = "PURCHASE" // compra: delta positivo
	MovementKindSale     MovementKind = "SALE"     // venta: delta negativo
	MovementKindTransfer MovementKind = "TRANSFER" // traslado: dos filas, una por pierna
)

// Valid indica si el tipo es uno de los soportados.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementKindPurchase, MovementKindSale, MovementKindTransfer:
		return true
	}
	return false
}

// Movement entrada inmutable del ledger: un delta firmado aplicado a una
// posición de stock. Se crea exactamente una vez por el motor de movimientos
// y nunca se actualiza ni se borra; las correcciones se modelan como nuevos
// movimientos de signo opuesto.
//
// Un traslado produce exactamente dos Movement (pierna origen con delta
// negativo y pierna destino con delta positivo) que comparten CorrelationID,
// actor y timestamp.
type Movement struct {
	ID              string
	CorrelationID   string
	CompanyID       string
	ProductID       string
	WarehouseID     string // bodega cuya posición afecta este delta
	Kind            MovementKind
	QuantityDelta   int64 // positivo entrada, negativo salida
	FromWarehouseID string // solo traslados
	ToWarehouseID   string // solo traslados
	Note            string
	ActorID         string
	TransactionDate time.Time
	CreatedAt       time.Time
}
