package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tu-usuario/inventory-ledger/internal/domain/entity"
)

func TestMovementKind_Valid(t *testing.T) {
	assert.True(t, entity.MovementKindPurchase.Valid())
	assert.True(t, entity.MovementKindSale.Valid())
	assert.True(t, entity.MovementKindTransfer.Valid())

	assert.False(t, entity.MovementKind("").Valid())
	assert.False(t, entity.MovementKind("RETURN").Valid())
	assert.False(t, entity.MovementKind("purchase").Valid(), "el tipo es sensible a mayúsculas")
}
