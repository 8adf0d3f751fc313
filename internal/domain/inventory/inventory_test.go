package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
)

func TestMovementTypeFor(t *testing.T) {
	cases := []struct {
		name     string
		prev     int
		next     int
		expected string
	}{
		{"sube", 0, 10, entity.MovementTypeIN},
		{"baja", 10, 5, entity.MovementTypeOUT},
		{"a cero", 3, 0, entity.MovementTypeOUT},
		{"igual se clasifica OUT", 7, 7, entity.MovementTypeOUT},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, inventory.MovementTypeFor(tc.prev, tc.next))
		})
	}
}

func TestTransferDescriptions_CruzanReferencia(t *testing.T) {
	assert.Equal(t, "Transferencia a NORT-2610: reposición", inventory.TransferOutDescription("NORT-2610", " reposición "))
	assert.Equal(t, "Transferencia desde CENT-2610: "+inventory.DefaultTransferReason, inventory.TransferInDescription("CENT-2610", ""))
}

func TestWarehouseCodeBase(t *testing.T) {
	at := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "BODE-2610", inventory.WarehouseCodeBase("Bodega Bogotá", at))
	assert.Equal(t, "NINO-2610", inventory.WarehouseCodeBase("  Niño #1", at), "elimina tildes y símbolos")
	assert.Equal(t, "A1-2610", inventory.WarehouseCodeBase("a-1", at))
	assert.Equal(t, "BOD-2610", inventory.WarehouseCodeBase("¿¿??", at), "sin alfanuméricos usa el prefijo por defecto")
}

func TestWarehouseCodeCandidate(t *testing.T) {
	assert.Equal(t, "BODE-2610", inventory.WarehouseCodeCandidate("BODE-2610", 1))
	assert.Equal(t, "BODE-2610-3", inventory.WarehouseCodeCandidate("BODE-2610", 3))
}

func TestIsValidMovementType(t *testing.T) {
	assert.True(t, inventory.IsValidMovementType("IN"))
	assert.True(t, inventory.IsValidMovementType("OUT"))
	assert.False(t, inventory.IsValidMovementType("TRANSFER"))
}
