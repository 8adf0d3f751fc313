package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeIN  = "IN"  // entrada
	MovementTypeOUT = "OUT" // salida
)

// StockMovement es una entrada inmutable del historial: un cambio sobre una celda del ledger.
// No tiene FK a la fila de stock; sobrevive a su eliminación.
type StockMovement struct {
	ID               int64
	ProductID        string
	WarehouseID      string
	PreviousQuantity int
	NewQuantity      int
	Type             string // IN, OUT
	Description      string
	CreatedBy        string // UserID del actor
	CreatedAt        time.Time
}

// Delta devuelve la variación aplicada (positiva en entradas).
func (m StockMovement) Delta() int {
	return m.NewQuantity - m.PreviousQuantity
}
