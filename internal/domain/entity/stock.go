package entity

import "time"

// Stock representa la cantidad actual de un producto en una bodega (celda del ledger).
// Una pareja (producto, bodega) sin fila equivale a cantidad 0.
type Stock struct {
	ProductID   string
	WarehouseID string
	Quantity    int
	UpdatedAt   time.Time
}
