package entity

import "time"

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
// Code es único; a lo sumo una bodega tiene IsPrimary = true.
type Warehouse struct {
	ID        string
	Name      string
	Code      string
	Address   string
	IsPrimary bool
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
