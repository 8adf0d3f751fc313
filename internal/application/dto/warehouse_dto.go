package dto

import "time"

// CreateWarehouseRequest entrada para crear una bodega. El código se genera a partir del nombre.
type CreateWarehouseRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Address   string `json:"address"`
	IsPrimary bool   `json:"is_primary"`
}

// UpdateWarehouseRequest entrada para actualizar una bodega. Código y principal no son editables.
type UpdateWarehouseRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Address *string `json:"address"`
}

// WarehouseListRequest filtros del listado.
type WarehouseListRequest struct {
	PageRequest
	IncludeInactive bool `query:"include_inactive"`
}

// WarehouseResponse salida de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	Address   string    `json:"address"`
	IsPrimary bool      `json:"is_primary"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseListResponse lista paginada de bodegas.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}
