package repository

import (
	"context"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si la bodega no existe.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	List(ctx context.Context, includeInactive bool, limit, offset int) ([]*entity.Warehouse, error)
	// LockPrimary serializa los cambios de bodega principal hasta el fin de la transacción.
	LockPrimary(ctx context.Context) error
	HasPrimary(ctx context.Context) (bool, error)
	ClearPrimary(ctx context.Context) error
	SetPrimary(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}
