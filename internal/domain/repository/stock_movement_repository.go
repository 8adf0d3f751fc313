package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// MovementFilter filtros opcionales del historial; campos vacíos/nil no filtran.
type MovementFilter struct {
	ProductID   string
	WarehouseID string
	Type        string
	ActorID     string
	From        *time.Time
	To          *time.Time
}

// StockMovementRepository puerto del historial de movimientos (solo inserción y lectura).
type StockMovementRepository interface {
	// Create inserta el movimiento y asigna su ID.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// List devuelve la página pedida (más reciente primero) y el total sin paginar.
	List(ctx context.Context, filter MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error)
}
