package repository

import (
	"context"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// ProductRepository puerto de solo lectura sobre el catálogo. GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
