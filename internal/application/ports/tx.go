package ports

import (
	"context"

	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

// TxRepos repositorios atados a la transacción en curso.
type TxRepos struct {
	Stock      repository.StockRepository
	Movements  repository.StockMovementRepository
	Warehouses repository.WarehouseRepository
	Products   repository.ProductRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD.
// Commit si fn devuelve nil; Rollback ante error o panic (el panic se re-lanza).
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
