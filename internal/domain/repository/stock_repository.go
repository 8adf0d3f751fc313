package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// StockAlertItem fila de los reportes de stock bajo y agotado.
// En agotados sin bodega filtrada, WarehouseID vacío significa "sin registro en ninguna bodega".
type StockAlertItem struct {
	ProductID     string
	SKU           string
	ProductName   string
	Price         decimal.Decimal
	WarehouseID   string
	WarehouseName string
	Quantity      int
	HasRecord     bool
}

// StockRepository define el puerto para consultar/actualizar stock por bodega+producto.
// Las escrituras solo deben hacerse dentro de transacciones (TxRunner).
type StockRepository interface {
	// ListByProduct devuelve las filas de un producto; warehouseID vacío = todas las bodegas.
	ListByProduct(ctx context.Context, productID, warehouseID string) ([]*entity.Stock, error)
	// GetForUpdate bloquea la celda (SELECT FOR UPDATE). Si no existe la materializa con cantidad 0.
	GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	HasPositiveByWarehouse(ctx context.Context, warehouseID string) (bool, error)
	// DeleteEmptyByWarehouse elimina solo las filas con cantidad 0 de la bodega y devuelve sus productos.
	DeleteEmptyByWarehouse(ctx context.Context, warehouseID string) ([]string, error)

	// ListLowStock filas con 0 < cantidad <= threshold, ascendente por cantidad.
	ListLowStock(ctx context.Context, threshold int, warehouseID string) ([]StockAlertItem, error)
	// ListOutOfStock productos activos sin fila o con fila en 0.
	ListOutOfStock(ctx context.Context, warehouseID string) ([]StockAlertItem, error)
}
