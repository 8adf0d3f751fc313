package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// ListByProduct filas del producto; warehouseID vacío = todas las bodegas.
func (r *StockRepo) ListByProduct(ctx context.Context, productID, warehouseID string) ([]*entity.Stock, error) {
	var w whereBuilder
	w.add("product_id", "=", productID)
	if warehouseID != "" {
		w.add("warehouse_id", "=", warehouseID)
	}
	query := `SELECT product_id, warehouse_id, quantity, updated_at FROM stock` + w.sql() + ` ORDER BY warehouse_id`
	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list stock by product: %w", err)
	}
	defer rows.Close()
	var list []*entity.Stock
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

// GetForUpdate materializa la celda en 0 si no existe y la bloquea (SELECT FOR UPDATE).
// Dos operaciones concurrentes sobre la misma celda quedan serializadas por el lock de fila.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("materialize stock: %w", err)
	}
	var s entity.Stock
	err = r.q.QueryRow(ctx, `
		SELECT product_id, warehouse_id, quantity, updated_at
		FROM stock WHERE product_id = $1 AND warehouse_id = $2
		FOR UPDATE`, productID, warehouseID).Scan(&s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por producto y bodega).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, stock.ProductID, stock.WarehouseID, stock.Quantity, stock.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// HasPositiveByWarehouse indica si la bodega tiene alguna fila con cantidad > 0.
func (r *StockRepo) HasPositiveByWarehouse(ctx context.Context, warehouseID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stock WHERE warehouse_id = $1 AND quantity > 0)`, warehouseID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check positive stock: %w", err)
	}
	return exists, nil
}

// DeleteEmptyByWarehouse elimina las filas en cero de la bodega y devuelve los productos afectados.
func (r *StockRepo) DeleteEmptyByWarehouse(ctx context.Context, warehouseID string) ([]string, error) {
	rows, err := r.q.Query(ctx, `DELETE FROM stock WHERE warehouse_id = $1 AND quantity = 0 RETURNING product_id`, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("delete empty stock: %w", err)
	}
	defer rows.Close()
	var productIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan deleted stock: %w", err)
		}
		productIDs = append(productIDs, id)
	}
	return productIDs, rows.Err()
}

// ListLowStock filas con 0 < cantidad <= threshold, ascendente por cantidad.
func (r *StockRepo) ListLowStock(ctx context.Context, threshold int, warehouseID string) ([]repository.StockAlertItem, error) {
	var w whereBuilder
	w.add("s.quantity", ">", 0)
	w.add("s.quantity", "<=", threshold)
	if warehouseID != "" {
		w.add("s.warehouse_id", "=", warehouseID)
	}
	query := `
		SELECT s.product_id, p.sku, p.name, p.price, s.warehouse_id, wh.name, s.quantity, TRUE
		FROM stock s
		JOIN products p ON p.id = s.product_id
		JOIN warehouses wh ON wh.id = s.warehouse_id` + w.sql() + `
		ORDER BY s.quantity ASC, p.sku ASC, s.warehouse_id ASC`
	return r.queryAlerts(ctx, "list low stock", query, w.args...)
}

// ListOutOfStock productos activos sin fila o con fila en cero.
// Sin bodega: filas en cero de cualquier bodega + productos sin ninguna fila.
func (r *StockRepo) ListOutOfStock(ctx context.Context, warehouseID string) ([]repository.StockAlertItem, error) {
	if warehouseID != "" {
		query := `
			SELECT p.id, p.sku, p.name, p.price, wh.id, wh.name, COALESCE(s.quantity, 0), s.product_id IS NOT NULL
			FROM products p
			JOIN warehouses wh ON wh.id = $1
			LEFT JOIN stock s ON s.product_id = p.id AND s.warehouse_id = wh.id
			WHERE p.active AND (s.product_id IS NULL OR s.quantity = 0)
			ORDER BY p.sku ASC`
		return r.queryAlerts(ctx, "list out of stock", query, warehouseID)
	}
	query := `
		SELECT p.id, p.sku, p.name, p.price, s.warehouse_id, wh.name, 0, TRUE
		FROM stock s
		JOIN products p ON p.id = s.product_id
		JOIN warehouses wh ON wh.id = s.warehouse_id
		WHERE p.active AND s.quantity = 0
		UNION ALL
		SELECT p.id, p.sku, p.name, p.price, '', '', 0, FALSE
		FROM products p
		WHERE p.active AND NOT EXISTS (SELECT 1 FROM stock s WHERE s.product_id = p.id)
		ORDER BY 2 ASC, 5 ASC`
	return r.queryAlerts(ctx, "list out of stock", query)
}

func (r *StockRepo) queryAlerts(ctx context.Context, op, query string, args ...any) ([]repository.StockAlertItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []repository.StockAlertItem
	for rows.Next() {
		var it repository.StockAlertItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.ProductName, &it.Price,
			&it.WarehouseID, &it.WarehouseName, &it.Quantity, &it.HasRecord); err != nil {
			return nil, fmt.Errorf("scan %s: %w", op, err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}
