package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo historial de movimientos sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento; el ID lo asigna la secuencia.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (product_id, warehouse_id, previous_quantity, new_quantity, movement_type, description, actor_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.ProductID, m.WarehouseID, m.PreviousQuantity, m.NewQuantity,
		m.Type, m.Description, m.CreatedBy, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// List página filtrada, más reciente primero, y el total sin paginar.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	var w whereBuilder
	if f.ProductID != "" {
		w.add("product_id", "=", f.ProductID)
	}
	if f.WarehouseID != "" {
		w.add("warehouse_id", "=", f.WarehouseID)
	}
	if f.Type != "" {
		w.add("movement_type", "=", f.Type)
	}
	if f.ActorID != "" {
		w.add("actor_user_id", "=", f.ActorID)
	}
	if f.From != nil {
		w.add("created_at", ">=", *f.From)
	}
	if f.To != nil {
		w.add("created_at", "<=", *f.To)
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stock movements: %w", err)
	}

	query := `
		SELECT id, product_id, warehouse_id, previous_quantity, new_quantity, movement_type, description, actor_user_id, created_at
		FROM stock_movements` + w.sql()
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s", w.next(limit), w.next(offset))

	rows, err := r.q.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.WarehouseID, &m.PreviousQuantity, &m.NewQuantity,
			&m.Type, &m.Description, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, total, rows.Err()
}
