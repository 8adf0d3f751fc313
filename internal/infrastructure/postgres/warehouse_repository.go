package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, name, code, address, is_primary, active, created_at, updated_at`

// primaryLockKey clave del advisory lock de la bodega principal.
const primaryLockKey int64 = 7_310_001

// singlePrimaryIndex índice parcial que admite una sola bodega principal (schema.sql).
const singlePrimaryIndex = "warehouses_single_primary"

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL (usable con pool o tx).
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega. Código repetido -> ErrDuplicate; segunda principal -> ErrDuplicatePrimary.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (` + warehouseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		w.ID, w.Name, w.Code, w.Address, w.IsPrimary, w.Active, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isConstraintViolation(err, singlePrimaryIndex) {
			return fmt.Errorf("insert warehouse: %w", domain.ErrDuplicatePrimary)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("insert warehouse: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.get(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id)
}

// GetForUpdate obtiene la bodega bloqueando su fila hasta el fin de la transacción.
func (r *WarehouseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.get(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1 FOR UPDATE`, id)
}

func (r *WarehouseRepo) get(ctx context.Context, query, id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := r.q.QueryRow(ctx, query, id).Scan(
		&w.ID, &w.Name, &w.Code, &w.Address, &w.IsPrimary, &w.Active, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// ExistsByCode indica si el código ya está tomado.
func (r *WarehouseRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM warehouses WHERE code = $1)`, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("check warehouse code: %w", err)
	}
	return exists, nil
}

// Update actualiza nombre y dirección.
func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	query := `
		UPDATE warehouses SET name = $2, address = $3, updated_at = $4
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, w.ID, w.Name, w.Address, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("bodega %s no existe", w.ID)
	}
	return nil
}

// List lista bodegas con paginación; la principal primero y luego por nombre.
func (r *WarehouseRepo) List(ctx context.Context, includeInactive bool, limit, offset int) ([]*entity.Warehouse, error) {
	query := `
		SELECT ` + warehouseColumns + `
		FROM warehouses WHERE active OR $1
		ORDER BY is_primary DESC, name ASC, id ASC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, includeInactive, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		var w entity.Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Code, &w.Address, &w.IsPrimary, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

// LockPrimary toma un advisory lock de transacción. Con el lock tomado, las sentencias
// siguientes (READ COMMITTED) ven la principal que haya confirmado otra transacción.
func (r *WarehouseRepo) LockPrimary(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, primaryLockKey); err != nil {
		return fmt.Errorf("lock primary warehouse: %w", err)
	}
	return nil
}

// HasPrimary indica si existe alguna bodega principal.
func (r *WarehouseRepo) HasPrimary(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM warehouses WHERE is_primary)`).Scan(&exists); err != nil {
		return false, fmt.Errorf("check primary warehouse: %w", err)
	}
	return exists, nil
}

// ClearPrimary quita la marca de principal de todas las bodegas.
func (r *WarehouseRepo) ClearPrimary(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `UPDATE warehouses SET is_primary = FALSE, updated_at = now() WHERE is_primary`); err != nil {
		return fmt.Errorf("clear primary warehouse: %w", err)
	}
	return nil
}

// SetPrimary marca la bodega como principal. Debe ir precedido de ClearPrimary en la misma tx.
func (r *WarehouseRepo) SetPrimary(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE warehouses SET is_primary = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("set primary warehouse: %w", domain.ErrDuplicatePrimary)
		}
		return fmt.Errorf("set primary warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("bodega %s no existe", id)
	}
	return nil
}

// SetActive activa o desactiva la bodega.
func (r *WarehouseRepo) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.q.Exec(ctx, `UPDATE warehouses SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set warehouse active: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NotFound("bodega %s no existe", id)
	}
	return nil
}

// Delete elimina una bodega por ID.
func (r *WarehouseRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM warehouses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete warehouse: %w", err)
	}
	return nil
}
