package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/application/ports"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

// maxPrimaryRetries reintentos de un alta con el mismo código cuando choca con la principal.
const maxPrimaryRetries = 3

// StockInvalidator invalida las vistas de stock cacheadas de un producto.
type StockInvalidator interface {
	InvalidateProduct(ctx context.Context, productID string)
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateProduct(context.Context, string) {}

// WarehouseUseCase registro de bodegas: alta con código generado, bodega principal única,
// activación y eliminación protegida.
type WarehouseUseCase struct {
	tx    ports.TxRunner
	repo  repository.WarehouseRepository
	cache StockInvalidator
	log   *logger.Logger
	now   func() time.Time
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(tx ports.TxRunner, repo repository.WarehouseRepository, log *logger.Logger) *WarehouseUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &WarehouseUseCase{tx: tx, repo: repo, cache: nopInvalidator{}, log: log, now: time.Now}
}

// WithStockCache invalida la caché de stock de los productos cuyas filas borra Delete.
func (uc *WarehouseUseCase) WithStockCache(cache StockInvalidator) *WarehouseUseCase {
	if cache != nil {
		uc.cache = cache
	}
	return uc
}

// WithClock reemplaza el reloj (tests).
func (uc *WarehouseUseCase) WithClock(now func() time.Time) *WarehouseUseCase {
	uc.now = now
	return uc
}

// Create crea una nueva bodega. Si se pide como principal, o aún no existe ninguna, queda como principal.
func (uc *WarehouseUseCase) Create(ctx context.Context, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("el nombre de la bodega es obligatorio")
	}
	now := uc.now()
	base := inventory.WarehouseCodeBase(name, now)

	for attempt := 1; attempt <= inventory.MaxWarehouseCodeAttempts; attempt++ {
		code := inventory.WarehouseCodeCandidate(base, attempt)
		exists, err := uc.repo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, uc.fail("create_warehouse", err, "")
		}
		if exists {
			continue
		}

		warehouse := &entity.Warehouse{
			ID:        uuid.New().String(),
			Name:      name,
			Code:      code,
			Address:   strings.TrimSpace(in.Address),
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err = uc.insert(ctx, warehouse, in.IsPrimary)
		if errors.Is(err, domain.ErrDuplicate) {
			// otra alta concurrente tomó el código
			continue
		}
		if err != nil {
			return nil, uc.fail("create_warehouse", err, warehouse.ID)
		}
		uc.log.Info().Str("warehouse_id", warehouse.ID).Str("code", code).Bool("is_primary", warehouse.IsPrimary).Msg("bodega creada")
		return toWarehouseResponse(warehouse), nil
	}
	return nil, domain.Invalid("no se pudo generar un código único para %q", name)
}

// insert crea la bodega decidiendo la marca de principal dentro de la transacción.
// Un choque con la principal se reintenta con el mismo código.
func (uc *WarehouseUseCase) insert(ctx context.Context, warehouse *entity.Warehouse, wantPrimary bool) error {
	var err error
	for i := 0; i < maxPrimaryRetries; i++ {
		err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
			if err := repos.Warehouses.LockPrimary(ctx); err != nil {
				return err
			}
			makePrimary := wantPrimary
			if !makePrimary {
				has, err := repos.Warehouses.HasPrimary(ctx)
				if err != nil {
					return err
				}
				makePrimary = !has
			}
			if makePrimary {
				if err := repos.Warehouses.ClearPrimary(ctx); err != nil {
					return err
				}
			}
			warehouse.IsPrimary = makePrimary
			return repos.Warehouses.Create(ctx, warehouse)
		})
		if !errors.Is(err, domain.ErrDuplicatePrimary) {
			return err
		}
		uc.log.Warn().Str("code", warehouse.Code).Int("attempt", i+1).Msg("alta de bodega chocó con la principal, se reintenta")
	}
	return err
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, uc.fail("get_warehouse", err, id)
	}
	if warehouse == nil {
		return nil, domain.NotFound("bodega %s no existe", id)
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza nombre y dirección.
func (uc *WarehouseUseCase) Update(ctx context.Context, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	var out *entity.Warehouse
	err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		warehouse, err := lockWarehouse(ctx, repos, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.Invalid("el nombre de la bodega no puede quedar vacío")
			}
			warehouse.Name = name
		}
		if in.Address != nil {
			warehouse.Address = strings.TrimSpace(*in.Address)
		}
		warehouse.UpdatedAt = uc.now()
		out = warehouse
		return repos.Warehouses.Update(ctx, warehouse)
	})
	if err != nil {
		return nil, uc.fail("update_warehouse", err, id)
	}
	return toWarehouseResponse(out), nil
}

// List lista bodegas con paginación. Por defecto solo las activas.
func (uc *WarehouseUseCase) List(ctx context.Context, in dto.WarehouseListRequest) (*dto.WarehouseListResponse, error) {
	in.DefaultPage()
	list, err := uc.repo.List(ctx, in.IncludeInactive, in.Limit, in.Offset)
	if err != nil {
		return nil, uc.fail("list_warehouses", err, "")
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset},
	}, nil
}

// SetAsPrimary marca la bodega como principal: limpia todas y marca la elegida en una transacción.
func (uc *WarehouseUseCase) SetAsPrimary(ctx context.Context, id string) (*dto.WarehouseResponse, error) {
	var out *entity.Warehouse
	err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		if err := repos.Warehouses.LockPrimary(ctx); err != nil {
			return err
		}
		warehouse, err := lockWarehouse(ctx, repos, id)
		if err != nil {
			return err
		}
		if !warehouse.Active {
			return domain.Invalid("la bodega %s está inactiva y no puede ser principal", warehouse.Code)
		}
		if err := repos.Warehouses.ClearPrimary(ctx); err != nil {
			return err
		}
		if err := repos.Warehouses.SetPrimary(ctx, id); err != nil {
			return err
		}
		warehouse.IsPrimary = true
		out = warehouse
		return nil
	})
	if err != nil {
		return nil, uc.fail("set_primary_warehouse", err, id)
	}
	uc.log.Info().Str("warehouse_id", id).Msg("bodega principal actualizada")
	return toWarehouseResponse(out), nil
}

// Deactivate desactiva una bodega. La principal no puede desactivarse.
func (uc *WarehouseUseCase) Deactivate(ctx context.Context, id string) error {
	return uc.setActive(ctx, id, false)
}

// Activate reactiva una bodega.
func (uc *WarehouseUseCase) Activate(ctx context.Context, id string) error {
	return uc.setActive(ctx, id, true)
}

func (uc *WarehouseUseCase) setActive(ctx context.Context, id string, active bool) error {
	err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		warehouse, err := lockWarehouse(ctx, repos, id)
		if err != nil {
			return err
		}
		if !active && warehouse.IsPrimary {
			return domain.Invalid("la bodega principal %s no puede desactivarse", warehouse.Code)
		}
		return repos.Warehouses.SetActive(ctx, id, active)
	})
	if err != nil {
		return uc.fail("set_active_warehouse", err, id)
	}
	return nil
}

// Delete elimina una bodega sin stock positivo. Borra sus filas en cero y conserva el historial.
func (uc *WarehouseUseCase) Delete(ctx context.Context, id string) error {
	var productIDs []string
	err := uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		warehouse, err := lockWarehouse(ctx, repos, id)
		if err != nil {
			return err
		}
		if warehouse.IsPrimary {
			return domain.Invalid("la bodega principal %s no puede eliminarse", warehouse.Code)
		}
		hasStock, err := repos.Stock.HasPositiveByWarehouse(ctx, id)
		if err != nil {
			return err
		}
		if hasStock {
			return domain.Invalid("la bodega %s aún tiene stock; transfiéralo antes de eliminarla", warehouse.Code)
		}
		if productIDs, err = repos.Stock.DeleteEmptyByWarehouse(ctx, id); err != nil {
			return err
		}
		return repos.Warehouses.Delete(ctx, id)
	})
	if err != nil {
		return uc.fail("delete_warehouse", err, id)
	}
	for _, productID := range productIDs {
		uc.cache.InvalidateProduct(ctx, productID)
	}
	uc.log.Info().Str("warehouse_id", id).Int("empty_rows_removed", len(productIDs)).Msg("bodega eliminada")
	return nil
}

func lockWarehouse(ctx context.Context, repos ports.TxRepos, id string) (*entity.Warehouse, error) {
	warehouse, err := repos.Warehouses.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.NotFound("bodega %s no existe", id)
	}
	return warehouse, nil
}

func (uc *WarehouseUseCase) fail(op string, err error, warehouseID string) error {
	if domain.IsDomainError(err) {
		return err
	}
	uc.log.Error().Err(err).Str("op", op).Str("warehouse_id", warehouseID).Msg("fallo de persistencia en bodegas")
	return domain.Persistence(op, err)
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		Name:      w.Name,
		Code:      w.Code,
		Address:   w.Address,
		IsPrimary: w.IsPrimary,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
