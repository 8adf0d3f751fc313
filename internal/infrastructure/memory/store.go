// Package memory implementa los repositorios sobre mapas en memoria.
// TxRunner toma una foto del estado y la restaura si la transacción falla, de modo que
// el rollback es observable en los tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Inventario-stock/internal/application/ports"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

type cellKey struct {
	productID   string
	warehouseID string
}

type state struct {
	products   map[string]entity.Product
	warehouses map[string]entity.Warehouse
	stock      map[cellKey]entity.Stock
	movements  []entity.StockMovement
	nextMovID  int64
}

func (s state) clone() state {
	c := state{
		products:   make(map[string]entity.Product, len(s.products)),
		warehouses: make(map[string]entity.Warehouse, len(s.warehouses)),
		stock:      make(map[cellKey]entity.Stock, len(s.stock)),
		movements:  append([]entity.StockMovement(nil), s.movements...),
		nextMovID:  s.nextMovID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	return c
}

// Hooks permiten inyectar fallos; un error devuelto aborta la escritura.
type Hooks struct {
	BeforeStockUpsert     func(stock *entity.Stock) error
	BeforeMovementCreate  func(movement *entity.StockMovement) error
	BeforeWarehouseCreate func(warehouse *entity.Warehouse) error
}

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu    sync.Mutex
	txMu  sync.Mutex
	st    state
	Hooks Hooks
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{st: state{
		products:   map[string]entity.Product{},
		warehouses: map[string]entity.Warehouse{},
		stock:      map[cellKey]entity.Stock{},
		nextMovID:  1,
	}}
}

// AddProduct registra un producto (el catálogo es de solo lectura para el servicio).
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = p
}

// Repos repositorios sobre este store.
func (s *Store) Repos() ports.TxRepos {
	return ports.TxRepos{
		Stock:      &StockRepo{s: s},
		Movements:  &MovementRepo{s: s},
		Warehouses: &WarehouseRepo{s: s},
		Products:   &ProductRepo{s: s},
	}
}

// Movements copia del historial completo en orden de inserción.
func (s *Store) Movements() []entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.StockMovement(nil), s.st.movements...)
}

// Quantity cantidad de la celda y si la fila existe.
func (s *Store) Quantity(productID, warehouseID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.st.stock[cellKey{productID, warehouseID}]
	return row.Quantity, ok
}

// TxRunner transacciones serializadas con rollback por snapshot.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

var _ ports.TxRunner = (*TxRunner)(nil)

// Run ejecuta fn; restaura el estado previo si fn falla o entra en panic.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.TxRepos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	r.s.mu.Lock()
	snapshot := r.s.st.clone()
	r.s.mu.Unlock()

	restore := func() {
		r.s.mu.Lock()
		r.s.st = snapshot
		r.s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
	}()

	if err = fn(r.s.Repos()); err != nil {
		restore()
		return err
	}
	return nil
}

// ProductRepo lectura del catálogo.
type ProductRepo struct{ s *Store }

var _ repository.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// StockRepo ledger en memoria.
type StockRepo struct{ s *Store }

var _ repository.StockRepository = (*StockRepo)(nil)

func (r *StockRepo) ListByProduct(_ context.Context, productID, warehouseID string) ([]*entity.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Stock
	for k, v := range r.s.st.stock {
		if k.productID != productID || (warehouseID != "" && k.warehouseID != warehouseID) {
			continue
		}
		row := v
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WarehouseID < out[j].WarehouseID })
	return out, nil
}

func (r *StockRepo) GetForUpdate(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := cellKey{productID, warehouseID}
	row, ok := r.s.st.stock[k]
	if !ok {
		row = entity.Stock{ProductID: productID, WarehouseID: warehouseID}
		r.s.st.stock[k] = row
	}
	return &row, nil
}

func (r *StockRepo) Upsert(_ context.Context, stock *entity.Stock) error {
	if h := r.s.Hooks.BeforeStockUpsert; h != nil {
		if err := h(stock); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if stock.Quantity < 0 {
		return errors.New("stock: violación de CHECK (quantity >= 0)")
	}
	r.s.st.stock[cellKey{stock.ProductID, stock.WarehouseID}] = *stock
	return nil
}

func (r *StockRepo) HasPositiveByWarehouse(_ context.Context, warehouseID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, v := range r.s.st.stock {
		if k.warehouseID == warehouseID && v.Quantity > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (r *StockRepo) DeleteEmptyByWarehouse(_ context.Context, warehouseID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var productIDs []string
	for k, v := range r.s.st.stock {
		if k.warehouseID == warehouseID && v.Quantity == 0 {
			delete(r.s.st.stock, k)
			productIDs = append(productIDs, k.productID)
		}
	}
	sort.Strings(productIDs)
	return productIDs, nil
}

func (r *StockRepo) ListLowStock(_ context.Context, threshold int, warehouseID string) ([]repository.StockAlertItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []repository.StockAlertItem
	for k, v := range r.s.st.stock {
		if warehouseID != "" && k.warehouseID != warehouseID {
			continue
		}
		if v.Quantity <= 0 || v.Quantity > threshold {
			continue
		}
		p, ok := r.s.st.products[k.productID]
		if !ok {
			continue
		}
		out = append(out, r.alertItem(p, k.warehouseID, v.Quantity, true))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out, nil
}

func (r *StockRepo) ListOutOfStock(_ context.Context, warehouseID string) ([]repository.StockAlertItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []repository.StockAlertItem
	for _, p := range r.s.st.products {
		if !p.Active {
			continue
		}
		if warehouseID != "" {
			row, ok := r.s.st.stock[cellKey{p.ID, warehouseID}]
			if !ok || row.Quantity == 0 {
				out = append(out, r.alertItem(p, warehouseID, 0, ok))
			}
			continue
		}
		hasAny := false
		for k, v := range r.s.st.stock {
			if k.productID != p.ID {
				continue
			}
			hasAny = true
			if v.Quantity == 0 {
				out = append(out, r.alertItem(p, k.warehouseID, 0, true))
			}
		}
		if !hasAny {
			out = append(out, r.alertItem(p, "", 0, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SKU != out[j].SKU {
			return out[i].SKU < out[j].SKU
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return out, nil
}

// alertItem requiere r.s.mu tomado.
func (r *StockRepo) alertItem(p entity.Product, warehouseID string, qty int, hasRecord bool) repository.StockAlertItem {
	item := repository.StockAlertItem{
		ProductID:   p.ID,
		SKU:         p.SKU,
		ProductName: p.Name,
		Price:       p.Price,
		WarehouseID: warehouseID,
		Quantity:    qty,
		HasRecord:   hasRecord,
	}
	if w, ok := r.s.st.warehouses[warehouseID]; ok {
		item.WarehouseName = w.Name
	}
	return item
}

// MovementRepo historial en memoria.
type MovementRepo struct{ s *Store }

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

func (r *MovementRepo) Create(_ context.Context, movement *entity.StockMovement) error {
	if h := r.s.Hooks.BeforeMovementCreate; h != nil {
		if err := h(movement); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	movement.ID = r.s.st.nextMovID
	r.s.st.nextMovID++
	r.s.st.movements = append(r.s.st.movements, *movement)
	return nil
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*entity.StockMovement
	for _, m := range r.s.st.movements {
		if f.ProductID != "" && m.ProductID != f.ProductID ||
			f.WarehouseID != "" && m.WarehouseID != f.WarehouseID ||
			f.Type != "" && m.Type != f.Type ||
			f.ActorID != "" && m.CreatedBy != f.ActorID ||
			f.From != nil && m.CreatedAt.Before(*f.From) ||
			f.To != nil && m.CreatedAt.After(*f.To) {
			continue
		}
		mov := m
		matched = append(matched, &mov)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	total := len(matched)
	if offset >= total {
		return []*entity.StockMovement{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

// WarehouseRepo registro de bodegas en memoria.
type WarehouseRepo struct{ s *Store }

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	if h := r.s.Hooks.BeforeWarehouseCreate; h != nil {
		if err := h(w); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.st.warehouses {
		if other.Code == w.Code {
			return domain.ErrDuplicate
		}
		if w.IsPrimary && other.IsPrimary {
			return domain.ErrDuplicatePrimary
		}
	}
	r.s.st.warehouses[w.ID] = *w
	return nil
}

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.st.warehouses[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WarehouseRepo) GetForUpdate(ctx context.Context, id string) (*entity.Warehouse, error) {
	return r.GetByID(ctx, id)
}

func (r *WarehouseRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.st.warehouses {
		if w.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.st.warehouses[w.ID]
	if !ok {
		return domain.NotFound("bodega %s no existe", w.ID)
	}
	cur.Name = w.Name
	cur.Address = w.Address
	cur.UpdatedAt = w.UpdatedAt
	r.s.st.warehouses[w.ID] = cur
	return nil
}

func (r *WarehouseRepo) List(_ context.Context, includeInactive bool, limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Warehouse
	for _, w := range r.s.st.warehouses {
		if !includeInactive && !w.Active {
			continue
		}
		wh := w
		out = append(out, &wh)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if offset >= len(out) {
		return []*entity.Warehouse{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// LockPrimary no hace nada: TxRunner ya serializa las transacciones.
func (r *WarehouseRepo) LockPrimary(context.Context) error { return nil }

func (r *WarehouseRepo) HasPrimary(_ context.Context) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.st.warehouses {
		if w.IsPrimary {
			return true, nil
		}
	}
	return false, nil
}

func (r *WarehouseRepo) ClearPrimary(_ context.Context) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, w := range r.s.st.warehouses {
		if w.IsPrimary {
			w.IsPrimary = false
			r.s.st.warehouses[id] = w
		}
	}
	return nil
}

func (r *WarehouseRepo) SetPrimary(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.st.warehouses[id]
	if !ok {
		return domain.NotFound("bodega %s no existe", id)
	}
	for otherID, other := range r.s.st.warehouses {
		if otherID != id && other.IsPrimary {
			return domain.ErrDuplicatePrimary
		}
	}
	w.IsPrimary = true
	r.s.st.warehouses[id] = w
	return nil
}

func (r *WarehouseRepo) SetActive(_ context.Context, id string, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.st.warehouses[id]
	if !ok {
		return domain.NotFound("bodega %s no existe", id)
	}
	w.Active = active
	r.s.st.warehouses[id] = w
	return nil
}

func (r *WarehouseRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k := range r.s.st.stock {
		if k.warehouseID == id {
			return fmt.Errorf("warehouses: la bodega %s aún tiene filas de stock", id)
		}
	}
	delete(r.s.st.warehouses, id)
	return nil
}
