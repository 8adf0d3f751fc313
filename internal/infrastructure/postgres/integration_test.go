package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/application/usecase"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-stock/pkg/config"
)

// Requiere una base dedicada: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
// Las tablas se vacían al inicio de cada test.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido; se omiten tests de integración")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE stock_movements, stock, warehouses, products RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

type pgFixture struct {
	stock      *inventory.StockUseCase
	warehouses *usecase.WarehouseUseCase
	pool       *pgxpool.Pool
}

func newPGFixture(t *testing.T) *pgFixture {
	pool := setupDB(t)
	repos := postgres.NewRepos(pool)
	tx := postgres.NewTxRunner(pool)
	return &pgFixture{
		pool: pool,
		stock: inventory.NewStockUseCase(inventory.Deps{
			Tx:         tx,
			Stock:      repos.Stock,
			Movements:  repos.Movements,
			Warehouses: repos.Warehouses,
			Products:   repos.Products,
			Settings:   inventory.Settings{LowStockThreshold: 5, DefaultPageSize: 20, MaxPageSize: 100},
		}),
		warehouses: usecase.NewWarehouseUseCase(tx, repos.Warehouses, nil),
	}
}

func (f *pgFixture) product(t *testing.T, sku string, active bool) string {
	t.Helper()
	now := time.Now().UTC()
	p := &entity.Product{ID: uuid.NewString(), SKU: sku, Name: "Producto " + sku, Price: decimal.RequireFromString("1999.90"), Active: active, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, postgres.NewProductRepository(f.pool).Create(context.Background(), p))
	return p.ID
}

func (f *pgFixture) warehouse(t *testing.T, name string) *dto.WarehouseResponse {
	t.Helper()
	w, err := f.warehouses.Create(context.Background(), dto.CreateWarehouseRequest{Name: name})
	require.NoError(t, err)
	return w
}

func TestPG_TransferConservaYRegistraMovimientos(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	p := f.product(t, "SKU-1", true)
	a := f.warehouse(t, "Centro")
	b := f.warehouse(t, "Norte")

	_, err := f.stock.SetStock(ctx, inventory.SetStockInput{ProductID: p, WarehouseID: a.ID, Quantity: 10, ActorID: "u1"})
	require.NoError(t, err)

	res, err := f.stock.TransferStock(ctx, inventory.TransferInput{ProductID: p, SourceWarehouseID: a.ID, TargetWarehouseID: b.ID, Quantity: 5, ActorID: "u1"})
	require.NoError(t, err)
	assert.NotZero(t, res.Inbound.ID)

	summary, err := f.stock.GetStock(ctx, p, "")
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Total)
	require.Len(t, summary.Records, 2)

	_, err = f.stock.TransferStock(ctx, inventory.TransferInput{ProductID: p, SourceWarehouseID: a.ID, TargetWarehouseID: b.ID, Quantity: 50})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 5, ise.Available)

	page, err := f.stock.GetMovementHistory(ctx, repository.MovementFilter{ProductID: p}, inventory.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, res.Inbound.ID, page.Items[0].ID, "más reciente primero")
}

func TestPG_SetStockConcurrenteSinActualizacionesPerdidas(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	p := f.product(t, "SKU-C", true)
	a := f.warehouse(t, "Centro")
	b := f.warehouse(t, "Norte")
	_, err := f.stock.SetStock(ctx, inventory.SetStockInput{ProductID: p, WarehouseID: a.ID, Quantity: 50})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.stock.TransferStock(ctx, inventory.TransferInput{ProductID: p, SourceWarehouseID: a.ID, TargetWarehouseID: b.ID, Quantity: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sa, err := f.stock.GetStock(ctx, p, a.ID)
	require.NoError(t, err)
	sb, err := f.stock.GetStock(ctx, p, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, sa.Total)
	assert.Equal(t, 10, sb.Total)
}

func TestPG_ReportesStockBajoYAgotado(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	low := f.product(t, "SKU-A", true)
	zero := f.product(t, "SKU-B", true)
	none := f.product(t, "SKU-C", true)
	off := f.product(t, "SKU-D", false)
	high := f.product(t, "SKU-E", true)
	a := f.warehouse(t, "Centro")

	for id, qty := range map[string]int{low: 5, zero: 0, off: 0, high: 6} {
		_, err := f.stock.SetStock(ctx, inventory.SetStockInput{ProductID: id, WarehouseID: a.ID, Quantity: qty})
		require.NoError(t, err)
	}

	view, err := f.stock.GetLowStockProducts(ctx, 5, "")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, low, view.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("1999.90").Equal(view.Items[0].Price))

	out, err := f.stock.GetOutOfStockProducts(ctx, "")
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, it := range out {
		ids[it.ProductID] = true
	}
	assert.True(t, ids[zero])
	assert.True(t, ids[none])
	assert.False(t, ids[off])
	assert.False(t, ids[low])

	out, err = f.stock.GetOutOfStockProducts(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestPG_RegistroDeBodegas(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	p := f.product(t, "SKU-W", true)
	a := f.warehouse(t, "Centro")
	b := f.warehouse(t, "Centro Sur")
	assert.True(t, a.IsPrimary)
	assert.NotEqual(t, a.Code, b.Code)

	_, err := f.warehouses.SetAsPrimary(ctx, b.ID)
	require.NoError(t, err)
	list, err := f.warehouses.List(ctx, dto.WarehouseListRequest{IncludeInactive: true})
	require.NoError(t, err)
	primaries := 0
	for _, w := range list.Items {
		if w.IsPrimary {
			primaries++
			assert.Equal(t, b.ID, w.ID)
		}
	}
	assert.Equal(t, 1, primaries)

	assert.ErrorIs(t, f.warehouses.Delete(ctx, b.ID), domain.ErrInvalidOperation)

	_, err = f.stock.SetStock(ctx, inventory.SetStockInput{ProductID: p, WarehouseID: a.ID, Quantity: 0})
	require.NoError(t, err)
	require.NoError(t, f.warehouses.Delete(ctx, a.ID))

	page, err := f.stock.GetMovementHistory(ctx, repository.MovementFilter{WarehouseID: a.ID}, inventory.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total, "el historial sobrevive a la bodega")
}

func TestPG_SetAsPrimaryConcurrenteSinFallos(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()
	var ids []string
	for _, name := range []string{"Centro", "Norte", "Sur", "Oriente"} {
		ids = append(ids, f.warehouse(t, name).ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.warehouses.SetAsPrimary(ctx, id)
			assert.NoError(t, err)
		}(ids[i%len(ids)])
	}
	wg.Wait()

	list, err := f.warehouses.List(ctx, dto.WarehouseListRequest{IncludeInactive: true})
	require.NoError(t, err)
	primaries := 0
	for _, w := range list.Items {
		if w.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestPG_AltasPrincipalesConcurrentesConservanCodigoBase(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	names := []string{"Alfa", "Beta", "Gama", "Delta", "Omega"}
	codes := make([]string, len(names))
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			w, err := f.warehouses.Create(ctx, dto.CreateWarehouseRequest{Name: name, IsPrimary: true})
			if assert.NoError(t, err) {
				codes[i] = w.Code
			}
		}(i, name)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Regexp(t, `^[A-Z0-9]{1,4}-\d{4}$`, code, "sin sufijo de reintento")
	}
}
