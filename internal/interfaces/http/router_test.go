package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/application/usecase"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	invdomain "github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/metrics"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/pdf"
	"github.com/jhoicas/Inventario-stock/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/Inventario-stock/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Inventario-stock/pkg/jwt"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
	admin string
	clerk string
	sales string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.Product{ID: "p1", SKU: "SKU-1", Name: "Tornillo", Price: decimal.NewFromInt(1500), Active: true})
	store.AddProduct(entity.Product{ID: "p2", SKU: "SKU-2", Name: "Tuerca", Price: decimal.NewFromInt(800), Active: true})
	repos := store.Repos()
	tx := memory.NewTxRunner(store)
	m := metrics.New(false)

	stockUC := inventory.NewStockUseCase(inventory.Deps{
		Tx:         tx,
		Stock:      repos.Stock,
		Movements:  repos.Movements,
		Warehouses: repos.Warehouses,
		Products:   repos.Products,
		Observer:   m,
		Reports:    pdf.NewMarotoStockReportGenerator(),
		Sheets:     xlsx.NewStockSheetExporter(),
		Logger:     logger.Nop(),
		Settings:   inventory.Settings{LowStockThreshold: 5, DefaultPageSize: 20, MaxPageSize: 100},
	})
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ServiceName: "inventario-stock-test",
		StockUC:     stockUC,
		WarehouseUC: usecase.NewWarehouseUseCase(tx, repos.Warehouses, logger.Nop()),
		Metrics:     m,
		JWTSecret:   testJWTSecret,
	})
	return &apiFixture{
		app:   app,
		store: store,
		admin: tokenForRole(t, pkgjwt.RoleAdmin),
		clerk: tokenForRole(t, pkgjwt.RoleBodeguero),
		sales: tokenForRole(t, pkgjwt.RoleVendedor),
	}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (f *apiFixture) warehouse(t *testing.T, name string) dto.WarehouseResponse {
	t.Helper()
	resp, raw := f.do(t, http.MethodPost, "/api/warehouses", f.admin, dto.CreateWarehouseRequest{Name: name})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var w dto.WarehouseResponse
	require.NoError(t, json.Unmarshal(raw, &w))
	return w
}

func (f *apiFixture) setStock(t *testing.T, productID, warehouseID string, qty int) dto.MovementDTO {
	t.Helper()
	resp, raw := f.do(t, http.MethodPut, "/api/inventory/products/"+productID+"/stock", f.clerk,
		dto.SetStockRequest{WarehouseID: warehouseID, Quantity: &qty})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var m dto.MovementDTO
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestHealth(t *testing.T) {
	f := newAPI(t)
	resp, raw := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "ok")
}

func TestAPI_SetStockYTransfer(t *testing.T) {
	f := newAPI(t)
	a := f.warehouse(t, "Centro")
	b := f.warehouse(t, "Norte")

	m := f.setStock(t, "p1", a.ID, 10)
	assert.Equal(t, "IN", m.Type)
	assert.Equal(t, testUserID, m.ActorUserID)
	assert.Equal(t, invdomain.DefaultSetReason, m.Description)

	resp, raw := f.do(t, http.MethodPost, "/api/inventory/transfers", f.clerk, dto.TransferStockRequest{
		ProductID: "p1", SourceWarehouseID: a.ID, TargetWarehouseID: b.ID, Quantity: 4, Reason: "reposición",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var tr dto.TransferResponse
	require.NoError(t, json.Unmarshal(raw, &tr))
	assert.Equal(t, 6, tr.Outbound.NewQuantity)
	assert.Equal(t, 4, tr.Inbound.NewQuantity)
	assert.Equal(t, "OUT", tr.Outbound.Type)
	assert.Contains(t, tr.Outbound.Description, "reposición")

	resp, raw = f.do(t, http.MethodGet, "/api/inventory/products/p1/stock", f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stock dto.StockResponse
	require.NoError(t, json.Unmarshal(raw, &stock))
	assert.Equal(t, 10, stock.Total)
	assert.Len(t, stock.Records, 2)

	resp, raw = f.do(t, http.MethodGet, "/api/inventory/products/p1/stock?warehouse_id="+b.ID, f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &stock))
	assert.Equal(t, 4, stock.Total)
}

func TestAPI_TransferInsuficiente409(t *testing.T) {
	f := newAPI(t)
	a := f.warehouse(t, "Centro")
	b := f.warehouse(t, "Norte")
	f.setStock(t, "p1", a.ID, 3)

	resp, raw := f.do(t, http.MethodPost, "/api/inventory/transfers", f.clerk, dto.TransferStockRequest{
		ProductID: "p1", SourceWarehouseID: a.ID, TargetWarehouseID: b.ID, Quantity: 5,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var body dto.InsufficientStockResponse
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Code)
	assert.Equal(t, 3, body.Available)
	assert.Equal(t, 5, body.Requested)

	q, _ := f.store.Quantity("p1", a.ID)
	assert.Equal(t, 3, q)
}

func TestAPI_ErroresDeDominio(t *testing.T) {
	f := newAPI(t)
	a := f.warehouse(t, "Centro")
	qty := 1

	resp, raw := f.do(t, http.MethodPut, "/api/inventory/products/nope/stock", f.clerk, dto.SetStockRequest{WarehouseID: a.ID, Quantity: &qty})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(raw), "NOT_FOUND")

	neg := -1
	resp, raw = f.do(t, http.MethodPut, "/api/inventory/products/p1/stock", f.clerk, dto.SetStockRequest{WarehouseID: a.ID, Quantity: &neg})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "INVALID_OPERATION")

	resp, raw = f.do(t, http.MethodPut, "/api/inventory/products/p1/stock", f.clerk, map[string]string{"warehouse_id": a.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "INVALID_BODY")

	resp, _ = f.do(t, http.MethodPut, "/api/inventory/products/p1/stock", f.sales, dto.SetStockRequest{WarehouseID: a.ID, Quantity: &qty})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw = f.do(t, http.MethodDelete, "/api/warehouses/"+a.ID, f.admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "la principal no se elimina")
	assert.Contains(t, string(raw), "INVALID_OPERATION")

	resp, raw = f.do(t, http.MethodGet, "/api/inventory/movements?from=ayer", f.sales, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), "INVALID_QUERY")
}

func TestAPI_HistorialYReportes(t *testing.T) {
	f := newAPI(t)
	a := f.warehouse(t, "Centro")
	f.setStock(t, "p1", a.ID, 8)
	f.setStock(t, "p1", a.ID, 2)

	resp, raw := f.do(t, http.MethodGet, "/api/inventory/movements?product_id=p1&type=out&page_size=1", f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var page dto.MovementListResponse
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 8, page.Items[0].PreviousQuantity)

	resp, raw = f.do(t, http.MethodGet, "/api/inventory/low-stock", f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var low dto.LowStockResponse
	require.NoError(t, json.Unmarshal(raw, &low))
	assert.Equal(t, 5, low.Threshold)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "SKU-1", low.Items[0].SKU)

	resp, raw = f.do(t, http.MethodGet, "/api/inventory/out-of-stock", f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.OutOfStockResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p2", out.Items[0].ProductID)
	assert.False(t, out.Items[0].HasRecord)

	resp, raw = f.do(t, http.MethodGet, "/api/inventory/reports/low-stock.pdf", f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))

	resp, raw = f.do(t, http.MethodGet, "/api/inventory/reports/low-stock.xlsx?threshold=3", f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")), "xlsx es un zip")
}

func TestAPI_Bodegas(t *testing.T) {
	f := newAPI(t)
	a := f.warehouse(t, "Centro")
	b := f.warehouse(t, "Norte")
	assert.True(t, a.IsPrimary)

	resp, _ := f.do(t, http.MethodPost, "/api/warehouses", f.clerk, dto.CreateWarehouseRequest{Name: "Sur"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := f.do(t, http.MethodPost, "/api/warehouses/"+b.ID+"/primary", f.admin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = f.do(t, http.MethodPost, "/api/warehouses/"+a.ID+"/deactivate", f.admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = f.do(t, http.MethodGet, "/api/warehouses", f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.WarehouseListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, b.ID, list.Items[0].ID)

	resp, raw = f.do(t, http.MethodGet, "/api/warehouses?include_inactive=true", f.sales, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list.Items, 2)

	name := "Centro Histórico"
	resp, raw = f.do(t, http.MethodPut, "/api/warehouses/"+a.ID, f.admin, dto.UpdateWarehouseRequest{Name: &name})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Contains(t, string(raw), "Centro Histórico")

	resp, _ = f.do(t, http.MethodDelete, "/api/warehouses/"+a.ID, f.admin, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/warehouses/"+a.ID, f.sales, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_Metricas(t *testing.T) {
	f := newAPI(t)
	f.warehouse(t, "Centro")
	f.do(t, http.MethodGet, "/api/inventory/products/nope/stock", f.sales, nil)

	resp, raw := f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(raw)
	assert.True(t, strings.Contains(text, `inventory_stock_operations_total{op="get_stock",result="not_found"} 1`), text)
	assert.Contains(t, text, `inventory_http_requests_total{method="POST"`)
}
