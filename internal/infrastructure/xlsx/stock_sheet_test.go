package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

func TestExportLowStockReport(t *testing.T) {
	raw, err := NewStockSheetExporter().ExportLowStockReport(&inventory.StockReport{
		GeneratedAt: time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC),
		Threshold:   5,
		LowStock: []repository.StockAlertItem{
			{SKU: "SKU-1", ProductName: "Tornillo", WarehouseName: "Centro", Quantity: 3, HasRecord: true, Price: decimal.NewFromInt(1500)},
		},
		OutOfStock: []repository.StockAlertItem{
			{SKU: "SKU-2", ProductName: "Tuerca", Price: decimal.NewFromInt(800)},
		},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetLowStock, SheetOutOfStock}, f.GetSheetList())

	rows, err := f.GetRows(SheetLowStock)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SKU", rows[0][0])
	assert.Equal(t, []string{"SKU-1", "Tornillo", "Centro", "3", "sí", "1500"}, rows[1])

	rows, err = f.GetRows(SheetOutOfStock)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "no", rows[1][4])
}

func TestExportLowStockReport_Nil(t *testing.T) {
	_, err := NewStockSheetExporter().ExportLowStockReport(nil)
	assert.Error(t, err)
}
