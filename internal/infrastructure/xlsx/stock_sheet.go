// Package xlsx exporta el reporte de reposición a Excel con excelize.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ inventory.StockSheetExporter = (*StockSheetExporter)(nil)

const (
	SheetLowStock   = "Stock bajo"
	SheetOutOfStock = "Agotados"
)

var headers = []interface{}{"SKU", "Producto", "Bodega", "Cantidad", "Con registro", "Precio"}

// StockSheetExporter genera un libro con una hoja por categoría.
type StockSheetExporter struct{}

// NewStockSheetExporter construye el exportador.
func NewStockSheetExporter() *StockSheetExporter { return &StockSheetExporter{} }

// ExportLowStockReport devuelve el XLSX serializado.
func (e *StockSheetExporter) ExportLowStockReport(report *inventory.StockReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("xlsx: reporte vacío")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetLowStock); err != nil {
		return nil, fmt.Errorf("xlsx: renombrar hoja: %w", err)
	}
	if _, err := f.NewSheet(SheetOutOfStock); err != nil {
		return nil, fmt.Errorf("xlsx: crear hoja: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}

	if err := writeSheet(f, SheetLowStock, report.LowStock, bold); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetOutOfStock, report.OutOfStock, bold); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: serializar: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, items []repository.StockAlertItem, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("xlsx: cabecera %s: %w", sheet, err)
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", headerStyle); err != nil {
		return fmt.Errorf("xlsx: estilo %s: %w", sheet, err)
	}
	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{it.SKU, it.ProductName, it.WarehouseName, it.Quantity, yesNo(it.HasRecord), it.Price.InexactFloat64()}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: fila %d de %s: %w", i+2, sheet, err)
		}
	}
	return f.SetColWidth(sheet, "B", "C", 28)
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
