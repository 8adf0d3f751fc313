// Package pdf genera el reporte de reposición (stock bajo y agotado) con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + bodega        │  Fecha + umbral            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  STOCK BAJO: SKU | Producto | Bodega | Cant. | Precio        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  AGOTADOS:   SKU | Producto | Bodega | Estado | Precio       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: totales                                             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

var _ inventory.StockReportGenerator = (*MarotoStockReportGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// MarotoStockReportGenerator implementa inventory.StockReportGenerator usando Maroto v2.
type MarotoStockReportGenerator struct{}

// NewMarotoStockReportGenerator construye el generador.
func NewMarotoStockReportGenerator() *MarotoStockReportGenerator {
	return &MarotoStockReportGenerator{}
}

// GenerateLowStockReport genera el PDF y devuelve sus bytes.
func (g *MarotoStockReportGenerator) GenerateLowStockReport(report *inventory.StockReport) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("pdf: reporte vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de reposición de stock", true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(sectionRow(fmt.Sprintf("STOCK BAJO (cantidad <= %d)", report.Threshold), colorPrimary))
	m.AddRows(tableHeaderRow("Cant."))
	m.AddRows(itemRows(report.LowStock, func(it repository.StockAlertItem) string {
		return strconv.Itoa(it.Quantity)
	})...)

	m.AddRows(line.NewRow(4))
	m.AddRows(sectionRow("AGOTADOS", colorDanger))
	m.AddRows(tableHeaderRow("Estado"))
	m.AddRows(itemRows(report.OutOfStock, func(it repository.StockAlertItem) string {
		if it.HasRecord {
			return "0"
		}
		return "sin registro"
	})...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(report *inventory.StockReport) core.Row {
	scope := "Todas las bodegas"
	if report.WarehouseID != "" {
		scope = "Bodega: " + nonEmpty(report.WarehouseName, report.WarehouseID)
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New("REPORTE DE REPOSICIÓN", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New(scope, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Fecha: "+report.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
			text.New(fmt.Sprintf("Umbral: %d", report.Threshold), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func sectionRow(title string, color *props.Color) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: color, Top: 1}),
	))
}

func tableHeaderRow(qtyLabel string) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
		}))
	}
	return row.New(6).Add(
		h("SKU", 2, align.Left),
		h("Producto", 4, align.Left),
		h("Bodega", 3, align.Left),
		h(qtyLabel, 1, align.Center),
		h("Precio", 2, align.Right),
	)
}

func itemRows(items []repository.StockAlertItem, qty func(repository.StockAlertItem) string) []core.Row {
	if len(items) == 0 {
		return []core.Row{row.New(6).Add(col.New(12).Add(
			text.New("Sin productos en esta categoría.", props.Text{Size: 8, Color: colorGray, Top: 1, Left: 1}),
		))}
	}
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(it.SKU, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(4).Add(text.New(it.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(nonEmpty(it.WarehouseName, "—"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(qty(it), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("$"+formatMoney(it.Price.StringFixed(0)), props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 1,
			})),
		))
	}
	return rows
}

func footerRow(report *inventory.StockReport) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(fmt.Sprintf("Stock bajo: %d   |   Agotados: %d", len(report.LowStock), len(report.OutOfStock)), props.Text{
			Size: 8, Top: 2, Color: colorGray, Align: align.Right,
		}),
	))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
