package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
)

// StockCache caché de lectura de GetStock. Las implementaciones no devuelven error:
// un fallo de caché equivale a un miss.
//
// Cada producto tiene una generación que InvalidateProduct incrementa. Get y Set
// trabajan sobre la generación leída antes de consultar el ledger, así un llenado
// con datos previos a una invalidación queda en una generación que nadie vuelve a leer.
type StockCache interface {
	// Generation devuelve la generación vigente; false si la caché no está disponible.
	Generation(ctx context.Context, productID string) (int64, bool)
	Get(ctx context.Context, gen int64, productID, warehouseID string) (*StockSummary, bool)
	Set(ctx context.Context, gen int64, summary *StockSummary)
	InvalidateProduct(ctx context.Context, productID string)
}

// MovementPublisher publica los movimientos confirmados (después del commit).
type MovementPublisher interface {
	PublishMovements(ctx context.Context, movements []entity.StockMovement) error
}

// OperationObserver recibe duración y resultado de cada operación de stock (métricas).
type OperationObserver interface {
	ObserveStockOperation(op string, err error, elapsed time.Duration)
}

// StockReportGenerator genera el PDF de reposición.
type StockReportGenerator interface {
	GenerateLowStockReport(report *StockReport) ([]byte, error)
}

// StockSheetExporter exporta el reporte de reposición como XLSX.
type StockSheetExporter interface {
	ExportLowStockReport(report *StockReport) ([]byte, error)
}

type nopCache struct{}

func (nopCache) Generation(context.Context, string) (int64, bool)                 { return 0, false }
func (nopCache) Get(context.Context, int64, string, string) (*StockSummary, bool) { return nil, false }
func (nopCache) Set(context.Context, int64, *StockSummary)                        {}
func (nopCache) InvalidateProduct(context.Context, string)                        {}

type nopPublisher struct{}

func (nopPublisher) PublishMovements(context.Context, []entity.StockMovement) error { return nil }

type nopObserver struct{}

func (nopObserver) ObserveStockOperation(string, error, time.Duration) {}
