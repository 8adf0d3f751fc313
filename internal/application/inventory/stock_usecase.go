package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-stock/internal/application/ports"
	"github.com/jhoicas/Inventario-stock/internal/domain"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	invdomain "github.com/jhoicas/Inventario-stock/internal/domain/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
	"github.com/jhoicas/Inventario-stock/pkg/logger"
)

// Nombres de operación usados en logs y métricas.
const (
	OpGetStock        = "get_stock"
	OpSetStock        = "set_stock"
	OpTransferStock   = "transfer_stock"
	OpMovementHistory = "movement_history"
	OpLowStock        = "low_stock"
	OpOutOfStock      = "out_of_stock"
	OpLowStockReport  = "low_stock_report"
	OpLowStockSheet   = "low_stock_sheet"
)

// Settings parámetros de negocio (vienen de config.InventoryConfig).
type Settings struct {
	LowStockThreshold int
	DefaultPageSize   int
	MaxPageSize       int
}

// Deps dependencias del caso de uso. Cache, Publisher, Observer y Logger son opcionales.
type Deps struct {
	Tx         ports.TxRunner
	Stock      repository.StockRepository
	Movements  repository.StockMovementRepository
	Warehouses repository.WarehouseRepository
	Products   repository.ProductRepository
	Cache      StockCache
	Publisher  MovementPublisher
	Observer   OperationObserver
	Reports    StockReportGenerator
	Sheets     StockSheetExporter
	Logger     *logger.Logger
	Settings   Settings
	Now        func() time.Time
}

// StockUseCase operaciones sobre el ledger de stock y su historial.
// Es el único componente que escribe stock y stock_movements.
type StockUseCase struct {
	tx         ports.TxRunner
	stock      repository.StockRepository
	movements  repository.StockMovementRepository
	warehouses repository.WarehouseRepository
	products   repository.ProductRepository
	cache      StockCache
	publisher  MovementPublisher
	observer   OperationObserver
	reports    StockReportGenerator
	sheets     StockSheetExporter
	log        *logger.Logger
	settings   Settings
	now        func() time.Time
}

// NewStockUseCase construye el caso de uso aplicando defaults a lo opcional.
func NewStockUseCase(d Deps) *StockUseCase {
	uc := &StockUseCase{
		tx:         d.Tx,
		stock:      d.Stock,
		movements:  d.Movements,
		warehouses: d.Warehouses,
		products:   d.Products,
		cache:      d.Cache,
		publisher:  d.Publisher,
		observer:   d.Observer,
		reports:    d.Reports,
		sheets:     d.Sheets,
		log:        d.Logger,
		settings:   d.Settings,
		now:        d.Now,
	}
	if uc.cache == nil {
		uc.cache = nopCache{}
	}
	if uc.publisher == nil {
		uc.publisher = nopPublisher{}
	}
	if uc.observer == nil {
		uc.observer = nopObserver{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.settings.LowStockThreshold <= 0 {
		uc.settings.LowStockThreshold = 5
	}
	if uc.settings.DefaultPageSize <= 0 {
		uc.settings.DefaultPageSize = 20
	}
	if uc.settings.MaxPageSize < uc.settings.DefaultPageSize {
		uc.settings.MaxPageSize = uc.settings.DefaultPageSize
	}
	return uc
}

// StockSummary filas de stock de un producto y su suma.
type StockSummary struct {
	ProductID   string         `json:"product_id"`
	WarehouseID string         `json:"warehouse_id,omitempty"`
	Records     []entity.Stock `json:"records"`
	Total       int            `json:"total"`
}

// SetStockInput entrada de SetStock. Reason vacío usa la descripción por defecto.
type SetStockInput struct {
	ProductID   string
	WarehouseID string
	Quantity    int
	ActorID     string
	Reason      string
}

// TransferInput entrada de TransferStock.
type TransferInput struct {
	ProductID         string
	SourceWarehouseID string
	TargetWarehouseID string
	Quantity          int
	ActorID           string
	Reason            string
}

// TransferResult los dos movimientos generados: débito en origen y crédito en destino.
type TransferResult struct {
	Outbound *entity.StockMovement
	Inbound  *entity.StockMovement
}

// PageQuery página pedida (1-based). Cero usa los defaults.
type PageQuery struct {
	Page     int
	PageSize int
}

// MovementPage página del historial.
type MovementPage struct {
	Items      []*entity.StockMovement
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// LowStockView resultado de GetLowStockProducts con el umbral efectivamente aplicado.
type LowStockView struct {
	Threshold int
	Items     []repository.StockAlertItem
}

// StockReport datos del PDF de reposición.
type StockReport struct {
	GeneratedAt   time.Time
	Threshold     int
	WarehouseID   string
	WarehouseName string
	LowStock      []repository.StockAlertItem
	OutOfStock    []repository.StockAlertItem
}

// GetStock devuelve las filas del producto (opcionalmente de una bodega) y el total.
func (uc *StockUseCase) GetStock(ctx context.Context, productID, warehouseID string) (_ *StockSummary, err error) {
	defer uc.observe(OpGetStock, uc.now(), &err)

	productID = strings.TrimSpace(productID)
	warehouseID = strings.TrimSpace(warehouseID)
	if productID == "" {
		return nil, domain.Invalid("product_id es obligatorio")
	}
	gen, cacheable := uc.cache.Generation(ctx, productID)
	if cacheable {
		if cached, ok := uc.cache.Get(ctx, gen, productID, warehouseID); ok {
			return cached, nil
		}
	}

	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, uc.fail(OpGetStock, err, productID, warehouseID, "")
	}
	if product == nil {
		return nil, domain.NotFound("producto %s no existe", productID)
	}

	rows, err := uc.stock.ListByProduct(ctx, productID, warehouseID)
	if err != nil {
		return nil, uc.fail(OpGetStock, err, productID, warehouseID, "")
	}
	summary := &StockSummary{ProductID: productID, WarehouseID: warehouseID, Records: make([]entity.Stock, 0, len(rows))}
	for _, r := range rows {
		summary.Records = append(summary.Records, *r)
		summary.Total += r.Quantity
	}
	if cacheable {
		uc.cache.Set(ctx, gen, summary)
	}
	return summary, nil
}

// SetStock fija la cantidad de la celda (producto, bodega) y registra el movimiento en la misma transacción.
func (uc *StockUseCase) SetStock(ctx context.Context, in SetStockInput) (_ *entity.StockMovement, err error) {
	defer uc.observe(OpSetStock, uc.now(), &err)

	in.ProductID = strings.TrimSpace(in.ProductID)
	in.WarehouseID = strings.TrimSpace(in.WarehouseID)
	if in.ProductID == "" || in.WarehouseID == "" {
		return nil, domain.Invalid("product_id y warehouse_id son obligatorios")
	}
	if in.Quantity < 0 {
		return nil, domain.Invalid("la cantidad no puede ser negativa (%d)", in.Quantity)
	}

	now := uc.now()
	var mov *entity.StockMovement
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		if err := requireProduct(ctx, repos.Products, in.ProductID); err != nil {
			return err
		}
		if _, err := requireWarehouse(ctx, repos.Warehouses, in.WarehouseID); err != nil {
			return err
		}
		description := invdomain.ReasonOrDefault(in.Reason, invdomain.DefaultSetReason)
		var err error
		mov, err = applyStock(ctx, repos, in.ProductID, in.WarehouseID, in.Quantity, description, in.ActorID, now)
		return err
	})
	if err != nil {
		return nil, uc.fail(OpSetStock, err, in.ProductID, in.WarehouseID, in.ActorID)
	}

	uc.afterCommit(ctx, in.ProductID, *mov)
	return mov, nil
}

// TransferStock mueve quantity unidades entre dos bodegas: débito y crédito en una sola transacción.
// Las dos celdas se bloquean en orden ascendente de warehouse_id.
func (uc *StockUseCase) TransferStock(ctx context.Context, in TransferInput) (_ *TransferResult, err error) {
	defer uc.observe(OpTransferStock, uc.now(), &err)

	in.ProductID = strings.TrimSpace(in.ProductID)
	in.SourceWarehouseID = strings.TrimSpace(in.SourceWarehouseID)
	in.TargetWarehouseID = strings.TrimSpace(in.TargetWarehouseID)
	if in.ProductID == "" || in.SourceWarehouseID == "" || in.TargetWarehouseID == "" {
		return nil, domain.Invalid("product_id, bodega origen y bodega destino son obligatorios")
	}
	if in.SourceWarehouseID == in.TargetWarehouseID {
		return nil, domain.Invalid("la bodega origen y destino deben ser distintas")
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("la cantidad a transferir debe ser mayor a cero (%d)", in.Quantity)
	}

	now := uc.now()
	result := &TransferResult{}
	err = uc.tx.Run(ctx, func(repos ports.TxRepos) error {
		if err := requireProduct(ctx, repos.Products, in.ProductID); err != nil {
			return err
		}
		source, err := requireWarehouse(ctx, repos.Warehouses, in.SourceWarehouseID)
		if err != nil {
			return err
		}
		target, err := requireWarehouse(ctx, repos.Warehouses, in.TargetWarehouseID)
		if err != nil {
			return err
		}

		first, second := in.SourceWarehouseID, in.TargetWarehouseID
		if second < first {
			first, second = second, first
		}
		cells := make(map[string]*entity.Stock, 2)
		for _, wid := range []string{first, second} {
			cell, err := repos.Stock.GetForUpdate(ctx, in.ProductID, wid)
			if err != nil {
				return err
			}
			cells[wid] = cell
		}

		available := cells[in.SourceWarehouseID].Quantity
		if available < in.Quantity {
			return &domain.InsufficientStockError{Available: available, Requested: in.Quantity}
		}
		targetQty := cells[in.TargetWarehouseID].Quantity

		result.Outbound, err = applyStock(ctx, repos, in.ProductID, source.ID, available-in.Quantity,
			invdomain.TransferOutDescription(target.Code, in.Reason), in.ActorID, now)
		if err != nil {
			return err
		}
		result.Inbound, err = applyStock(ctx, repos, in.ProductID, target.ID, targetQty+in.Quantity,
			invdomain.TransferInDescription(source.Code, in.Reason), in.ActorID, now)
		return err
	})
	if err != nil {
		return nil, uc.fail(OpTransferStock, err, in.ProductID, in.SourceWarehouseID, in.ActorID)
	}

	uc.afterCommit(ctx, in.ProductID, *result.Outbound, *result.Inbound)
	return result, nil
}

// GetMovementHistory historial filtrado, más reciente primero.
func (uc *StockUseCase) GetMovementHistory(ctx context.Context, filter repository.MovementFilter, page PageQuery) (_ *MovementPage, err error) {
	defer uc.observe(OpMovementHistory, uc.now(), &err)

	filter.Type = strings.ToUpper(strings.TrimSpace(filter.Type))
	if filter.Type != "" && !invdomain.IsValidMovementType(filter.Type) {
		return nil, domain.Invalid("tipo de movimiento inválido: %s", filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, domain.Invalid("rango de fechas inválido: from es posterior a to")
	}

	if page.Page < 1 {
		page.Page = 1
	}
	if page.PageSize <= 0 {
		page.PageSize = uc.settings.DefaultPageSize
	}
	if page.PageSize > uc.settings.MaxPageSize {
		page.PageSize = uc.settings.MaxPageSize
	}

	items, total, err := uc.movements.List(ctx, filter, page.PageSize, (page.Page-1)*page.PageSize)
	if err != nil {
		return nil, uc.fail(OpMovementHistory, err, filter.ProductID, filter.WarehouseID, filter.ActorID)
	}
	if items == nil {
		items = []*entity.StockMovement{}
	}
	return &MovementPage{
		Items:      items,
		Total:      total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: (total + page.PageSize - 1) / page.PageSize,
	}, nil
}

// GetLowStockProducts filas con 0 < cantidad <= threshold. threshold <= 0 usa el umbral configurado.
func (uc *StockUseCase) GetLowStockProducts(ctx context.Context, threshold int, warehouseID string) (_ *LowStockView, err error) {
	defer uc.observe(OpLowStock, uc.now(), &err)

	if threshold <= 0 {
		threshold = uc.settings.LowStockThreshold
	}
	warehouseID = strings.TrimSpace(warehouseID)
	if err := uc.checkWarehouseFilter(ctx, warehouseID); err != nil {
		return nil, uc.fail(OpLowStock, err, "", warehouseID, "")
	}
	items, err := uc.stock.ListLowStock(ctx, threshold, warehouseID)
	if err != nil {
		return nil, uc.fail(OpLowStock, err, "", warehouseID, "")
	}
	if items == nil {
		items = []repository.StockAlertItem{}
	}
	return &LowStockView{Threshold: threshold, Items: items}, nil
}

// GetOutOfStockProducts productos activos sin fila o con fila en cero.
func (uc *StockUseCase) GetOutOfStockProducts(ctx context.Context, warehouseID string) (_ []repository.StockAlertItem, err error) {
	defer uc.observe(OpOutOfStock, uc.now(), &err)

	warehouseID = strings.TrimSpace(warehouseID)
	if err := uc.checkWarehouseFilter(ctx, warehouseID); err != nil {
		return nil, uc.fail(OpOutOfStock, err, "", warehouseID, "")
	}
	items, err := uc.stock.ListOutOfStock(ctx, warehouseID)
	if err != nil {
		return nil, uc.fail(OpOutOfStock, err, "", warehouseID, "")
	}
	if items == nil {
		items = []repository.StockAlertItem{}
	}
	return items, nil
}

// LowStockReportPDF genera la hoja de reposición (stock bajo + agotados) en PDF.
func (uc *StockUseCase) LowStockReportPDF(ctx context.Context, threshold int, warehouseID string) (_ []byte, err error) {
	defer uc.observe(OpLowStockReport, uc.now(), &err)

	if uc.reports == nil {
		return nil, uc.fail(OpLowStockReport, errors.New("generador de reportes no configurado"), "", warehouseID, "")
	}
	report, err := uc.buildReport(ctx, OpLowStockReport, threshold, warehouseID)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.reports.GenerateLowStockReport(report)
	if err != nil {
		return nil, uc.fail(OpLowStockReport, err, "", report.WarehouseID, "")
	}
	return pdf, nil
}

// LowStockReportXLSX misma hoja de reposición como libro de Excel.
func (uc *StockUseCase) LowStockReportXLSX(ctx context.Context, threshold int, warehouseID string) (_ []byte, err error) {
	defer uc.observe(OpLowStockSheet, uc.now(), &err)

	if uc.sheets == nil {
		return nil, uc.fail(OpLowStockSheet, errors.New("exportador de hojas de cálculo no configurado"), "", warehouseID, "")
	}
	report, err := uc.buildReport(ctx, OpLowStockSheet, threshold, warehouseID)
	if err != nil {
		return nil, err
	}
	book, err := uc.sheets.ExportLowStockReport(report)
	if err != nil {
		return nil, uc.fail(OpLowStockSheet, err, "", report.WarehouseID, "")
	}
	return book, nil
}

func (uc *StockUseCase) buildReport(ctx context.Context, op string, threshold int, warehouseID string) (*StockReport, error) {
	low, err := uc.GetLowStockProducts(ctx, threshold, warehouseID)
	if err != nil {
		return nil, err
	}
	out, err := uc.GetOutOfStockProducts(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	report := &StockReport{
		GeneratedAt: uc.now(),
		Threshold:   low.Threshold,
		WarehouseID: strings.TrimSpace(warehouseID),
		LowStock:    low.Items,
		OutOfStock:  out,
	}
	if report.WarehouseID != "" {
		wh, err := uc.warehouses.GetByID(ctx, report.WarehouseID)
		if err != nil {
			return nil, uc.fail(op, err, "", report.WarehouseID, "")
		}
		if wh != nil {
			report.WarehouseName = wh.Name
		}
	}
	return report, nil
}

// applyStock paso común de SetStock y TransferStock: bloquea la celda, la fija en newQty
// y agrega el movimiento correspondiente.
func applyStock(ctx context.Context, repos ports.TxRepos, productID, warehouseID string, newQty int, description, actorID string, now time.Time) (*entity.StockMovement, error) {
	cell, err := repos.Stock.GetForUpdate(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	previous := cell.Quantity
	cell.Quantity = newQty
	cell.UpdatedAt = now
	if err := repos.Stock.Upsert(ctx, cell); err != nil {
		return nil, err
	}
	mov := &entity.StockMovement{
		ProductID:        productID,
		WarehouseID:      warehouseID,
		PreviousQuantity: previous,
		NewQuantity:      newQty,
		Type:             invdomain.MovementTypeFor(previous, newQty),
		Description:      description,
		CreatedBy:        actorID,
		CreatedAt:        now,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func requireProduct(ctx context.Context, repo repository.ProductRepository, id string) error {
	p, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.NotFound("producto %s no existe", id)
	}
	return nil
}

func requireWarehouse(ctx context.Context, repo repository.WarehouseRepository, id string) (*entity.Warehouse, error) {
	w, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.NotFound("bodega %s no existe", id)
	}
	return w, nil
}

func (uc *StockUseCase) checkWarehouseFilter(ctx context.Context, warehouseID string) error {
	if warehouseID == "" {
		return nil
	}
	_, err := requireWarehouse(ctx, uc.warehouses, warehouseID)
	return err
}

// afterCommit invalida la caché del producto y publica los movimientos. Nunca falla la operación.
func (uc *StockUseCase) afterCommit(ctx context.Context, productID string, movements ...entity.StockMovement) {
	uc.cache.InvalidateProduct(ctx, productID)
	if err := uc.publisher.PublishMovements(ctx, movements); err != nil {
		uc.log.Warn().Err(err).Str("product_id", productID).Int("movements", len(movements)).
			Msg("no se pudieron publicar los movimientos de stock")
	}
}

// fail registra los fallos de infraestructura y los devuelve como PersistenceError.
// Los errores de dominio pasan sin cambios.
func (uc *StockUseCase) fail(op string, err error, productID, warehouseID, actorID string) error {
	if domain.IsDomainError(err) {
		return err
	}
	uc.log.Error().Err(err).
		Str("op", op).
		Str("product_id", productID).
		Str("warehouse_id", warehouseID).
		Str("actor_id", actorID).
		Msg("fallo de persistencia en operación de stock")
	return domain.Persistence(op, err)
}

func (uc *StockUseCase) observe(op string, start time.Time, err *error) {
	uc.observer.ObserveStockOperation(op, *err, uc.now().Sub(start))
}
