package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-stock/internal/application/dto"
	"github.com/jhoicas/Inventario-stock/internal/application/inventory"
	"github.com/jhoicas/Inventario-stock/internal/domain/entity"
	"github.com/jhoicas/Inventario-stock/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP de stock y movimientos (protegido).
type InventoryHandler struct {
	uc *inventory.StockUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.StockUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// GetStock godoc
// @Summary      Stock de un producto por bodega
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        productId     path   string  true   "ID del producto"
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{productId}/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	summary, err := h.uc.GetStock(c.UserContext(), c.Params("productId"), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	records := make([]dto.StockRecordDTO, 0, len(summary.Records))
	for _, r := range summary.Records {
		records = append(records, dto.StockRecordDTO{WarehouseID: r.WarehouseID, Quantity: r.Quantity, UpdatedAt: r.UpdatedAt})
	}
	return c.JSON(dto.StockResponse{
		ProductID:   summary.ProductID,
		WarehouseID: summary.WarehouseID,
		Records:     records,
		Total:       summary.Total,
	})
}

// SetStock godoc
// @Summary      Fijar la cantidad de un producto en una bodega
// @Description  Registra un movimiento IN u OUT con la cantidad anterior y la nueva.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId  path  string               true  "ID del producto"
// @Param        body       body  dto.SetStockRequest  true  "warehouse_id, quantity, reason"
// @Success      200  {object}  dto.MovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{productId}/stock [put]
func (h *InventoryHandler) SetStock(c *fiber.Ctx) error {
	var in dto.SetStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	movement, err := h.uc.SetStock(c.UserContext(), inventory.SetStockInput{
		ProductID:   c.Params("productId"),
		WarehouseID: in.WarehouseID,
		Quantity:    *in.Quantity,
		ActorID:     GetUserID(c),
		Reason:      in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toMovementDTO(movement))
}

// Transfer godoc
// @Summary      Transferir stock entre bodegas
// @Description  Operación atómica: registra un OUT en el origen y un IN en el destino.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "product_id, source/target warehouse, quantity, reason"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.InsufficientStockResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	res, err := h.uc.TransferStock(c.UserContext(), inventory.TransferInput{
		ProductID:         in.ProductID,
		SourceWarehouseID: in.SourceWarehouseID,
		TargetWarehouseID: in.TargetWarehouseID,
		Quantity:          in.Quantity,
		ActorID:           GetUserID(c),
		Reason:            in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		Outbound: toMovementDTO(res.Outbound),
		Inbound:  toMovementDTO(res.Inbound),
	})
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Producto"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Param        type          query  string  false  "IN u OUT"
// @Param        actor_id      query  string  false  "Usuario"
// @Param        from          query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to            query  string  false  "Hasta (RFC3339 o YYYY-MM-DD, inclusive)"
// @Param        page          query  int     false  "Página (1-based)"
// @Param        page_size     query  int     false  "Tamaño de página"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	filter := repository.MovementFilter{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		Type:        c.Query("type"),
		ActorID:     c.Query("actor_id"),
	}
	var err error
	if filter.From, err = parseTimeQuery(c.Query("from"), false); err != nil {
		return invalidQuery(c, "from inválido")
	}
	if filter.To, err = parseTimeQuery(c.Query("to"), true); err != nil {
		return invalidQuery(c, "to inválido")
	}
	page, err := intQuery(c, "page")
	if err != nil {
		return invalidQuery(c, "page debe ser numérico")
	}
	size, err := intQuery(c, "page_size")
	if err != nil {
		return invalidQuery(c, "page_size debe ser numérico")
	}

	out, err := h.uc.GetMovementHistory(c.UserContext(), filter, inventory.PageQuery{Page: page, PageSize: size})
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.MovementDTO, 0, len(out.Items))
	for _, m := range out.Items {
		items = append(items, toMovementDTO(m))
	}
	return c.JSON(dto.MovementListResponse{
		Items:      items,
		Total:      out.Total,
		Page:       out.Page,
		PageSize:   out.PageSize,
		TotalPages: out.TotalPages,
	})
}

// LowStock godoc
// @Summary      Productos con stock bajo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        threshold     query  int     false  "Umbral (por defecto el configurado)"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {object}  dto.LowStockResponse
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	threshold, err := intQuery(c, "threshold")
	if err != nil {
		return invalidQuery(c, "threshold debe ser numérico")
	}
	view, err := h.uc.GetLowStockProducts(c.UserContext(), threshold, c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.LowStockResponse{Threshold: view.Threshold, Items: toAlertDTOs(view.Items)})
}

// OutOfStock godoc
// @Summary      Productos agotados
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {object}  dto.OutOfStockResponse
// @Router       /api/inventory/out-of-stock [get]
func (h *InventoryHandler) OutOfStock(c *fiber.Ctx) error {
	items, err := h.uc.GetOutOfStockProducts(c.UserContext(), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OutOfStockResponse{Items: toAlertDTOs(items)})
}

// LowStockReport godoc
// @Summary      Reporte PDF de reposición
// @Tags         inventory
// @Security     Bearer
// @Produce      application/pdf
// @Param        threshold     query  int     false  "Umbral"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {file}  binary
// @Router       /api/inventory/reports/low-stock.pdf [get]
func (h *InventoryHandler) LowStockReport(c *fiber.Ctx) error {
	threshold, err := intQuery(c, "threshold")
	if err != nil {
		return invalidQuery(c, "threshold debe ser numérico")
	}
	pdf, err := h.uc.LowStockReportPDF(c.UserContext(), threshold, c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="reposicion.pdf"`)
	return c.Send(pdf)
}

// LowStockSheet godoc
// @Summary      Reporte XLSX de reposición
// @Tags         inventory
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        threshold     query  int     false  "Umbral"
// @Param        warehouse_id  query  string  false  "Bodega"
// @Success      200  {file}  binary
// @Router       /api/inventory/reports/low-stock.xlsx [get]
func (h *InventoryHandler) LowStockSheet(c *fiber.Ctx) error {
	threshold, err := intQuery(c, "threshold")
	if err != nil {
		return invalidQuery(c, "threshold debe ser numérico")
	}
	book, err := h.uc.LowStockReportXLSX(c.UserContext(), threshold, c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="reposicion.xlsx"`)
	return c.Send(book)
}

func toMovementDTO(m *entity.StockMovement) dto.MovementDTO {
	if m == nil {
		return dto.MovementDTO{}
	}
	return dto.MovementDTO{
		ID:               m.ID,
		ProductID:        m.ProductID,
		WarehouseID:      m.WarehouseID,
		PreviousQuantity: m.PreviousQuantity,
		NewQuantity:      m.NewQuantity,
		Type:             m.Type,
		Description:      m.Description,
		ActorUserID:      m.CreatedBy,
		CreatedAt:        m.CreatedAt,
	}
}

func toAlertDTOs(items []repository.StockAlertItem) []dto.StockAlertDTO {
	out := make([]dto.StockAlertDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.StockAlertDTO{
			ProductID:     it.ProductID,
			SKU:           it.SKU,
			ProductName:   it.ProductName,
			Price:         it.Price,
			WarehouseID:   it.WarehouseID,
			WarehouseName: it.WarehouseName,
			Quantity:      it.Quantity,
			HasRecord:     it.HasRecord,
		})
	}
	return out
}

func intQuery(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// parseTimeQuery acepta RFC3339 o fecha YYYY-MM-DD. Con endOfDay, una fecha sola cubre el día completo.
func parseTimeQuery(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
