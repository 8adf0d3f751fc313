package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SetStockRequest body para PUT /api/inventory/products/:productId/stock.
type SetStockRequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Quantity    *int   `json:"quantity" validate:"required"`
	Reason      string `json:"reason,omitempty" validate:"max=500"`
}

// TransferStockRequest body para POST /api/inventory/transfers.
type TransferStockRequest struct {
	ProductID         string `json:"product_id" validate:"required"`
	SourceWarehouseID string `json:"source_warehouse_id" validate:"required"`
	TargetWarehouseID string `json:"target_warehouse_id" validate:"required"`
	Quantity          int    `json:"quantity"`
	Reason            string `json:"reason,omitempty" validate:"max=500"`
}

// StockRecordDTO una celda del ledger.
type StockRecordDTO struct {
	WarehouseID string    `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockResponse stock de un producto por bodega con su total.
type StockResponse struct {
	ProductID   string           `json:"product_id"`
	WarehouseID string           `json:"warehouse_id,omitempty"`
	Records     []StockRecordDTO `json:"records"`
	Total       int              `json:"total"`
}

// MovementDTO entrada del historial.
type MovementDTO struct {
	ID               int64     `json:"id"`
	ProductID        string    `json:"product_id"`
	WarehouseID      string    `json:"warehouse_id"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Type             string    `json:"movement_type"`
	Description      string    `json:"description"`
	ActorUserID      string    `json:"actor_user_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// TransferResponse los dos movimientos de una transferencia.
type TransferResponse struct {
	Outbound MovementDTO `json:"outbound"`
	Inbound  MovementDTO `json:"inbound"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Items      []MovementDTO `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// StockAlertDTO fila de stock bajo o agotado.
type StockAlertDTO struct {
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	ProductName   string          `json:"product_name"`
	Price         decimal.Decimal `json:"price"`
	WarehouseID   string          `json:"warehouse_id,omitempty"`
	WarehouseName string          `json:"warehouse_name,omitempty"`
	Quantity      int             `json:"quantity"`
	HasRecord     bool            `json:"has_record"`
}

// LowStockResponse respuesta de GET /api/inventory/low-stock.
type LowStockResponse struct {
	Threshold int             `json:"threshold"`
	Items     []StockAlertDTO `json:"items"`
}

// OutOfStockResponse respuesta de GET /api/inventory/out-of-stock.
type OutOfStockResponse struct {
	Items []StockAlertDTO `json:"items"`
}
