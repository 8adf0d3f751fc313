package kafka

import "time"

// StockMovementEvent evento publicado por cada movimiento confirmado.
type StockMovementEvent struct {
	EventID          string    `json:"event_id"`
	EventType        string    `json:"event_type"`
	MovementID       int64     `json:"movement_id"`
	ProductID        string    `json:"product_id"`
	WarehouseID      string    `json:"warehouse_id"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Delta            int       `json:"delta"`
	MovementType     string    `json:"movement_type"`
	Description      string    `json:"description"`
	ActorUserID      string    `json:"actor_user_id,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
	Timestamp        time.Time `json:"timestamp"`
}

const (
	EventTypeStockMovement = "inventory.stock_movement"
)
