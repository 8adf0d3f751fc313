package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un SKU del catálogo. Este servicio solo lo lee
// (existencia, estado activo y datos para reportes).
type Product struct {
	ID        string
	SKU       string
	Name      string
	Price     decimal.Decimal // precio de venta
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
