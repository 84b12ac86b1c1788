package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStock representa la existencia actual de un producto (tabla
// materializada). Solo se muta aplicando movimientos al libro; ningún
// subsistema escribe la cantidad directamente.
type ProductStock struct {
	CompanyID string
	ProductID string
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}
