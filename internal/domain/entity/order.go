package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de venta respecto al ciclo de alistamiento.
// in_fulfillment bloquea la orden contra ediciones concurrentes mientras
// existe un picking activo.
const (
	OrderStatusEligible            = "eligible"                      // elegible para alistamiento
	OrderStatusInFulfillment       = "in_fulfillment"                // picking en curso
	OrderStatusPendingVerification = "fulfilled_pending_verification" // alistada, pendiente de verificación
	OrderStatusPendingAdjustment   = "pending_adjustment"            // con novedades por resolver
)

// Order cabecera de una orden de venta. IssueReport se persiste como blob
// estructurado sobre la orden: siempre se consume y se limpia de forma
// atómica con la resolución.
type Order struct {
	ID          string
	CompanyID   string
	CustomerID  string
	Status      string
	Subtotal    decimal.Decimal
	Total       decimal.Decimal
	IssueReport *IssueReport
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderLine línea de una orden de venta.
type OrderLine struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // monto de descuento por línea
	LineTotal decimal.Decimal
}

// ComputeLineTotal recalcula el total de la línea a partir de cantidad,
// precio y descuento. Nunca negativo.
func (l *OrderLine) ComputeLineTotal() decimal.Decimal {
	total := l.Quantity.Mul(l.UnitPrice).Sub(l.Discount)
	if total.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return total
}

// OrderTotals recalcula subtotal y total desde las líneas restantes.
// El cálculo de impuestos es responsabilidad del colaborador fiscal.
func OrderTotals(lines []*OrderLine) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.ComputeLineTotal())
	}
	return subtotal, subtotal
}
