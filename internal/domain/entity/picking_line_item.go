package entity

import "github.com/shopspring/decimal"

// Estados de una línea de picking.
const (
	LineStatusPending     = "pending"
	LineStatusFulfilled   = "fulfilled"
	LineStatusMissing     = "missing"
	LineStatusDamaged     = "damaged"
	LineStatusSubstituted = "substituted"
)

// PickingLineItem registro de alistamiento por línea de la orden.
// La sustitución guarda el producto reemplazante pero conserva el
// ProductID original para trazabilidad.
type PickingLineItem struct {
	ID                  string
	JobID               string
	OrderLineID         string
	ProductID           string
	QuantityRequested   decimal.Decimal
	QuantityFulfilled   decimal.Decimal
	Status              string
	SubstituteProductID string
	Notes               string
}

// IsValidLineStatus indica si el estado pertenece a la enumeración cerrada.
func IsValidLineStatus(status string) bool {
	switch status {
	case LineStatusPending, LineStatusFulfilled, LineStatusMissing,
		LineStatusDamaged, LineStatusSubstituted:
		return true
	}
	return false
}

// IsTerminalLineStatus indica si la línea ya fue procesada.
func IsTerminalLineStatus(status string) bool {
	return IsValidLineStatus(status) && status != LineStatusPending
}

// DeductProductID devuelve el producto a descargar del stock:
// el sustituto si existe, si no el original.
func (l *PickingLineItem) DeductProductID() string {
	if l.SubstituteProductID != "" {
		return l.SubstituteProductID
	}
	return l.ProductID
}

// IsPartial indica un short-ship: alistada con menos cantidad que la pedida.
func (l *PickingLineItem) IsPartial() bool {
	return (l.Status == LineStatusFulfilled || l.Status == LineStatusSubstituted) &&
		l.QuantityFulfilled.GreaterThan(decimal.Zero) &&
		l.QuantityFulfilled.LessThan(l.QuantityRequested)
}

// ValidateOutcome verifica los invariantes de estado/cantidad de la línea:
// 0 ≤ alistado ≤ pedido; alistado > 0 solo en fulfilled/substituted;
// missing y damaged exigen alistado = 0; substituted exige producto sustituto.
func (l *PickingLineItem) ValidateOutcome() error {
	if !IsValidLineStatus(l.Status) {
		return errInvalidLine("estado desconocido")
	}
	if l.QuantityFulfilled.LessThan(decimal.Zero) ||
		l.QuantityFulfilled.GreaterThan(l.QuantityRequested) ||
		!l.QuantityFulfilled.IsInteger() {
		return errInvalidLine("cantidad fuera de rango")
	}
	switch l.Status {
	case LineStatusFulfilled, LineStatusSubstituted:
		if !l.QuantityFulfilled.GreaterThan(decimal.Zero) {
			return errInvalidLine("fulfilled/substituted exige cantidad > 0")
		}
		if l.Status == LineStatusSubstituted && l.SubstituteProductID == "" {
			return errInvalidLine("substituted exige producto sustituto")
		}
	case LineStatusMissing, LineStatusDamaged:
		if !l.QuantityFulfilled.IsZero() {
			return errInvalidLine("missing/damaged exige cantidad 0")
		}
	}
	return nil
}

type lineValidationError struct{ reason string }

func (e *lineValidationError) Error() string { return "línea de picking inválida: " + e.reason }

func errInvalidLine(reason string) error { return &lineValidationError{reason: reason} }
