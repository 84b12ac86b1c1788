package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock (enumeración cerrada).
// El signo del movimiento lo implica el tipo; Quantity siempre es positiva.
const (
	MovementTypeInPurchase       = "in_purchase"        // entrada por compra
	MovementTypeInManual         = "in_manual"          // entrada manual
	MovementTypeInAdjustment     = "in_adjustment"      // ajuste positivo
	MovementTypeInCustomerReturn = "in_customer_return" // devolución de cliente
	MovementTypeInSupplierReturn = "in_supplier_return" // devolución a proveedor (reingreso)
	MovementTypeOutSale          = "out_sale"           // salida por venta
	MovementTypeOutManual        = "out_manual"         // salida manual
	MovementTypeOutAdjustment    = "out_adjustment"     // ajuste negativo
	MovementTypeOutPicking       = "out_picking"        // descarga por picking finalizado
	MovementTypeTransfer         = "transfer"           // traslado entre ubicaciones (neutro)
)

// Tipos de referencia polimórfica de un movimiento (kind + id, no FK por tipo).
const (
	ReferenceNone       = "none"
	ReferenceSale       = "sale"
	ReferencePickingJob = "picking_job"
	ReferenceInvoice    = "invoice"
)

// MovementReference apunta al documento que originó el movimiento.
type MovementReference struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// NoReference referencia vacía (movimientos manuales).
func NoReference() MovementReference {
	return MovementReference{Kind: ReferenceNone}
}

// StockMovement es una entrada del libro de movimientos de stock: inmutable,
// con saldo anterior/posterior desnormalizado al momento de la escritura.
// Las correcciones son entradas nuevas, nunca ediciones.
type StockMovement struct {
	ID            string
	CompanyID     string
	ProductID     string
	Type          string
	Quantity      decimal.Decimal // siempre > 0; el signo lo da el tipo
	BalanceBefore decimal.NullDecimal
	BalanceAfter  decimal.NullDecimal
	Reference     MovementReference
	FromLocation  string // solo transfer
	ToLocation    string // solo transfer
	Notes         string
	ActorID       string
	OccurredAt    time.Time
	Sequence      int64 // asignado por la BD dentro de la misma transacción
	CreatedAt     time.Time
}

// MovementSign devuelve +1 para entradas, -1 para salidas y 0 para traslados
// (neutros sobre el total de la empresa).
func MovementSign(movType string) int {
	switch movType {
	case MovementTypeInPurchase, MovementTypeInManual, MovementTypeInAdjustment,
		MovementTypeInCustomerReturn, MovementTypeInSupplierReturn:
		return 1
	case MovementTypeOutSale, MovementTypeOutManual, MovementTypeOutAdjustment,
		MovementTypeOutPicking:
		return -1
	case MovementTypeTransfer:
		return 0
	}
	return 0
}

// IsValidMovementType indica si el tipo pertenece a la enumeración cerrada.
func IsValidMovementType(movType string) bool {
	switch movType {
	case MovementTypeInPurchase, MovementTypeInManual, MovementTypeInAdjustment,
		MovementTypeInCustomerReturn, MovementTypeInSupplierReturn,
		MovementTypeOutSale, MovementTypeOutManual, MovementTypeOutAdjustment,
		MovementTypeOutPicking, MovementTypeTransfer:
		return true
	}
	return false
}

// legacyMovementTypes mapea los strings libres del sistema anterior a la
// enumeración cerrada. El mapeo ocurre en la frontera de ingestión; los
// valores legados nunca se propagan hacia adentro.
var legacyMovementTypes = map[string]string{
	"entrada_compra":       MovementTypeInPurchase,
	"entrada_manual":       MovementTypeInManual,
	"entrada_ajuste":       MovementTypeInAdjustment,
	"devolucion_cliente":   MovementTypeInCustomerReturn,
	"devolucion_proveedor": MovementTypeInSupplierReturn,
	"salida_venta":         MovementTypeOutSale,
	"salida_manual":        MovementTypeOutManual,
	"salida_ajuste":        MovementTypeOutAdjustment,
	"salida_picking":       MovementTypeOutPicking,
	"traslado":             MovementTypeTransfer,
}

// NormalizeMovementType acepta un tipo canónico o legado y devuelve el
// canónico. ok=false si el valor no se reconoce.
func NormalizeMovementType(movType string) (string, bool) {
	if IsValidMovementType(movType) {
		return movType, true
	}
	canonical, ok := legacyMovementTypes[movType]
	return canonical, ok
}

// SignedQuantity devuelve la cantidad con el signo implicado por el tipo.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	switch MovementSign(m.Type) {
	case 1:
		return m.Quantity
	case -1:
		return m.Quantity.Neg()
	}
	return decimal.Zero
}

// HasBalances indica si el movimiento trae los saldos desnormalizados
// (los datos históricos importados pueden no traerlos).
func (m *StockMovement) HasBalances() bool {
	return m.BalanceBefore.Valid && m.BalanceAfter.Valid
}
