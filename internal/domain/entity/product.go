package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo.
// Cost es promedio ponderado calculado desde movimientos de entrada.
// InterchangeCode agrupa productos intercambiables entre sí (mismo código
// de fabricante); se usa para sugerir sustitutos en novedades de picking.
type Product struct {
	ID              string
	CompanyID       string
	SKU             string // código único por empresa
	Name            string
	Description     string
	Price           decimal.Decimal // precio de venta
	Cost            decimal.Decimal // costo promedio ponderado (inicia en 0)
	InterchangeCode string
	UnitMeasure     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WeightedAverageCost implementa la lógica de costo promedio ponderado.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(currentStock, currentCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	sum := currentStock.Add(inQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := currentStock.Mul(currentCost).Add(inQty.Mul(inCost))
	return num.Div(sum)
}
