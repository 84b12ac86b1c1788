package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// Projector deriva saldos actuales e históricos desde el libro de movimientos.
// El saldo actual es una lectura O(1) de la existencia materializada; la
// reconstrucción histórica prefiere los saldos desnormalizados de cada
// entrada y solo recurre al replay cuando faltan (datos importados).
type Projector struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	movRepo     repository.StockMovementRepository
}

// NewProjector construye el proyector.
func NewProjector(productRepo repository.ProductRepository, stockRepo repository.StockRepository, movRepo repository.StockMovementRepository) *Projector {
	return &Projector{productRepo: productRepo, stockRepo: stockRepo, movRepo: movRepo}
}

// CurrentBalance devuelve la existencia vigente del producto. Un producto
// sin existencia registrada tiene saldo cero; uno inexistente es un error.
func (p *Projector) CurrentBalance(_ context.Context, companyID, productID string) (decimal.Decimal, error) {
	if err := p.checkProduct(companyID, productID); err != nil {
		return decimal.Zero, err
	}
	stock, err := p.stockRepo.Get(companyID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return stock.Quantity, nil
}

// checkProduct valida existencia y pertenencia del producto, igual que las
// escrituras y consultas del libro.
func (p *Projector) checkProduct(companyID, productID string) error {
	product, err := p.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrProductNotFound
	}
	if product.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return nil
}

// BalanceEntry un movimiento con su par saldo anterior / saldo posterior.
type BalanceEntry struct {
	Movement      *entity.StockMovement
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// BalanceReport resultado de una reconstrucción de saldos.
// Inconsistent marca que el replay produjo un saldo imposible (historial
// corrupto); el reporte degrada con saldos recortados a cero en lugar de
// fallar, porque una lectura de reporte nunca debe bloquear la operación.
type BalanceReport struct {
	ProductID    string
	Inconsistent bool
	Entries      []BalanceEntry
}

// ReconstructBalances entrega el par (saldo anterior, saldo posterior) de
// cada movimiento del rango. Camino rápido: los saldos desnormalizados de la
// entrada. Fallback: parte de la existencia actual, deshace en orden inverso
// los movimientos posteriores al rango y luego deshace hacia atrás dentro del
// rango, resincronizando con los saldos almacenados cuando existen.
func (p *Projector) ReconstructBalances(ctx context.Context, companyID, productID string, from, to *time.Time) (*BalanceReport, error) {
	if err := p.checkProduct(companyID, productID); err != nil {
		return nil, err
	}
	entries, err := p.movRepo.ListRange(companyID, productID, from, to)
	if err != nil {
		return nil, err
	}
	report := &BalanceReport{ProductID: productID, Entries: make([]BalanceEntry, len(entries))}
	if len(entries) == 0 {
		return report, nil
	}

	allDenormalized := true
	for _, m := range entries {
		if !m.HasBalances() {
			allDenormalized = false
			break
		}
	}
	if allDenormalized {
		for i, m := range entries {
			report.Entries[i] = BalanceEntry{
				Movement:      m,
				BalanceBefore: m.BalanceBefore.Decimal,
				BalanceAfter:  m.BalanceAfter.Decimal,
			}
		}
		return report, nil
	}

	running, err := p.balanceAtRangeEnd(ctx, companyID, productID, to, report)
	if err != nil {
		return nil, err
	}

	// Recorre el rango hacia atrás deshaciendo el efecto de cada movimiento.
	// Un movimiento con saldos almacenados resincroniza el acumulado.
	for i := len(entries) - 1; i >= 0; i-- {
		m := entries[i]
		var before, after decimal.Decimal
		if m.HasBalances() {
			before = m.BalanceBefore.Decimal
			after = m.BalanceAfter.Decimal
		} else {
			after = running
			before = after.Sub(m.SignedQuantity())
		}
		before = clampNonNegative(before, report)
		after = clampNonNegative(after, report)
		report.Entries[i] = BalanceEntry{Movement: m, BalanceBefore: before, BalanceAfter: after}
		running = before
	}
	return report, nil
}

// balanceAtRangeEnd reconstruye el saldo al cierre del rango deshaciendo,
// en orden cronológico inverso, los movimientos posteriores a `to`.
// Con `to` nil el cierre del rango es ahora y el saldo es el vigente.
func (p *Projector) balanceAtRangeEnd(ctx context.Context, companyID, productID string, to *time.Time, report *BalanceReport) (decimal.Decimal, error) {
	balance, err := p.CurrentBalance(ctx, companyID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if to == nil {
		return balance, nil
	}
	later, err := p.movRepo.ListAfterDesc(companyID, productID, *to)
	if err != nil {
		return decimal.Zero, err
	}
	for _, m := range later {
		if m.HasBalances() {
			balance = m.BalanceBefore.Decimal
			continue
		}
		balance = balance.Sub(m.SignedQuantity())
	}
	return clampNonNegative(balance, report), nil
}

func clampNonNegative(v decimal.Decimal, report *BalanceReport) decimal.Decimal {
	if v.LessThan(decimal.Zero) {
		report.Inconsistent = true
		return decimal.Zero
	}
	return v
}
