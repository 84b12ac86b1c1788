package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubstituteCandidate producto intercambiable en stock, sugerido para
// reemplazar una línea con novedad.
type SubstituteCandidate struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Available decimal.Decimal `json:"available"`
}

// IssueLine una línea del reporte de novedades, con el detalle suficiente
// para que una persona decida la acción correctiva.
type IssueLine struct {
	LineItemID        string                `json:"line_item_id"`
	OrderLineID       string                `json:"order_line_id"`
	ProductID         string                `json:"product_id"`
	QuantityRequested decimal.Decimal       `json:"quantity_requested"`
	QuantityFulfilled decimal.Decimal       `json:"quantity_fulfilled"`
	Notes             string                `json:"notes,omitempty"`
	Substitutes       []SubstituteCandidate `json:"substitutes,omitempty"`
}

// IssueReport agrupa las líneas de un picking terminado en faltantes,
// averiadas y parciales. Es derivado: se reconstruye desde las líneas del
// job y se persiste como blob sobre la orden hasta su resolución.
type IssueReport struct {
	JobID     string      `json:"job_id"`
	CreatedAt time.Time   `json:"created_at"`
	Missing   []IssueLine `json:"missing,omitempty"`
	Damaged   []IssueLine `json:"damaged,omitempty"`
	Partial   []IssueLine `json:"partial,omitempty"`
}

// IsEmpty indica que el picking no dejó novedades.
func (r *IssueReport) IsEmpty() bool {
	return len(r.Missing) == 0 && len(r.Damaged) == 0 && len(r.Partial) == 0
}

// FindLine busca una línea por ID en cualquiera de los tres grupos.
func (r *IssueReport) FindLine(lineItemID string) *IssueLine {
	for _, bucket := range [][]IssueLine{r.Missing, r.Damaged, r.Partial} {
		for i := range bucket {
			if bucket[i].LineItemID == lineItemID {
				return &bucket[i]
			}
		}
	}
	return nil
}

// BuildIssueReport clasifica las líneas de un job en faltantes, averiadas y
// parciales. Los candidatos de sustitución se agregan después, al consultar
// el reporte (requieren el catálogo).
func BuildIssueReport(job *PickingJob, lines []*PickingLineItem, at time.Time) *IssueReport {
	report := &IssueReport{JobID: job.ID, CreatedAt: at}
	for _, l := range lines {
		issue := IssueLine{
			LineItemID:        l.ID,
			OrderLineID:       l.OrderLineID,
			ProductID:         l.ProductID,
			QuantityRequested: l.QuantityRequested,
			QuantityFulfilled: l.QuantityFulfilled,
			Notes:             l.Notes,
		}
		switch {
		case l.Status == LineStatusMissing:
			report.Missing = append(report.Missing, issue)
		case l.Status == LineStatusDamaged:
			report.Damaged = append(report.Damaged, issue)
		case l.IsPartial():
			report.Partial = append(report.Partial, issue)
		}
	}
	return report
}
