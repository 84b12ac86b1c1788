package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/application/ledger"
	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/stock/movements.
// Type acepta la enumeración canónica o los strings legados
// ("entrada_compra", "salida_manual", ...); se normalizan al entrar.
type RegisterMovementRequest struct {
	ProductID     string           `json:"product_id"`
	Type          string           `json:"type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceKind string           `json:"reference_kind,omitempty"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	FromLocation  string           `json:"from_location,omitempty"`
	ToLocation    string           `json:"to_location,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// StockMovementDTO entrada del libro en respuestas.
type StockMovementDTO struct {
	ID            string           `json:"id"`
	ProductID     string           `json:"product_id"`
	Type          string           `json:"type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	BalanceBefore *decimal.Decimal `json:"balance_before,omitempty"`
	BalanceAfter  *decimal.Decimal `json:"balance_after,omitempty"`
	ReferenceKind string           `json:"reference_kind"`
	ReferenceID   string           `json:"reference_id,omitempty"`
	FromLocation  string           `json:"from_location,omitempty"`
	ToLocation    string           `json:"to_location,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	ActorID       string           `json:"actor_id,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
	Sequence      int64            `json:"sequence"`
}

// NewStockMovementDTO arma el DTO desde la entidad.
func NewStockMovementDTO(m *entity.StockMovement) StockMovementDTO {
	d := StockMovementDTO{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Type:          m.Type,
		Quantity:      m.Quantity,
		ReferenceKind: m.Reference.Kind,
		ReferenceID:   m.Reference.ID,
		FromLocation:  m.FromLocation,
		ToLocation:    m.ToLocation,
		Notes:         m.Notes,
		ActorID:       m.ActorID,
		OccurredAt:    m.OccurredAt,
		Sequence:      m.Sequence,
	}
	if m.BalanceBefore.Valid {
		v := m.BalanceBefore.Decimal
		d.BalanceBefore = &v
	}
	if m.BalanceAfter.Valid {
		v := m.BalanceAfter.Decimal
		d.BalanceAfter = &v
	}
	return d
}

// BalanceEntryDTO par de saldos reconstruidos para un movimiento.
type BalanceEntryDTO struct {
	Movement      StockMovementDTO `json:"movement"`
	BalanceBefore decimal.Decimal  `json:"balance_before"`
	BalanceAfter  decimal.Decimal  `json:"balance_after"`
}

// BalanceReportResponse respuesta del reporte de saldos. Inconsistent es una
// advertencia no fatal: el historial produjo un saldo imposible y los valores
// afectados se recortaron a cero.
type BalanceReportResponse struct {
	ProductID    string            `json:"product_id"`
	Inconsistent bool              `json:"inconsistent"`
	Entries      []BalanceEntryDTO `json:"entries"`
}

// NewBalanceReportResponse arma la respuesta desde el reporte del proyector.
func NewBalanceReportResponse(report *ledger.BalanceReport) BalanceReportResponse {
	resp := BalanceReportResponse{
		ProductID:    report.ProductID,
		Inconsistent: report.Inconsistent,
		Entries:      make([]BalanceEntryDTO, 0, len(report.Entries)),
	}
	for _, e := range report.Entries {
		resp.Entries = append(resp.Entries, BalanceEntryDTO{
			Movement:      NewStockMovementDTO(e.Movement),
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
		})
	}
	return resp
}
