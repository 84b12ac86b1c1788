package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// StartPickingRequest body para POST /api/picking/jobs.
type StartPickingRequest struct {
	OrderID string `json:"order_id"`
}

// LineOutcomeRequest body para PUT /api/picking/lines/:id.
type LineOutcomeRequest struct {
	Status              string          `json:"status"` // fulfilled, missing, damaged, substituted
	Quantity            decimal.Decimal `json:"quantity"`
	SubstituteProductID string          `json:"substitute_product_id,omitempty"`
	Notes               string          `json:"notes,omitempty"`
}

// PickingLineItemDTO línea de picking en respuestas.
type PickingLineItemDTO struct {
	ID                  string          `json:"id"`
	OrderLineID         string          `json:"order_line_id"`
	ProductID           string          `json:"product_id"`
	QuantityRequested   decimal.Decimal `json:"quantity_requested"`
	QuantityFulfilled   decimal.Decimal `json:"quantity_fulfilled"`
	Status              string          `json:"status"`
	SubstituteProductID string          `json:"substitute_product_id,omitempty"`
	Notes               string          `json:"notes,omitempty"`
}

// PickingJobResponse job con sus líneas.
type PickingJobResponse struct {
	ID         string               `json:"id"`
	OrderID    string               `json:"order_id"`
	Status     string               `json:"status"`
	OperatorID string               `json:"operator_id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
	Lines      []PickingLineItemDTO `json:"lines,omitempty"`
}

// NewPickingJobResponse arma la respuesta desde las entidades.
func NewPickingJobResponse(job *entity.PickingJob, items []*entity.PickingLineItem) PickingJobResponse {
	resp := PickingJobResponse{
		ID:         job.ID,
		OrderID:    job.OrderID,
		Status:     job.Status,
		OperatorID: job.OperatorID,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
	for _, li := range items {
		resp.Lines = append(resp.Lines, PickingLineItemDTO{
			ID:                  li.ID,
			OrderLineID:         li.OrderLineID,
			ProductID:           li.ProductID,
			QuantityRequested:   li.QuantityRequested,
			QuantityFulfilled:   li.QuantityFulfilled,
			Status:              li.Status,
			SubstituteProductID: li.SubstituteProductID,
			Notes:               li.Notes,
		})
	}
	return resp
}

// ResolutionDecisionDTO una decisión por línea del reporte de novedades.
type ResolutionDecisionDTO struct {
	LineItemID          string          `json:"line_item_id"`
	Action              string          `json:"action"` // keep, remove, substitute, adjust_quantity
	SubstituteProductID string          `json:"substitute_product_id,omitempty"`
	Quantity            decimal.Decimal `json:"quantity,omitempty"`
}

// ApplyResolutionRequest body para POST /api/picking/orders/:orderId/issues/resolve.
type ApplyResolutionRequest struct {
	Decisions []ResolutionDecisionDTO `json:"decisions"`
}
