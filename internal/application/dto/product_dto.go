package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// ProductResponse producto del catálogo en respuestas.
type ProductResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Cost            decimal.Decimal `json:"cost"`
	InterchangeCode string          `json:"interchange_code,omitempty"`
	UnitMeasure     string          `json:"unit_measure,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewProductResponse arma el DTO desde la entidad.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Cost:            p.Cost,
		InterchangeCode: p.InterchangeCode,
		UnitMeasure:     p.UnitMeasure,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// SubstituteCandidateDTO producto intercambiable con existencia disponible.
type SubstituteCandidateDTO struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Available decimal.Decimal `json:"available"`
}
