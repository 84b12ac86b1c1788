package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// ProductRepository define el puerto de catálogo que el núcleo de picking consume.
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
	ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error)
	// FindInterchangeable devuelve productos con el mismo código de
	// intercambio, excluyendo el producto dado.
	FindInterchangeable(companyID, interchangeCode, excludeID string) ([]*entity.Product, error)
	UpdateCost(id string, cost decimal.Decimal) error
}
