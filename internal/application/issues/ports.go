package issues

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// TxRunner ejecuta la resolución dentro de una transacción: todas las
// decisiones, el recálculo de totales y la limpieza del reporte aplican en
// una sola unidad atómica.
type TxRunner interface {
	RunResolution(ctx context.Context, fn func(
		orderRepo repository.OrderRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// Pricer es el colaborador de precios: la sustitución reprecia la línea con
// el producto nuevo en lugar de copiar campos de precio viejos.
type Pricer interface {
	UnitPrice(ctx context.Context, product *entity.Product) (decimal.Decimal, error)
}

// CatalogPricer precio de lista del catálogo (implementación por defecto).
type CatalogPricer struct{}

func (CatalogPricer) UnitPrice(_ context.Context, product *entity.Product) (decimal.Decimal, error) {
	return product.Price, nil
}
