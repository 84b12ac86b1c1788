package picking

import (
	"context"

	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD con los
// repositorios que las transiciones de picking necesitan. El finish descarga
// todas sus líneas al libro dentro de una sola transacción: o se escriben
// todas las entradas o ninguna.
type TxRunner interface {
	RunPicking(ctx context.Context, fn func(
		pickRepo repository.PickingRepository,
		orderRepo repository.OrderRepository,
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error) error
}
