package repository

import (
	"time"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del libro de
// movimientos. El libro es append-only: no hay Update ni Delete.
type StockMovementRepository interface {
	// Create persiste el movimiento y asigna Sequence (clave de orden
	// monotónica dentro de la misma transacción de escritura).
	Create(movement *entity.StockMovement) error
	GetByID(id string) (*entity.StockMovement, error)
	// ListByProduct lista los movimientos de un producto ordenados por
	// occurred_at y sequence ascendente, con paginación.
	ListByProduct(companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// ListRange lista todos los movimientos del rango en orden ascendente
	// (sin paginación; para reconstrucción de saldos).
	ListRange(companyID, productID string, from, to *time.Time) ([]*entity.StockMovement, error)
	// ListAfterDesc lista los movimientos posteriores a un instante en orden
	// descendente (para el replay inverso del proyector).
	ListAfterDesc(companyID, productID string, after time.Time) ([]*entity.StockMovement, error)
}
