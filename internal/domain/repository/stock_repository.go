package repository

import "github.com/jhoicas/picking-api/internal/domain/entity"

// StockRepository define el puerto para consultar/actualizar la existencia
// materializada por producto. Toda mutación ocurre dentro de la transacción
// que escribe el movimiento correspondiente.
type StockRepository interface {
	Get(companyID, productID string) (*entity.ProductStock, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE); los
	// appends concurrentes sobre el mismo producto serializan aquí.
	GetForUpdate(companyID, productID string) (*entity.ProductStock, error)
	Upsert(stock *entity.ProductStock) error
}
