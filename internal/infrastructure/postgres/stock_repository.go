package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de existencias. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene la existencia actual de un producto. Sin fila equivale a cero.
func (r *StockRepo) Get(companyID, productID string) (*entity.ProductStock, error) {
	query := `
		SELECT company_id, product_id, quantity, updated_at
		FROM product_stock WHERE company_id = $1 AND product_id = $2`
	var s entity.ProductStock
	err := r.q.QueryRow(context.Background(), query, companyID, productID).Scan(
		&s.CompanyID, &s.ProductID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.ProductStock{CompanyID: companyID, ProductID: productID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// GetForUpdate obtiene la existencia y bloquea la fila (SELECT FOR UPDATE).
// Los appends concurrentes sobre el mismo producto serializan aquí. Si el
// producto aún no tiene fila, se materializa una en cero dentro de la misma
// transacción y se vuelve a bloquear: devolver una fila sintética sin bloqueo
// permitiría que dos primeros ingresos concurrentes leyeran ambos saldo cero
// y el segundo pisara al primero.
func (r *StockRepo) GetForUpdate(companyID, productID string) (*entity.ProductStock, error) {
	query := `
		SELECT company_id, product_id, quantity, updated_at
		FROM product_stock WHERE company_id = $1 AND product_id = $2
		FOR UPDATE`
	var s entity.ProductStock
	err := r.q.QueryRow(context.Background(), query, companyID, productID).Scan(
		&s.CompanyID, &s.ProductID, &s.Quantity, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		bootstrap := `
			INSERT INTO product_stock (company_id, product_id, quantity, updated_at)
			VALUES ($1, $2, 0, now())
			ON CONFLICT (company_id, product_id) DO NOTHING`
		if _, err := r.q.Exec(context.Background(), bootstrap, companyID, productID); err != nil {
			return nil, fmt.Errorf("bootstrap stock row: %w", err)
		}
		err = r.q.QueryRow(context.Background(), query, companyID, productID).Scan(
			&s.CompanyID, &s.ProductID, &s.Quantity, &s.UpdatedAt,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en existencia (por empresa y producto).
func (r *StockRepo) Upsert(stock *entity.ProductStock) error {
	query := `
		INSERT INTO product_stock (company_id, product_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (company_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(context.Background(), query, stock.CompanyID, stock.ProductID, stock.Quantity)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}
