package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
// La tabla es append-only; sequence es BIGSERIAL y se asigna en el INSERT,
// dentro de la misma transacción que tiene bloqueada la fila de existencia.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, company_id, product_id, type, quantity, balance_before, balance_after,
	reference_kind, reference_id, from_location, to_location, notes, actor_id, occurred_at, sequence, created_at`

// Create persiste un movimiento y asigna Sequence.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, company_id, product_id, type, quantity, balance_before, balance_after,
			reference_kind, reference_id, from_location, to_location, notes, actor_id, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING sequence`
	referenceID := (*string)(nil)
	if m.Reference.ID != "" {
		referenceID = &m.Reference.ID
	}
	err := r.q.QueryRow(context.Background(), query,
		m.ID, m.CompanyID, m.ProductID, m.Type, m.Quantity,
		m.BalanceBefore, m.BalanceAfter,
		m.Reference.Kind, referenceID, nullIfEmpty(m.FromLocation), nullIfEmpty(m.ToLocation),
		nullIfEmpty(m.Notes), nullIfEmpty(m.ActorID), m.OccurredAt, m.CreatedAt,
	).Scan(&m.Sequence)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *StockMovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas,
// ordenados por occurred_at/sequence ascendente, con paginación.
func (r *StockMovementRepo) ListByProduct(companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE company_id = $1 AND product_id = $2`
	args := []any{companyID, productID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY occurred_at ASC, sequence ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.list(query, args)
}

// ListRange lista todos los movimientos del rango en orden ascendente (sin paginación).
func (r *StockMovementRepo) ListRange(companyID, productID string, from, to *time.Time) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE company_id = $1 AND product_id = $2`
	args := []any{companyID, productID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += " ORDER BY occurred_at ASC, sequence ASC"
	return r.list(query, args)
}

// ListAfterDesc lista los movimientos posteriores a un instante en orden descendente.
func (r *StockMovementRepo) ListAfterDesc(companyID, productID string, after time.Time) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE company_id = $1 AND product_id = $2 AND occurred_at > $3
		ORDER BY occurred_at DESC, sequence DESC`
	return r.list(query, []any{companyID, productID, after})
}

func (r *StockMovementRepo) list(query string, args []any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	var referenceID, fromLoc, toLoc, notes, actorID *string
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.ProductID, &m.Type, &m.Quantity,
		&m.BalanceBefore, &m.BalanceAfter,
		&m.Reference.Kind, &referenceID, &fromLoc, &toLoc, &notes, &actorID,
		&m.OccurredAt, &m.Sequence, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Reference.ID = deref(referenceID)
	m.FromLocation = deref(fromLoc)
	m.ToLocation = deref(toLoc)
	m.Notes = deref(notes)
	m.ActorID = deref(actorID)
	return &m, nil
}
