package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.PickingRepository = (*PickingRepo)(nil)

// PickingRepo implementación de PickingRepository sobre PostgreSQL (usable con pool o tx).
// Un índice único parcial sobre picking_jobs(order_id) WHERE status IN
// ('in_progress','paused') respalda el invariante de un solo job activo por
// orden aunque dos starts lleguen a la vez.
type PickingRepo struct {
	q Querier
}

// NewPickingRepository construye el adaptador de picking. Pasar pool o tx (Querier).
func NewPickingRepository(q Querier) *PickingRepo {
	return &PickingRepo{q: q}
}

const jobColumns = `id, company_id, order_id, status, operator_id, started_at, finished_at`

// CreateJob persiste un job nuevo.
func (r *PickingRepo) CreateJob(job *entity.PickingJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	query := `
		INSERT INTO picking_jobs (id, company_id, order_id, status, operator_id, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(context.Background(), query,
		job.ID, job.CompanyID, job.OrderID, job.Status, job.OperatorID, job.StartedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create picking job: ya existe un job activo para la orden: %w", err)
		}
		return fmt.Errorf("create picking job: %w", err)
	}
	return nil
}

// GetJob obtiene un job por ID.
func (r *PickingRepo) GetJob(id string) (*entity.PickingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM picking_jobs WHERE id = $1`
	return r.getJob(query, id)
}

// GetJobForUpdate obtiene un job y bloquea la fila (SELECT FOR UPDATE).
// Dos finish concurrentes serializan aquí: el segundo ve el estado terminal.
func (r *PickingRepo) GetJobForUpdate(id string) (*entity.PickingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM picking_jobs WHERE id = $1 FOR UPDATE`
	return r.getJob(query, id)
}

func (r *PickingRepo) getJob(query, id string) (*entity.PickingJob, error) {
	var j entity.PickingJob
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&j.ID, &j.CompanyID, &j.OrderID, &j.Status, &j.OperatorID, &j.StartedAt, &j.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get picking job: %w", err)
	}
	return &j, nil
}

// FindActiveByOrder devuelve el job in_progress o paused de la orden, o nil.
func (r *PickingRepo) FindActiveByOrder(orderID string) (*entity.PickingJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM picking_jobs
		WHERE order_id = $1 AND status IN ($2, $3)`
	var j entity.PickingJob
	err := r.q.QueryRow(context.Background(), query, orderID,
		entity.PickingStatusInProgress, entity.PickingStatusPaused).Scan(
		&j.ID, &j.CompanyID, &j.OrderID, &j.Status, &j.OperatorID, &j.StartedAt, &j.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active picking job: %w", err)
	}
	return &j, nil
}

// UpdateJob reescribe estado y finished_at del job.
func (r *PickingRepo) UpdateJob(job *entity.PickingJob) error {
	query := `UPDATE picking_jobs SET status = $2, finished_at = $3 WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query, job.ID, job.Status, job.FinishedAt)
	if err != nil {
		return fmt.Errorf("update picking job: %w", err)
	}
	return nil
}

const lineColumns = `id, job_id, order_line_id, product_id, quantity_requested, quantity_fulfilled, status, substitute_product_id, notes`

// CreateLineItem persiste una línea de picking.
func (r *PickingRepo) CreateLineItem(line *entity.PickingLineItem) error {
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	query := `
		INSERT INTO picking_line_items (id, job_id, order_line_id, product_id, quantity_requested, quantity_fulfilled, status, substitute_product_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.JobID, line.OrderLineID, line.ProductID,
		line.QuantityRequested, line.QuantityFulfilled, line.Status,
		nullIfEmpty(line.SubstituteProductID), nullIfEmpty(line.Notes))
	if err != nil {
		return fmt.Errorf("create picking line: %w", err)
	}
	return nil
}

// GetLineItem obtiene una línea por ID.
func (r *PickingRepo) GetLineItem(id string) (*entity.PickingLineItem, error) {
	query := `SELECT ` + lineColumns + ` FROM picking_line_items WHERE id = $1`
	return r.getLine(query, id)
}

// GetLineItemForUpdate obtiene una línea y bloquea la fila (SELECT FOR UPDATE).
func (r *PickingRepo) GetLineItemForUpdate(id string) (*entity.PickingLineItem, error) {
	query := `SELECT ` + lineColumns + ` FROM picking_line_items WHERE id = $1 FOR UPDATE`
	return r.getLine(query, id)
}

func (r *PickingRepo) getLine(query, id string) (*entity.PickingLineItem, error) {
	var l entity.PickingLineItem
	var substitute, notes *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&l.ID, &l.JobID, &l.OrderLineID, &l.ProductID,
		&l.QuantityRequested, &l.QuantityFulfilled, &l.Status, &substitute, &notes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get picking line: %w", err)
	}
	l.SubstituteProductID = deref(substitute)
	l.Notes = deref(notes)
	return &l, nil
}

// ListLineItems lista las líneas de un job.
func (r *PickingRepo) ListLineItems(jobID string) ([]*entity.PickingLineItem, error) {
	query := `SELECT ` + lineColumns + ` FROM picking_line_items WHERE job_id = $1 ORDER BY id`
	rows, err := r.q.Query(context.Background(), query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list picking lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.PickingLineItem
	for rows.Next() {
		var l entity.PickingLineItem
		var substitute, notes *string
		if err := rows.Scan(&l.ID, &l.JobID, &l.OrderLineID, &l.ProductID,
			&l.QuantityRequested, &l.QuantityFulfilled, &l.Status, &substitute, &notes); err != nil {
			return nil, fmt.Errorf("scan picking line: %w", err)
		}
		l.SubstituteProductID = deref(substitute)
		l.Notes = deref(notes)
		list = append(list, &l)
	}
	return list, rows.Err()
}

// UpdateLineItem reescribe el resultado de una línea.
func (r *PickingRepo) UpdateLineItem(line *entity.PickingLineItem) error {
	query := `
		UPDATE picking_line_items
		SET quantity_fulfilled = $2, status = $3, substitute_product_id = $4, notes = $5
		WHERE id = $1`
	_, err := r.q.Exec(context.Background(), query,
		line.ID, line.QuantityFulfilled, line.Status,
		nullIfEmpty(line.SubstituteProductID), nullIfEmpty(line.Notes))
	if err != nil {
		return fmt.Errorf("update picking line: %w", err)
	}
	return nil
}
