package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
// El reporte de novedades se guarda como JSONB en la columna issue_report.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de órdenes. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, company_id, customer_id, status, subtotal, total, issue_report, created_at, updated_at`

// GetByID obtiene la cabecera de una orden.
func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOrder(query, id)
}

// GetForUpdate obtiene la cabecera y bloquea la fila (SELECT FOR UPDATE).
func (r *OrderRepo) GetForUpdate(id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOrder(query, id)
}

func (r *OrderRepo) getOrder(query, id string) (*entity.Order, error) {
	var o entity.Order
	var customerID *string
	var issueReport []byte
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.CompanyID, &customerID, &o.Status, &o.Subtotal, &o.Total,
		&issueReport, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.CustomerID = deref(customerID)
	if len(issueReport) > 0 {
		var report entity.IssueReport
		if err := json.Unmarshal(issueReport, &report); err != nil {
			return nil, fmt.Errorf("decode issue report: %w", err)
		}
		o.IssueReport = &report
	}
	return &o, nil
}

// GetLines lista las líneas de la orden.
func (r *OrderRepo) GetLines(orderID string) ([]*entity.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, quantity, unit_price, discount, line_total
		FROM order_lines WHERE order_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(context.Background(), query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()
	var lines []*entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Discount, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// UpdateStatus cambia el estado de la orden.
func (r *OrderRepo) UpdateStatus(orderID, status string) error {
	query := `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, orderID, status); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

// UpdateTotals reescribe subtotal y total.
func (r *OrderRepo) UpdateTotals(orderID string, subtotal, total decimal.Decimal) error {
	query := `UPDATE orders SET subtotal = $2, total = $3, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, orderID, subtotal, total); err != nil {
		return fmt.Errorf("update order totals: %w", err)
	}
	return nil
}

// UpdateLineQuantity reescribe cantidad y total de una línea.
func (r *OrderRepo) UpdateLineQuantity(lineID string, quantity, lineTotal decimal.Decimal) error {
	query := `UPDATE order_lines SET quantity = $2, line_total = $3 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, lineID, quantity, lineTotal); err != nil {
		return fmt.Errorf("update line quantity: %w", err)
	}
	return nil
}

// UpdateLineProduct reescribe el producto de una línea (sustitución) con su
// precio repreciado.
func (r *OrderRepo) UpdateLineProduct(lineID, productID string, unitPrice, lineTotal decimal.Decimal) error {
	query := `UPDATE order_lines SET product_id = $2, unit_price = $3, line_total = $4 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, lineID, productID, unitPrice, lineTotal); err != nil {
		return fmt.Errorf("update line product: %w", err)
	}
	return nil
}

// DeleteLine elimina una línea de la orden.
func (r *OrderRepo) DeleteLine(lineID string) error {
	query := `DELETE FROM order_lines WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, lineID); err != nil {
		return fmt.Errorf("delete order line: %w", err)
	}
	return nil
}

// SaveIssueReport guarda el reporte de novedades como JSONB sobre la orden.
func (r *OrderRepo) SaveIssueReport(orderID string, report *entity.IssueReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode issue report: %w", err)
	}
	query := `UPDATE orders SET issue_report = $2, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, orderID, payload); err != nil {
		return fmt.Errorf("save issue report: %w", err)
	}
	return nil
}

// ClearIssueReport limpia el reporte (la resolución lo consume atómicamente).
func (r *OrderRepo) ClearIssueReport(orderID string) error {
	query := `UPDATE orders SET issue_report = NULL, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, orderID); err != nil {
		return fmt.Errorf("clear issue report: %w", err)
	}
	return nil
}
