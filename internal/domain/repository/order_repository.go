package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// OrderRepository define el puerto sobre las órdenes de venta que el núcleo
// de picking y la resolución de novedades consumen y editan.
type OrderRepository interface {
	GetByID(id string) (*entity.Order, error)
	// GetForUpdate bloquea la cabecera de la orden (SELECT FOR UPDATE);
	// las transiciones de picking y la resolución serializan aquí.
	GetForUpdate(id string) (*entity.Order, error)
	GetLines(orderID string) ([]*entity.OrderLine, error)
	UpdateStatus(orderID, status string) error
	UpdateTotals(orderID string, subtotal, total decimal.Decimal) error

	UpdateLineQuantity(lineID string, quantity, lineTotal decimal.Decimal) error
	UpdateLineProduct(lineID, productID string, unitPrice, lineTotal decimal.Decimal) error
	DeleteLine(lineID string) error

	// El reporte de novedades vive como blob estructurado sobre la orden:
	// se consume y se limpia de forma atómica con la resolución.
	SaveIssueReport(orderID string, report *entity.IssueReport) error
	ClearIssueReport(orderID string) error
}
