package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrProductNotFound   = errors.New("producto no encontrado")
	ErrOrderNotFound     = errors.New("orden no encontrada")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Picking y novedades
	ErrNoFulfillableLines  = errors.New("la orden no tiene líneas para alistar")
	ErrUnprocessedLines    = errors.New("hay líneas de picking pendientes")
	ErrJobAlreadyFinished  = errors.New("el picking ya está en estado terminal")
	ErrNoActiveIssueReport = errors.New("la orden no tiene reporte de novedades activo")
	ErrUnknownLineItem     = errors.New("la línea no pertenece al reporte de novedades")
)

// InsufficientStockError detalla un rechazo por stock insuficiente: el caller
// necesita la cantidad disponible para decidir un reintento o un ajuste.
type InsufficientStockError struct {
	ProductID string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: solicitado %s, disponible %s",
		e.ProductID, e.Requested.String(), e.Available.String())
}

// Unwrap permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// JobConflictError detalla un conflicto de estado en un picking job
// (ej. finish sobre un job ya terminal). Incluye el ID y el estado actual.
type JobConflictError struct {
	JobID  string
	Status string
}

func (e *JobConflictError) Error() string {
	return fmt.Sprintf("picking %s en estado %s no admite la transición", e.JobID, e.Status)
}

func (e *JobConflictError) Unwrap() error { return ErrJobAlreadyFinished }
