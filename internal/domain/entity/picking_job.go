package entity

import "time"

// Estados de un picking job.
// in_progress → {paused, completed, failed_missing, failed_damaged}
// paused → in_progress
// completed, failed_missing y failed_damaged son terminales.
const (
	PickingStatusInProgress    = "in_progress"
	PickingStatusPaused        = "paused"
	PickingStatusCompleted     = "completed"
	PickingStatusFailedMissing = "failed_missing"
	PickingStatusFailedDamaged = "failed_damaged"
)

// PickingJob es un intento de alistamiento de una orden de venta.
// Invariante: a lo sumo un job por orden puede estar activo
// (in_progress o paused) a la vez.
type PickingJob struct {
	ID         string
	CompanyID  string
	OrderID    string
	Status     string
	OperatorID string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// pickingTransitions define las transiciones válidas del ciclo de vida.
var pickingTransitions = map[string][]string{
	PickingStatusInProgress: {
		PickingStatusPaused,
		PickingStatusCompleted,
		PickingStatusFailedMissing,
		PickingStatusFailedDamaged,
	},
	PickingStatusPaused: {PickingStatusInProgress},
}

// IsActive indica si el job bloquea la orden (in_progress o paused).
func (j *PickingJob) IsActive() bool {
	return j.Status == PickingStatusInProgress || j.Status == PickingStatusPaused
}

// IsTerminal indica si el job ya no admite transiciones.
func (j *PickingJob) IsTerminal() bool {
	return j.Status == PickingStatusCompleted ||
		j.Status == PickingStatusFailedMissing ||
		j.Status == PickingStatusFailedDamaged
}

// CanTransition valida una transición del ciclo de vida.
func (j *PickingJob) CanTransition(to string) bool {
	for _, allowed := range pickingTransitions[j.Status] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TerminalStatusFor determina el estado terminal a partir de las líneas:
// failed_damaged si hay alguna averiada, si no failed_missing si hay alguna
// faltante, si no completed. Una línea parcial sin fallas no es falla
// (short-ship): el job completa y la orden se ajusta a lo alistado.
func TerminalStatusFor(lines []*PickingLineItem) string {
	hasMissing := false
	for _, l := range lines {
		switch l.Status {
		case LineStatusDamaged:
			return PickingStatusFailedDamaged
		case LineStatusMissing:
			hasMissing = true
		}
	}
	if hasMissing {
		return PickingStatusFailedMissing
	}
	return PickingStatusCompleted
}
