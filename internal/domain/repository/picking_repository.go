package repository

import "github.com/jhoicas/picking-api/internal/domain/entity"

// PickingRepository define el puerto de persistencia de jobs y líneas de picking.
type PickingRepository interface {
	CreateJob(job *entity.PickingJob) error
	GetJob(id string) (*entity.PickingJob, error)
	// GetJobForUpdate bloquea la fila del job; dos finish concurrentes sobre
	// el mismo job serializan aquí y el segundo ve el estado terminal.
	GetJobForUpdate(id string) (*entity.PickingJob, error)
	// FindActiveByOrder devuelve el job in_progress o paused de la orden,
	// o nil si no existe. A lo sumo hay uno.
	FindActiveByOrder(orderID string) (*entity.PickingJob, error)
	UpdateJob(job *entity.PickingJob) error

	CreateLineItem(line *entity.PickingLineItem) error
	GetLineItem(id string) (*entity.PickingLineItem, error)
	GetLineItemForUpdate(id string) (*entity.PickingLineItem, error)
	ListLineItems(jobID string) ([]*entity.PickingLineItem, error)
	UpdateLineItem(line *entity.PickingLineItem) error
}
