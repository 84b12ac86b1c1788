package picking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/application/ledger"
	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
	"github.com/jhoicas/picking-api/pkg/logger"
)

// PickingUseCase gobierna el ciclo de vida del picking job: start, pause,
// resume, registro de líneas y finish. Las escrituras al libro de movimientos
// ocurren exactamente una vez por job finalizado, dentro del finish.
type PickingUseCase struct {
	txRunner TxRunner
	ledger   *ledger.AppendMovementUseCase
	pickRepo repository.PickingRepository
	log      *logger.Logger
}

// NewPickingUseCase construye el caso de uso.
func NewPickingUseCase(
	txRunner TxRunner,
	ledgerUC *ledger.AppendMovementUseCase,
	pickRepo repository.PickingRepository,
	log *logger.Logger,
) *PickingUseCase {
	return &PickingUseCase{txRunner: txRunner, ledger: ledgerUC, pickRepo: pickRepo, log: log}
}

// Start crea un picking job para la orden con una línea por línea de la
// orden, y mueve la orden a in_fulfillment (la bloquea contra ediciones).
// Idempotente: si ya existe un job activo para la orden lo devuelve sin
// crear un duplicado.
func (uc *PickingUseCase) Start(ctx context.Context, companyID, orderID, operatorID string) (*entity.PickingJob, error) {
	var job *entity.PickingJob
	err := uc.txRunner.RunPicking(ctx, func(
		pickRepo repository.PickingRepository,
		orderRepo repository.OrderRepository,
		_ repository.StockMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		order, err := orderRepo.GetForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		if order.CompanyID != companyID {
			return domain.ErrForbidden
		}

		active, err := pickRepo.FindActiveByOrder(orderID)
		if err != nil {
			return err
		}
		if active != nil {
			job = active
			return nil
		}

		if order.IssueReport != nil || order.Status == entity.OrderStatusPendingAdjustment {
			return fmt.Errorf("%w: la orden tiene novedades sin resolver", domain.ErrConflict)
		}

		lines, err := orderRepo.GetLines(orderID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrNoFulfillableLines
		}

		now := time.Now()
		job = &entity.PickingJob{
			ID:         uuid.New().String(),
			CompanyID:  companyID,
			OrderID:    orderID,
			Status:     entity.PickingStatusInProgress,
			OperatorID: operatorID,
			StartedAt:  now,
		}
		if err := pickRepo.CreateJob(job); err != nil {
			return err
		}
		for _, ol := range lines {
			item := &entity.PickingLineItem{
				ID:                uuid.New().String(),
				JobID:             job.ID,
				OrderLineID:       ol.ID,
				ProductID:         ol.ProductID,
				QuantityRequested: ol.Quantity,
				Status:            entity.LineStatusPending,
			}
			if err := pickRepo.CreateLineItem(item); err != nil {
				return err
			}
		}
		return orderRepo.UpdateStatus(orderID, entity.OrderStatusInFulfillment)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("job_id", job.ID).Str("order_id", orderID).Str("operator_id", operatorID).Msg("picking iniciado")
	return job, nil
}

// Pause suspende el job y devuelve la orden a eligible, conservando el
// avance de las líneas. Idempotente: pausar un job ya pausado es no-op.
// Siempre es segura: a esta altura no hay escrituras al libro.
func (uc *PickingUseCase) Pause(ctx context.Context, companyID, jobID string) error {
	return uc.transitionJob(ctx, companyID, jobID, entity.PickingStatusPaused, entity.OrderStatusEligible)
}

// Resume reingresa el job a in_progress y la orden a in_fulfillment.
// Si el job quedó sin líneas (falla parcial previa al materializarlas) se
// regeneran desde las líneas actuales de la orden — solo cuando hay cero,
// nunca pisando avance.
func (uc *PickingUseCase) Resume(ctx context.Context, companyID, jobID string) error {
	err := uc.txRunner.RunPicking(ctx, func(
		pickRepo repository.PickingRepository,
		orderRepo repository.OrderRepository,
		_ repository.StockMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		job, err := lockJob(pickRepo, companyID, jobID)
		if err != nil {
			return err
		}
		if job.Status == entity.PickingStatusInProgress {
			return nil
		}
		if !job.CanTransition(entity.PickingStatusInProgress) {
			return &domain.JobConflictError{JobID: job.ID, Status: job.Status}
		}
		job.Status = entity.PickingStatusInProgress
		if err := pickRepo.UpdateJob(job); err != nil {
			return err
		}

		items, err := pickRepo.ListLineItems(job.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			lines, err := orderRepo.GetLines(job.OrderID)
			if err != nil {
				return err
			}
			for _, ol := range lines {
				item := &entity.PickingLineItem{
					ID:                uuid.New().String(),
					JobID:             job.ID,
					OrderLineID:       ol.ID,
					ProductID:         ol.ProductID,
					QuantityRequested: ol.Quantity,
					Status:            entity.LineStatusPending,
				}
				if err := pickRepo.CreateLineItem(item); err != nil {
					return err
				}
			}
		}
		return orderRepo.UpdateStatus(job.OrderID, entity.OrderStatusInFulfillment)
	})
	if err == nil {
		uc.log.Info().Str("job_id", jobID).Msg("picking reanudado")
	}
	return err
}

// LineOutcomeInput resultado de alistamiento para una línea.
type LineOutcomeInput struct {
	CompanyID           string
	LineID              string
	Status              string
	Quantity            decimal.Decimal
	SubstituteProductID string
	Notes               string
}

// RecordLineOutcome registra el resultado de una línea. Para fulfilled y
// substituted valida disponibilidad contra la existencia vigente; no escribe
// al libro: la descarga se difiere al finish, en lote.
func (uc *PickingUseCase) RecordLineOutcome(ctx context.Context, input LineOutcomeInput) error {
	if !entity.IsTerminalLineStatus(input.Status) {
		return fmt.Errorf("%w: estado de línea %q", domain.ErrInvalidInput, input.Status)
	}
	return uc.txRunner.RunPicking(ctx, func(
		pickRepo repository.PickingRepository,
		_ repository.OrderRepository,
		_ repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		line, err := pickRepo.GetLineItemForUpdate(input.LineID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.ErrNotFound
		}
		job, err := pickRepo.GetJob(line.JobID)
		if err != nil {
			return err
		}
		if job == nil || job.CompanyID != input.CompanyID {
			return domain.ErrForbidden
		}
		if job.Status != entity.PickingStatusInProgress {
			return fmt.Errorf("%w: el job no está in_progress", domain.ErrConflict)
		}

		updated := *line
		updated.Status = input.Status
		updated.QuantityFulfilled = input.Quantity
		updated.SubstituteProductID = input.SubstituteProductID
		updated.Notes = input.Notes
		if err := updated.ValidateOutcome(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidQuantity, err)
		}

		if updated.QuantityFulfilled.GreaterThan(decimal.Zero) {
			deductID := updated.DeductProductID()
			if updated.Status == entity.LineStatusSubstituted {
				sub, err := productRepo.GetByID(deductID)
				if err != nil {
					return err
				}
				if sub == nil {
					return domain.ErrProductNotFound
				}
				if sub.CompanyID != input.CompanyID {
					return domain.ErrForbidden
				}
			}
			stock, err := stockRepo.Get(input.CompanyID, deductID)
			if err != nil {
				return err
			}
			available := decimal.Zero
			if stock != nil {
				available = stock.Quantity
			}
			if available.LessThan(updated.QuantityFulfilled) {
				return &domain.InsufficientStockError{
					ProductID: deductID,
					Requested: updated.QuantityFulfilled,
					Available: available,
				}
			}
		}
		return pickRepo.UpdateLineItem(&updated)
	})
}

// Finish cierra el job: revalida disponibilidad línea por línea con bloqueo
// de fila, escribe exactamente una entrada out_picking por línea con cantidad
// alistada (producto sustituto si lo hay) y determina el estado terminal.
// Todo o nada: si una revalidación falla, la transacción revierte y el libro
// queda sin entradas del job.
func (uc *PickingUseCase) Finish(ctx context.Context, companyID, jobID, operatorID string) (*entity.PickingJob, error) {
	var finished *entity.PickingJob
	err := uc.txRunner.RunPicking(ctx, func(
		pickRepo repository.PickingRepository,
		orderRepo repository.OrderRepository,
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		job, err := lockJob(pickRepo, companyID, jobID)
		if err != nil {
			return err
		}
		items, err := pickRepo.ListLineItems(job.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if item.Status == entity.LineStatusPending {
				return domain.ErrUnprocessedLines
			}
		}

		terminal := entity.TerminalStatusFor(items)
		if !job.CanTransition(terminal) {
			return &domain.JobConflictError{JobID: job.ID, Status: job.Status}
		}

		for _, item := range items {
			if !item.QuantityFulfilled.GreaterThan(decimal.Zero) {
				continue
			}
			deductID := item.DeductProductID()
			product, err := productRepo.GetByID(deductID)
			if err != nil {
				return err
			}
			if product == nil {
				return domain.ErrProductNotFound
			}
			_, err = uc.ledger.AppendInTx(ctx, movRepo, stockRepo, productRepo, product, ledger.AppendInput{
				CompanyID: companyID,
				ProductID: deductID,
				Type:      entity.MovementTypeOutPicking,
				Quantity:  item.QuantityFulfilled,
				Reference: entity.MovementReference{Kind: entity.ReferencePickingJob, ID: job.ID},
				ActorID:   operatorID,
			})
			if err != nil {
				return err
			}
		}

		now := time.Now()
		if terminal == entity.PickingStatusCompleted {
			if err := uc.applyShortShip(orderRepo, productRepo, job.OrderID, items); err != nil {
				return err
			}
			if err := orderRepo.UpdateStatus(job.OrderID, entity.OrderStatusPendingVerification); err != nil {
				return err
			}
		} else {
			report := entity.BuildIssueReport(job, items, now)
			if err := orderRepo.SaveIssueReport(job.OrderID, report); err != nil {
				return err
			}
			if err := orderRepo.UpdateStatus(job.OrderID, entity.OrderStatusPendingAdjustment); err != nil {
				return err
			}
		}

		job.Status = terminal
		job.FinishedAt = &now
		if err := pickRepo.UpdateJob(job); err != nil {
			return err
		}
		finished = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("job_id", finished.ID).
		Str("order_id", finished.OrderID).
		Str("status", finished.Status).
		Str("operator_id", operatorID).
		Msg("picking finalizado")
	return finished, nil
}

// applyShortShip ajusta las líneas de la orden a lo efectivamente alistado:
// cantidades parciales se reducen y las sustituciones reescriben el producto
// de la línea con el precio vigente de catálogo.
func (uc *PickingUseCase) applyShortShip(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	orderID string,
	items []*entity.PickingLineItem,
) error {
	lines, err := orderRepo.GetLines(orderID)
	if err != nil {
		return err
	}
	byID := make(map[string]*entity.OrderLine, len(lines))
	for _, ol := range lines {
		byID[ol.ID] = ol
	}

	changed := make(map[string]*entity.PickingLineItem)
	for _, item := range items {
		ol := byID[item.OrderLineID]
		if ol == nil {
			continue
		}
		if item.Status == entity.LineStatusSubstituted {
			sub, err := productRepo.GetByID(item.SubstituteProductID)
			if err != nil {
				return err
			}
			if sub == nil {
				return domain.ErrProductNotFound
			}
			ol.ProductID = sub.ID
			ol.UnitPrice = sub.Price
			changed[ol.ID] = item
		}
		if item.QuantityFulfilled.GreaterThan(decimal.Zero) && item.QuantityFulfilled.LessThan(ol.Quantity) {
			ol.Quantity = item.QuantityFulfilled
			changed[ol.ID] = item
		}
		if changed[ol.ID] != nil {
			ol.LineTotal = ol.ComputeLineTotal()
		}
	}
	if len(changed) == 0 {
		return nil
	}

	for lineID, item := range changed {
		ol := byID[lineID]
		if item.Status == entity.LineStatusSubstituted {
			if err := orderRepo.UpdateLineProduct(ol.ID, ol.ProductID, ol.UnitPrice, ol.LineTotal); err != nil {
				return err
			}
		}
		if err := orderRepo.UpdateLineQuantity(ol.ID, ol.Quantity, ol.LineTotal); err != nil {
			return err
		}
	}
	subtotal, total := entity.OrderTotals(lines)
	return orderRepo.UpdateTotals(orderID, subtotal, total)
}

// transitionJob aplica pause (única cancelación en vuelo soportada).
func (uc *PickingUseCase) transitionJob(ctx context.Context, companyID, jobID, jobStatus, orderStatus string) error {
	err := uc.txRunner.RunPicking(ctx, func(
		pickRepo repository.PickingRepository,
		orderRepo repository.OrderRepository,
		_ repository.StockMovementRepository,
		_ repository.StockRepository,
		_ repository.ProductRepository,
	) error {
		job, err := lockJob(pickRepo, companyID, jobID)
		if err != nil {
			return err
		}
		if job.Status == jobStatus {
			return nil
		}
		if !job.CanTransition(jobStatus) {
			return &domain.JobConflictError{JobID: job.ID, Status: job.Status}
		}
		job.Status = jobStatus
		if err := pickRepo.UpdateJob(job); err != nil {
			return err
		}
		return orderRepo.UpdateStatus(job.OrderID, orderStatus)
	})
	if err == nil {
		uc.log.Info().Str("job_id", jobID).Str("status", jobStatus).Msg("picking en pausa")
	}
	return err
}

// GetJob lectura directa para la capa HTTP.
func (uc *PickingUseCase) GetJob(_ context.Context, companyID, jobID string) (*entity.PickingJob, []*entity.PickingLineItem, error) {
	job, err := uc.pickRepo.GetJob(jobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		return nil, nil, domain.ErrNotFound
	}
	if job.CompanyID != companyID {
		return nil, nil, domain.ErrForbidden
	}
	items, err := uc.pickRepo.ListLineItems(jobID)
	if err != nil {
		return nil, nil, err
	}
	return job, items, nil
}

func lockJob(pickRepo repository.PickingRepository, companyID, jobID string) (*entity.PickingJob, error) {
	job, err := pickRepo.GetJobForUpdate(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrNotFound
	}
	if job.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return job, nil
}
