package issues

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
	"github.com/jhoicas/picking-api/pkg/logger"
)

// Acciones de resolución por línea del reporte de novedades.
const (
	ActionKeep           = "keep"
	ActionRemove         = "remove"
	ActionSubstitute     = "substitute"
	ActionAdjustQuantity = "adjust_quantity"
)

// Decision acción correctiva para una línea del reporte.
type Decision struct {
	LineItemID          string
	Action              string
	SubstituteProductID string
	Quantity            decimal.Decimal
}

// ResolutionUseCase consume las novedades de un picking terminado y aplica
// las correcciones sobre la orden de origen, dejándola de nuevo elegible
// para un picking nuevo.
type ResolutionUseCase struct {
	txRunner    TxRunner
	pickRepo    repository.PickingRepository
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	pricer      Pricer
	log         *logger.Logger
}

// NewResolutionUseCase construye el caso de uso. pricer nil usa el precio de
// lista del catálogo.
func NewResolutionUseCase(
	txRunner TxRunner,
	pickRepo repository.PickingRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	pricer Pricer,
	log *logger.Logger,
) *ResolutionUseCase {
	if pricer == nil {
		pricer = CatalogPricer{}
	}
	return &ResolutionUseCase{
		txRunner:    txRunner,
		pickRepo:    pickRepo,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		pricer:      pricer,
		log:         log,
	}
}

// BuildIssueReport reconstruye el reporte de novedades de un job terminado y
// lo enriquece con candidatos de sustitución: productos en stock que
// comparten el código de intercambio, excluyendo el producto afectado.
func (uc *ResolutionUseCase) BuildIssueReport(ctx context.Context, companyID, jobID string) (*entity.IssueReport, error) {
	job, err := uc.pickRepo.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrNotFound
	}
	if job.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if !job.IsTerminal() {
		return nil, fmt.Errorf("%w: el picking sigue activo", domain.ErrConflict)
	}
	items, err := uc.pickRepo.ListLineItems(jobID)
	if err != nil {
		return nil, err
	}

	at := job.StartedAt
	if job.FinishedAt != nil {
		at = *job.FinishedAt
	}
	report := entity.BuildIssueReport(job, items, at)

	for _, bucket := range [][]entity.IssueLine{report.Missing, report.Damaged, report.Partial} {
		for i := range bucket {
			candidates, err := uc.substituteCandidates(ctx, companyID, bucket[i].ProductID)
			if err != nil {
				return nil, err
			}
			bucket[i].Substitutes = candidates
		}
	}
	return report, nil
}

func (uc *ResolutionUseCase) substituteCandidates(_ context.Context, companyID, productID string) ([]entity.SubstituteCandidate, error) {
	product, err := uc.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.InterchangeCode == "" {
		return nil, nil
	}
	interchangeable, err := uc.productRepo.FindInterchangeable(companyID, product.InterchangeCode, product.ID)
	if err != nil {
		return nil, err
	}
	var candidates []entity.SubstituteCandidate
	for _, p := range interchangeable {
		stock, err := uc.stockRepo.Get(companyID, p.ID)
		if err != nil {
			return nil, err
		}
		if stock == nil || !stock.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		candidates = append(candidates, entity.SubstituteCandidate{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Available: stock.Quantity,
		})
	}
	return candidates, nil
}

// ApplyResolution aplica una decisión por línea del reporte almacenado en la
// orden, recalcula subtotal/total desde las líneas restantes, limpia el
// reporte y devuelve la orden a eligible para un picking nuevo. Atómico.
func (uc *ResolutionUseCase) ApplyResolution(ctx context.Context, companyID, orderID string, decisions []Decision) error {
	if len(decisions) == 0 {
		return fmt.Errorf("%w: sin decisiones", domain.ErrInvalidInput)
	}
	err := uc.txRunner.RunResolution(ctx, func(
		orderRepo repository.OrderRepository,
		productRepo repository.ProductRepository,
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
		if order.IssueReport == nil {
			return domain.ErrNoActiveIssueReport
		}
		report := order.IssueReport

		lines, err := orderRepo.GetLines(orderID)
		if err != nil {
			return err
		}
		byID := make(map[string]*entity.OrderLine, len(lines))
		for _, ol := range lines {
			byID[ol.ID] = ol
		}

		for _, d := range decisions {
			issue := report.FindLine(d.LineItemID)
			if issue == nil {
				return fmt.Errorf("%w: %s", domain.ErrUnknownLineItem, d.LineItemID)
			}
			ol := byID[issue.OrderLineID]
			if ol == nil {
				return fmt.Errorf("%w: %s", domain.ErrUnknownLineItem, d.LineItemID)
			}
			if err := uc.applyDecision(ctx, orderRepo, productRepo, companyID, byID, ol, d); err != nil {
				return err
			}
		}

		remaining := make([]*entity.OrderLine, 0, len(byID))
		for _, ol := range byID {
			remaining = append(remaining, ol)
		}
		subtotal, total := entity.OrderTotals(remaining)
		if err := orderRepo.UpdateTotals(orderID, subtotal, total); err != nil {
			return err
		}
		if err := orderRepo.ClearIssueReport(orderID); err != nil {
			return err
		}
		return orderRepo.UpdateStatus(orderID, entity.OrderStatusEligible)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("order_id", orderID).Int("decisiones", len(decisions)).Msg("novedades resueltas")
	return nil
}

func (uc *ResolutionUseCase) applyDecision(
	ctx context.Context,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	companyID string,
	byID map[string]*entity.OrderLine,
	ol *entity.OrderLine,
	d Decision,
) error {
	switch d.Action {
	case ActionKeep:
		// Aceptar tal cual (ej. aceptar la unidad averiada).
		return nil
	case ActionRemove:
		delete(byID, ol.ID)
		return orderRepo.DeleteLine(ol.ID)
	case ActionAdjustQuantity:
		if d.Quantity.LessThan(decimal.Zero) || !d.Quantity.IsInteger() {
			return fmt.Errorf("%w: %s", domain.ErrInvalidQuantity, d.Quantity.String())
		}
		if d.Quantity.IsZero() {
			delete(byID, ol.ID)
			return orderRepo.DeleteLine(ol.ID)
		}
		ol.Quantity = d.Quantity
		ol.LineTotal = ol.ComputeLineTotal()
		return orderRepo.UpdateLineQuantity(ol.ID, ol.Quantity, ol.LineTotal)
	case ActionSubstitute:
		if d.SubstituteProductID == "" {
			return fmt.Errorf("%w: sustitución sin producto", domain.ErrInvalidInput)
		}
		sub, err := productRepo.GetByID(d.SubstituteProductID)
		if err != nil {
			return err
		}
		if sub == nil {
			return domain.ErrProductNotFound
		}
		if sub.CompanyID != companyID {
			return domain.ErrForbidden
		}
		price, err := uc.pricer.UnitPrice(ctx, sub)
		if err != nil {
			return err
		}
		ol.ProductID = sub.ID
		ol.UnitPrice = price
		ol.LineTotal = ol.ComputeLineTotal()
		return orderRepo.UpdateLineProduct(ol.ID, ol.ProductID, ol.UnitPrice, ol.LineTotal)
	}
	return fmt.Errorf("%w: acción %q", domain.ErrInvalidInput, d.Action)
}
