package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// AppendMovementUseCase escribe entradas en el libro de movimientos de forma
// transaccional: bloquea la fila de existencia (SELECT FOR UPDATE), calcula el
// saldo posterior según el signo del tipo, inserta la entrada y actualiza la
// existencia en la misma transacción.
type AppendMovementUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	movRepo     repository.StockMovementRepository
}

// NewAppendMovementUseCase construye el caso de uso.
func NewAppendMovementUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movRepo repository.StockMovementRepository,
) *AppendMovementUseCase {
	return &AppendMovementUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		movRepo:     movRepo,
	}
}

// AppendInput entrada para registrar un movimiento en el libro.
// Type acepta la enumeración canónica o el string legado del sistema anterior
// (se normaliza en la frontera). UnitCost aplica solo a entradas por compra.
type AppendInput struct {
	CompanyID    string
	ProductID    string
	Type         string
	Quantity     decimal.Decimal
	UnitCost     *decimal.Decimal
	Reference    entity.MovementReference
	FromLocation string
	ToLocation   string
	Notes        string
	ActorID      string
}

// Append valida la entrada, normaliza el tipo y ejecuta la escritura atómica.
func (uc *AppendMovementUseCase) Append(ctx context.Context, input AppendInput) (*entity.StockMovement, error) {
	canonical, ok := entity.NormalizeMovementType(input.Type)
	if !ok {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, input.Type)
	}
	input.Type = canonical

	if !input.Quantity.GreaterThan(decimal.Zero) || !input.Quantity.IsInteger() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidQuantity, input.Quantity.String())
	}
	if err := validateReference(input.Reference); err != nil {
		return nil, err
	}
	if input.Type == entity.MovementTypeTransfer && (input.FromLocation == "" || input.ToLocation == "" || input.FromLocation == input.ToLocation) {
		return nil, fmt.Errorf("%w: traslado requiere origen y destino distintos", domain.ErrInvalidInput)
	}

	product, err := uc.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	if product.CompanyID != input.CompanyID {
		return nil, domain.ErrForbidden
	}

	var movement *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		productRepo repository.ProductRepository,
	) error {
		m, err := uc.AppendInTx(ctx, movRepo, stockRepo, productRepo, product, input)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// AppendInTx ejecuta la escritura usando los repositorios proporcionados
// (misma transacción del caller). Lo usa Append y también el finish de
// picking, que descarga todas sus líneas dentro de una sola transacción.
func (uc *AppendMovementUseCase) AppendInTx(
	_ context.Context,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	product *entity.Product,
	input AppendInput,
) (*entity.StockMovement, error) {
	// Bloquea la fila de existencia para serializar appends concurrentes
	// del mismo producto.
	stock, err := stockRepo.GetForUpdate(input.CompanyID, input.ProductID)
	if err != nil {
		return nil, err
	}
	before := stock.Quantity

	var after decimal.Decimal
	switch entity.MovementSign(input.Type) {
	case 1:
		after = before.Add(input.Quantity)
		if input.Type == entity.MovementTypeInPurchase && input.UnitCost != nil {
			newCost := entity.WeightedAverageCost(before, product.Cost, input.Quantity, *input.UnitCost)
			if err := productRepo.UpdateCost(product.ID, newCost); err != nil {
				return nil, err
			}
		}
	case -1:
		if before.LessThan(input.Quantity) {
			return nil, &domain.InsufficientStockError{
				ProductID: input.ProductID,
				Requested: input.Quantity,
				Available: before,
			}
		}
		after = before.Sub(input.Quantity)
	default:
		// Traslado: neutro sobre el total de la empresa, solo cambia ubicación.
		after = before
	}

	now := time.Now()
	movement := &entity.StockMovement{
		ID:            uuid.New().String(),
		CompanyID:     input.CompanyID,
		ProductID:     input.ProductID,
		Type:          input.Type,
		Quantity:      input.Quantity,
		BalanceBefore: decimal.NewNullDecimal(before),
		BalanceAfter:  decimal.NewNullDecimal(after),
		Reference:     input.Reference,
		FromLocation:  input.FromLocation,
		ToLocation:    input.ToLocation,
		Notes:         input.Notes,
		ActorID:       input.ActorID,
		OccurredAt:    now,
		CreatedAt:     now,
	}
	if err := movRepo.Create(movement); err != nil {
		return nil, err
	}

	stock.Quantity = after
	stock.UpdatedAt = now
	if err := stockRepo.Upsert(stock); err != nil {
		return nil, err
	}
	return movement, nil
}

// QueryInput filtros para listar movimientos de un producto.
type QueryInput struct {
	CompanyID string
	ProductID string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Query lista movimientos ordenados por occurred_at/sequence ascendente.
// Cada llamada relee del libro; no hay cursores que retomar.
func (uc *AppendMovementUseCase) Query(ctx context.Context, input QueryInput) ([]*entity.StockMovement, error) {
	if input.Limit <= 0 {
		input.Limit = 50
	}
	if input.Offset < 0 {
		input.Offset = 0
	}
	product, err := uc.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}
	if product.CompanyID != input.CompanyID {
		return nil, domain.ErrForbidden
	}
	return uc.movRepo.ListByProduct(input.CompanyID, input.ProductID, input.From, input.To, input.Limit, input.Offset)
}

func validateReference(ref entity.MovementReference) error {
	switch ref.Kind {
	case "", entity.ReferenceNone:
		return nil
	case entity.ReferenceSale, entity.ReferencePickingJob, entity.ReferenceInvoice:
		if ref.ID == "" {
			return fmt.Errorf("%w: referencia %s sin id", domain.ErrInvalidInput, ref.Kind)
		}
		return nil
	}
	return fmt.Errorf("%w: tipo de referencia %q", domain.ErrInvalidInput, ref.Kind)
}
