package picking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/picking-api/internal/application/ledger"
	"github.com/jhoicas/picking-api/internal/application/picking"
	"github.com/jhoicas/picking-api/internal/apptest"
	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCompanyID  = "00000000-0000-0000-0000-0000000000c1"
	testOperatorID = "00000000-0000-0000-0000-0000000000f1"
)

type pickingFixture struct {
	store *apptest.Store
	uc    *picking.PickingUseCase
}

func newPickingFixture(t *testing.T) *pickingFixture {
	t.Helper()
	store := apptest.NewStore()
	txRunner := apptest.NewTxRunner(store)
	appendUC := ledger.NewAppendMovementUseCase(txRunner, apptest.NewProductRepo(store), apptest.NewMovementRepo(store))
	uc := picking.NewPickingUseCase(txRunner, appendUC, apptest.NewPickingRepo(store), logger.Nop())
	return &pickingFixture{store: store, uc: uc}
}

// seedProductWithStock registra un producto con existencia inicial.
func (f *pickingFixture) seedProductWithStock(name string, price, stock int64) *entity.Product {
	p := &entity.Product{
		ID:        uuid.New().String(),
		CompanyID: testCompanyID,
		SKU:       "SKU-" + uuid.New().String()[:8],
		Name:      name,
		Price:     decimal.NewFromInt(price),
	}
	f.store.SeedProduct(p)
	f.store.SeedStock(testCompanyID, p.ID, stock)
	return p
}

// seedOrder arma una orden elegible con una línea por producto.
func (f *pickingFixture) seedOrder(products []*entity.Product, quantities []int64) (*entity.Order, []*entity.OrderLine) {
	order := &entity.Order{
		ID:        uuid.New().String(),
		CompanyID: testCompanyID,
		Status:    entity.OrderStatusEligible,
	}
	lines := make([]*entity.OrderLine, len(products))
	subtotal := decimal.Zero
	for i, p := range products {
		l := &entity.OrderLine{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			ProductID: p.ID,
			Quantity:  decimal.NewFromInt(quantities[i]),
			UnitPrice: p.Price,
		}
		l.LineTotal = l.ComputeLineTotal()
		subtotal = subtotal.Add(l.LineTotal)
		lines[i] = l
	}
	order.Subtotal = subtotal
	order.Total = subtotal
	f.store.SeedOrder(order, lines...)
	return order, lines
}

// itemForOrderLine ubica la línea de picking materializada para una línea de orden.
func (f *pickingFixture) itemForOrderLine(t *testing.T, jobID, orderLineID string) *entity.PickingLineItem {
	t.Helper()
	items, err := apptest.NewPickingRepo(f.store).ListLineItems(jobID)
	require.NoError(t, err)
	for _, it := range items {
		if it.OrderLineID == orderLineID {
			return it
		}
	}
	t.Fatalf("línea de picking no encontrada para order line %s", orderLineID)
	return nil
}

func (f *pickingFixture) recordOutcome(t *testing.T, lineID, status string, qty int64, substituteID string) {
	t.Helper()
	err := f.uc.RecordLineOutcome(context.Background(), picking.LineOutcomeInput{
		CompanyID:           testCompanyID,
		LineID:              lineID,
		Status:              status,
		Quantity:            decimal.NewFromInt(qty),
		SubstituteProductID: substituteID,
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Start
// ──────────────────────────────────────────────────────────────────────────────

func TestStart_CreaJobConLineas(t *testing.T) {
	f := newPickingFixture(t)
	pA := f.seedProductWithStock("Filtro de aire", 30, 10)
	pB := f.seedProductWithStock("Bujía", 12, 10)
	order, _ := f.seedOrder([]*entity.Product{pA, pB}, []int64{2, 3})

	job, err := f.uc.Start(context.Background(), testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	assert.Equal(t, entity.PickingStatusInProgress, job.Status)
	assert.Equal(t, testOperatorID, job.OperatorID)

	items, err := apptest.NewPickingRepo(f.store).ListLineItems(job.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, entity.LineStatusPending, it.Status)
		assert.True(t, it.QuantityFulfilled.IsZero())
	}
	assert.Equal(t, entity.OrderStatusInFulfillment, f.store.Order(order.ID).Status)
}

// Reintentar start sobre una orden con picking activo devuelve el mismo job,
// sin duplicados.
func TestStart_Idempotente(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, _ := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	primero, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	segundo, err := f.uc.Start(ctx, testCompanyID, order.ID, "otro-operario")
	require.NoError(t, err)

	assert.Equal(t, primero.ID, segundo.ID)
	assert.Equal(t, testOperatorID, segundo.OperatorID, "el job existente conserva su operario")
}

func TestStart_OrdenSinLineas(t *testing.T) {
	f := newPickingFixture(t)
	order, _ := f.seedOrder(nil, nil)

	_, err := f.uc.Start(context.Background(), testCompanyID, order.ID, testOperatorID)
	assert.ErrorIs(t, err, domain.ErrNoFulfillableLines)
}

func TestStart_OrdenConNovedadesPendientes(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, _ := f.seedOrder([]*entity.Product{p}, []int64{2})
	order.IssueReport = &entity.IssueReport{JobID: uuid.New().String()}
	order.Status = entity.OrderStatusPendingAdjustment
	f.store.SeedOrder(order)

	_, err := f.uc.Start(context.Background(), testCompanyID, order.ID, testOperatorID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStart_OrdenInexistente(t *testing.T) {
	f := newPickingFixture(t)

	_, err := f.uc.Start(context.Background(), testCompanyID, uuid.New().String(), testOperatorID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pause / Resume
// ──────────────────────────────────────────────────────────────────────────────

func TestPause_DevuelveLaOrdenAElegible(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	item := f.itemForOrderLine(t, job.ID, lines[0].ID)
	f.recordOutcome(t, item.ID, entity.LineStatusFulfilled, 2, "")

	require.NoError(t, f.uc.Pause(ctx, testCompanyID, job.ID))
	assert.Equal(t, entity.PickingStatusPaused, f.store.Job(job.ID).Status)
	assert.Equal(t, entity.OrderStatusEligible, f.store.Order(order.ID).Status)

	// Idempotente: pausar dos veces es no-op.
	require.NoError(t, f.uc.Pause(ctx, testCompanyID, job.ID))

	// El avance de las líneas se conserva.
	conservada := f.itemForOrderLine(t, job.ID, lines[0].ID)
	assert.Equal(t, entity.LineStatusFulfilled, conservada.Status)
	assert.True(t, conservada.QuantityFulfilled.Equal(decimal.NewFromInt(2)))
}

func TestResume_ConservaAvance(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	item := f.itemForOrderLine(t, job.ID, lines[0].ID)
	f.recordOutcome(t, item.ID, entity.LineStatusFulfilled, 1, "")

	require.NoError(t, f.uc.Pause(ctx, testCompanyID, job.ID))
	require.NoError(t, f.uc.Resume(ctx, testCompanyID, job.ID))

	assert.Equal(t, entity.PickingStatusInProgress, f.store.Job(job.ID).Status)
	assert.Equal(t, entity.OrderStatusInFulfillment, f.store.Order(order.ID).Status)

	items, err := apptest.NewPickingRepo(f.store).ListLineItems(job.ID)
	require.NoError(t, err)
	require.Len(t, items, 1, "resume nunca regenera líneas existentes")
	assert.True(t, items[0].QuantityFulfilled.Equal(decimal.NewFromInt(1)))
}

// Un job pausado que quedó sin líneas (falla parcial antes de
// materializarlas) las regenera al reanudar desde las líneas actuales de la
// orden.
func TestResume_RegeneraLineasCuandoNoHay(t *testing.T) {
	f := newPickingFixture(t)
	pA := f.seedProductWithStock("Filtro de aire", 30, 10)
	pB := f.seedProductWithStock("Bujía", 12, 10)
	order, lines := f.seedOrder([]*entity.Product{pA, pB}, []int64{2, 3})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	require.NoError(t, f.uc.Pause(ctx, testCompanyID, job.ID))
	f.store.DeleteLineItems(job.ID)

	require.NoError(t, f.uc.Resume(ctx, testCompanyID, job.ID))

	items, err := apptest.NewPickingRepo(f.store).ListLineItems(job.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	porOrderLine := make(map[string]*entity.PickingLineItem, len(items))
	for _, it := range items {
		assert.Equal(t, entity.LineStatusPending, it.Status)
		assert.True(t, it.QuantityFulfilled.IsZero())
		porOrderLine[it.OrderLineID] = it
	}
	for _, ol := range lines {
		it := porOrderLine[ol.ID]
		require.NotNil(t, it, "línea regenerada para %s", ol.ID)
		assert.Equal(t, ol.ProductID, it.ProductID)
		assert.True(t, it.QuantityRequested.Equal(ol.Quantity))
	}
}

func TestPause_JobTerminalConflicto(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	item := f.itemForOrderLine(t, job.ID, lines[0].ID)
	f.recordOutcome(t, item.ID, entity.LineStatusFulfilled, 2, "")
	_, err = f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	require.NoError(t, err)

	err = f.uc.Pause(ctx, testCompanyID, job.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrJobAlreadyFinished)

	var conflictErr *domain.JobConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, job.ID, conflictErr.JobID)
	assert.Equal(t, entity.PickingStatusCompleted, conflictErr.Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordLineOutcome
// ──────────────────────────────────────────────────────────────────────────────

// Registrar una línea no escribe al libro: la descarga se difiere al finish.
func TestRecordLineOutcome_NoEscribeAlLibro(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	item := f.itemForOrderLine(t, job.ID, lines[0].ID)
	f.recordOutcome(t, item.ID, entity.LineStatusFulfilled, 2, "")

	assert.Empty(t, f.store.Movements())
	assert.EqualValues(t, 10, f.store.StockQty(testCompanyID, p.ID))
}

func TestRecordLineOutcome_StockInsuficiente(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 1)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{5})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	item := f.itemForOrderLine(t, job.ID, lines[0].ID)

	err = f.uc.RecordLineOutcome(ctx, picking.LineOutcomeInput{
		CompanyID: testCompanyID,
		LineID:    item.ID,
		Status:    entity.LineStatusFulfilled,
		Quantity:  decimal.NewFromInt(5),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficientErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, p.ID, insufficientErr.ProductID)
	assert.True(t, insufficientErr.Available.Equal(decimal.NewFromInt(1)))

	// La línea queda intacta.
	intacta := f.itemForOrderLine(t, job.ID, lines[0].ID)
	assert.Equal(t, entity.LineStatusPending, intacta.Status)
}

func TestRecordLineOutcome_ValidacionesDeLinea(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{3})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	item := f.itemForOrderLine(t, job.ID, lines[0].ID)

	casos := []struct {
		nombre string
		input  picking.LineOutcomeInput
		want   error
	}{
		{
			nombre: "pending no es resultado",
			input:  picking.LineOutcomeInput{CompanyID: testCompanyID, LineID: item.ID, Status: entity.LineStatusPending},
			want:   domain.ErrInvalidInput,
		},
		{
			nombre: "alistado excede lo pedido",
			input:  picking.LineOutcomeInput{CompanyID: testCompanyID, LineID: item.ID, Status: entity.LineStatusFulfilled, Quantity: decimal.NewFromInt(4)},
			want:   domain.ErrInvalidQuantity,
		},
		{
			nombre: "missing exige cantidad cero",
			input:  picking.LineOutcomeInput{CompanyID: testCompanyID, LineID: item.ID, Status: entity.LineStatusMissing, Quantity: decimal.NewFromInt(1)},
			want:   domain.ErrInvalidQuantity,
		},
		{
			nombre: "substituted exige producto sustituto",
			input:  picking.LineOutcomeInput{CompanyID: testCompanyID, LineID: item.ID, Status: entity.LineStatusSubstituted, Quantity: decimal.NewFromInt(1)},
			want:   domain.ErrInvalidQuantity,
		},
	}
	for _, tc := range casos {
		t.Run(tc.nombre, func(t *testing.T) {
			err := f.uc.RecordLineOutcome(ctx, tc.input)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRecordLineOutcome_JobPausadoConflicto(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	require.NoError(t, f.uc.Pause(ctx, testCompanyID, job.ID))

	item := f.itemForOrderLine(t, job.ID, lines[0].ID)
	err = f.uc.RecordLineOutcome(ctx, picking.LineOutcomeInput{
		CompanyID: testCompanyID,
		LineID:    item.ID,
		Status:    entity.LineStatusFulfilled,
		Quantity:  decimal.NewFromInt(2),
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// Finish
// ──────────────────────────────────────────────────────────────────────────────

// Job con faltante: el producto alistado descarga una entrada out_picking y
// el faltante no deja rastro en el libro.
func TestFinish_FaltanteDescargaSoloLoAlistado(t *testing.T) {
	f := newPickingFixture(t)
	pA := f.seedProductWithStock("Filtro de aire", 30, 10)
	pB := f.seedProductWithStock("Bujía", 12, 10)
	order, lines := f.seedOrder([]*entity.Product{pA, pB}, []int64{2, 3})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	itemA := f.itemForOrderLine(t, job.ID, lines[0].ID)
	itemB := f.itemForOrderLine(t, job.ID, lines[1].ID)
	f.recordOutcome(t, itemA.ID, entity.LineStatusFulfilled, 2, "")
	f.recordOutcome(t, itemB.ID, entity.LineStatusMissing, 0, "")

	finished, err := f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	require.NoError(t, err)
	assert.Equal(t, entity.PickingStatusFailedMissing, finished.Status)
	require.NotNil(t, finished.FinishedAt)

	movs := f.store.Movements()
	require.Len(t, movs, 1, "exactamente una entrada por línea alistada")
	assert.Equal(t, entity.MovementTypeOutPicking, movs[0].Type)
	assert.Equal(t, pA.ID, movs[0].ProductID)
	assert.Equal(t, entity.ReferencePickingJob, movs[0].Reference.Kind)
	assert.Equal(t, job.ID, movs[0].Reference.ID)
	assert.True(t, movs[0].Quantity.Equal(decimal.NewFromInt(2)))

	assert.EqualValues(t, 8, f.store.StockQty(testCompanyID, pA.ID))
	assert.EqualValues(t, 10, f.store.StockQty(testCompanyID, pB.ID))

	// La orden queda con novedades por resolver y el reporte almacenado.
	orderAfter := f.store.Order(order.ID)
	assert.Equal(t, entity.OrderStatusPendingAdjustment, orderAfter.Status)
	require.NotNil(t, orderAfter.IssueReport)
	require.Len(t, orderAfter.IssueReport.Missing, 1)
	assert.Equal(t, itemB.ID, orderAfter.IssueReport.Missing[0].LineItemID)
}

// Línea averiada: el terminal es failed_damaged aun con faltantes presentes.
func TestFinish_AveriaPredominaSobreFaltante(t *testing.T) {
	f := newPickingFixture(t)
	pA := f.seedProductWithStock("Filtro de aire", 30, 10)
	pB := f.seedProductWithStock("Bujía", 12, 10)
	order, lines := f.seedOrder([]*entity.Product{pA, pB}, []int64{2, 3})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	f.recordOutcome(t, f.itemForOrderLine(t, job.ID, lines[0].ID).ID, entity.LineStatusMissing, 0, "")
	f.recordOutcome(t, f.itemForOrderLine(t, job.ID, lines[1].ID).ID, entity.LineStatusDamaged, 0, "")

	finished, err := f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	require.NoError(t, err)
	assert.Equal(t, entity.PickingStatusFailedDamaged, finished.Status)
	assert.Empty(t, f.store.Movements(), "nada alistado, nada descargado")

	report := f.store.Order(order.ID).IssueReport
	require.NotNil(t, report)
	assert.Len(t, report.Missing, 1)
	assert.Len(t, report.Damaged, 1)
}

// Short-ship: líneas parciales sin fallas completan el job y ajustan la orden
// a lo efectivamente alistado.
func TestFinish_ShortShipCompletaYAjustaLaOrden(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{5})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	f.recordOutcome(t, f.itemForOrderLine(t, job.ID, lines[0].ID).ID, entity.LineStatusFulfilled, 3, "")

	finished, err := f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	require.NoError(t, err)
	assert.Equal(t, entity.PickingStatusCompleted, finished.Status)

	movs := f.store.Movements()
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Quantity.Equal(decimal.NewFromInt(3)), "descarga lo alistado, no lo pedido")
	assert.EqualValues(t, 7, f.store.StockQty(testCompanyID, p.ID))

	orderAfter := f.store.Order(order.ID)
	assert.Equal(t, entity.OrderStatusPendingVerification, orderAfter.Status)
	assert.Nil(t, orderAfter.IssueReport, "short-ship no es novedad")

	linesAfter := f.store.OrderLines(order.ID)
	require.Len(t, linesAfter, 1)
	assert.True(t, linesAfter[0].Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, linesAfter[0].LineTotal.Equal(decimal.NewFromInt(90)))
	assert.True(t, orderAfter.Total.Equal(decimal.NewFromInt(90)))
}

// Sustitución completa: descarga el producto sustituto y reescribe la línea
// de la orden con su precio vigente.
func TestFinish_SustitucionDescargaElSustituto(t *testing.T) {
	f := newPickingFixture(t)
	original := f.seedProductWithStock("Aceite 20W50", 50, 0)
	sustituto := f.seedProductWithStock("Aceite 10W40", 55, 10)
	order, lines := f.seedOrder([]*entity.Product{original}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	f.recordOutcome(t, f.itemForOrderLine(t, job.ID, lines[0].ID).ID, entity.LineStatusSubstituted, 2, sustituto.ID)

	finished, err := f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	require.NoError(t, err)
	assert.Equal(t, entity.PickingStatusCompleted, finished.Status)

	movs := f.store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, sustituto.ID, movs[0].ProductID)
	assert.EqualValues(t, 8, f.store.StockQty(testCompanyID, sustituto.ID))
	assert.EqualValues(t, 0, f.store.StockQty(testCompanyID, original.ID))

	linesAfter := f.store.OrderLines(order.ID)
	require.Len(t, linesAfter, 1)
	assert.Equal(t, sustituto.ID, linesAfter[0].ProductID)
	assert.True(t, linesAfter[0].UnitPrice.Equal(decimal.NewFromInt(55)))
	assert.True(t, linesAfter[0].LineTotal.Equal(decimal.NewFromInt(110)))
}

func TestFinish_LineasPendientes(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, _ := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)

	_, err = f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	assert.ErrorIs(t, err, domain.ErrUnprocessedLines)
	assert.Empty(t, f.store.Movements())
}

// Todo o nada: si la revalidación de una línea falla, el libro queda sin
// ninguna entrada del job, incluidas las líneas que sí tenían stock.
func TestFinish_RevalidacionRevierteTodo(t *testing.T) {
	f := newPickingFixture(t)
	pA := f.seedProductWithStock("Filtro de aire", 30, 10)
	pB := f.seedProductWithStock("Bujía", 12, 4)
	order, lines := f.seedOrder([]*entity.Product{pA, pB}, []int64{2, 4})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	f.recordOutcome(t, f.itemForOrderLine(t, job.ID, lines[0].ID).ID, entity.LineStatusFulfilled, 2, "")
	f.recordOutcome(t, f.itemForOrderLine(t, job.ID, lines[1].ID).ID, entity.LineStatusFulfilled, 4, "")

	// Otra operación consume el stock de B entre el registro y el finish.
	f.store.SeedStock(testCompanyID, pB.ID, 1)

	_, err = f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Empty(t, f.store.Movements(), "la transacción revierte completa")
	assert.EqualValues(t, 10, f.store.StockQty(testCompanyID, pA.ID))
	assert.Equal(t, entity.PickingStatusInProgress, f.store.Job(job.ID).Status)
}

// Un segundo finish sobre un job terminal falla con conflicto y no duplica
// entradas en el libro.
func TestFinish_SegundoFinishConflicto(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, lines := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)
	f.recordOutcome(t, f.itemForOrderLine(t, job.ID, lines[0].ID).ID, entity.LineStatusFulfilled, 2, "")

	_, err = f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	require.NoError(t, err)
	require.Len(t, f.store.Movements(), 1)

	_, err = f.uc.Finish(ctx, testCompanyID, job.ID, testOperatorID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrJobAlreadyFinished)

	var conflictErr *domain.JobConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, entity.PickingStatusCompleted, conflictErr.Status)

	assert.Len(t, f.store.Movements(), 1, "sin entradas duplicadas")
	assert.EqualValues(t, 8, f.store.StockQty(testCompanyID, p.ID))
}

func TestFinish_JobDeOtraEmpresa(t *testing.T) {
	f := newPickingFixture(t)
	p := f.seedProductWithStock("Filtro de aire", 30, 10)
	order, _ := f.seedOrder([]*entity.Product{p}, []int64{2})
	ctx := context.Background()

	job, err := f.uc.Start(ctx, testCompanyID, order.ID, testOperatorID)
	require.NoError(t, err)

	_, err = f.uc.Finish(ctx, "empresa-ajena", job.ID, testOperatorID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
