package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/picking-api/internal/application/ledger"
	"github.com/jhoicas/picking-api/internal/apptest"
	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCompanyID = "00000000-0000-0000-0000-0000000000c1"
	testActorID   = "00000000-0000-0000-0000-0000000000a1"
)

func newLedgerFixture(t *testing.T) (*apptest.Store, *ledger.AppendMovementUseCase) {
	t.Helper()
	store := apptest.NewStore()
	uc := ledger.NewAppendMovementUseCase(
		apptest.NewTxRunner(store),
		apptest.NewProductRepo(store),
		apptest.NewMovementRepo(store),
	)
	return store, uc
}

func seedTestProduct(store *apptest.Store, companyID string) *entity.Product {
	p := &entity.Product{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		SKU:       "SKU-" + uuid.New().String()[:8],
		Name:      "Aceite 20W50",
		Price:     decimal.NewFromInt(50),
		Cost:      decimal.Zero,
	}
	store.SeedProduct(p)
	return p
}

func appendInput(companyID, productID, movType string, qty int64) ledger.AppendInput {
	return ledger.AppendInput{
		CompanyID: companyID,
		ProductID: productID,
		Type:      movType,
		Quantity:  decimal.NewFromInt(qty),
		ActorID:   testActorID,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Validaciones de entrada
// ──────────────────────────────────────────────────────────────────────────────

func TestAppend_TipoDesconocidoRechazado(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)

	_, err := uc.Append(context.Background(), appendInput(testCompanyID, p.ID, "teleport", 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, store.Movements(), "un tipo inválido no debe dejar entradas en el libro")
}

func TestAppend_CantidadInvalidaRechazada(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)

	casos := []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(-3),
		decimal.NewFromFloat(2.5),
	}
	for _, qty := range casos {
		in := appendInput(testCompanyID, p.ID, entity.MovementTypeInManual, 0)
		in.Quantity = qty
		_, err := uc.Append(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity, "cantidad %s", qty)
	}
	assert.Empty(t, store.Movements())
}

func TestAppend_ProductoInexistente(t *testing.T) {
	_, uc := newLedgerFixture(t)

	_, err := uc.Append(context.Background(), appendInput(testCompanyID, uuid.New().String(), entity.MovementTypeInManual, 1))
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAppend_ProductoDeOtraEmpresa(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, "otra-empresa")

	_, err := uc.Append(context.Background(), appendInput(testCompanyID, p.ID, entity.MovementTypeInManual, 1))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAppend_ReferenciaSinID(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)

	in := appendInput(testCompanyID, p.ID, entity.MovementTypeOutSale, 1)
	in.Reference = entity.MovementReference{Kind: entity.ReferenceSale}
	_, err := uc.Append(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cadena de saldos
// ──────────────────────────────────────────────────────────────────────────────

// El saldo posterior de cada entrada debe igualar el saldo anterior de la
// siguiente, y la existencia materializada debe cerrar con la última entrada.
func TestAppend_CadenaDeSaldos(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)
	ctx := context.Background()

	pasos := []struct {
		tipo string
		qty  int64
	}{
		{entity.MovementTypeInPurchase, 10},
		{entity.MovementTypeInManual, 5},
		{entity.MovementTypeOutSale, 7},
		{entity.MovementTypeInAdjustment, 2},
		{entity.MovementTypeOutManual, 4},
	}
	for _, paso := range pasos {
		_, err := uc.Append(ctx, appendInput(testCompanyID, p.ID, paso.tipo, paso.qty))
		require.NoError(t, err, "paso %s %d", paso.tipo, paso.qty)
	}

	movs := store.Movements()
	require.Len(t, movs, len(pasos))
	prev := decimal.Zero
	for i, m := range movs {
		require.True(t, m.HasBalances())
		assert.True(t, m.BalanceBefore.Decimal.Equal(prev), "entrada %d: before=%s prev=%s", i, m.BalanceBefore.Decimal, prev)
		esperado := prev.Add(m.SignedQuantity())
		assert.True(t, m.BalanceAfter.Decimal.Equal(esperado), "entrada %d", i)
		prev = m.BalanceAfter.Decimal
	}
	// 10 + 5 - 7 + 2 - 4 = 6
	assert.EqualValues(t, 6, store.StockQty(testCompanyID, p.ID))
}

func TestAppend_SecuenciaMonotona(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := uc.Append(ctx, appendInput(testCompanyID, p.ID, entity.MovementTypeInManual, 1))
		require.NoError(t, err)
	}
	movs := store.Movements()
	for i := 1; i < len(movs); i++ {
		assert.Greater(t, movs[i].Sequence, movs[i-1].Sequence)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Salidas y stock insuficiente
// ──────────────────────────────────────────────────────────────────────────────

func TestAppend_SalidaSinStockSuficiente(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)
	store.SeedStock(testCompanyID, p.ID, 3)
	ctx := context.Background()

	_, err := uc.Append(ctx, appendInput(testCompanyID, p.ID, entity.MovementTypeOutSale, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficientErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficientErr))
	assert.Equal(t, p.ID, insufficientErr.ProductID)
	assert.True(t, insufficientErr.Requested.Equal(decimal.NewFromInt(5)))
	assert.True(t, insufficientErr.Available.Equal(decimal.NewFromInt(3)))

	// La transacción revierte completa: ni entrada ni cambio de existencia.
	assert.Empty(t, store.Movements())
	assert.EqualValues(t, 3, store.StockQty(testCompanyID, p.ID))
}

func TestAppend_SalidaExacta(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)
	store.SeedStock(testCompanyID, p.ID, 5)

	m, err := uc.Append(context.Background(), appendInput(testCompanyID, p.ID, entity.MovementTypeOutManual, 5))
	require.NoError(t, err)
	assert.True(t, m.BalanceAfter.Decimal.IsZero())
	assert.EqualValues(t, 0, store.StockQty(testCompanyID, p.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

// Un traslado no cambia el total de la empresa: saldo posterior == anterior.
func TestAppend_TrasladoNeutro(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)
	store.SeedStock(testCompanyID, p.ID, 8)

	in := appendInput(testCompanyID, p.ID, entity.MovementTypeTransfer, 3)
	in.FromLocation = "bodega-norte"
	in.ToLocation = "bodega-sur"
	m, err := uc.Append(context.Background(), in)
	require.NoError(t, err)

	assert.True(t, m.BalanceBefore.Decimal.Equal(m.BalanceAfter.Decimal))
	assert.True(t, m.SignedQuantity().IsZero())
	assert.EqualValues(t, 8, store.StockQty(testCompanyID, p.ID))
}

func TestAppend_TrasladoRequiereUbicacionesDistintas(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)
	store.SeedStock(testCompanyID, p.ID, 8)

	in := appendInput(testCompanyID, p.ID, entity.MovementTypeTransfer, 3)
	in.FromLocation = "bodega-norte"
	in.ToLocation = "bodega-norte"
	_, err := uc.Append(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tipos legados y costo promedio
// ──────────────────────────────────────────────────────────────────────────────

// Los strings libres del sistema anterior se normalizan al entrar y nunca se
// persisten tal cual.
func TestAppend_TipoLegadoNormalizado(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)

	m, err := uc.Append(context.Background(), appendInput(testCompanyID, p.ID, "entrada_compra", 10))
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeInPurchase, m.Type)

	movs := store.Movements()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeInPurchase, movs[0].Type)
}

func TestAppend_CompraActualizaCostoPromedio(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)
	ctx := context.Background()

	costo100 := decimal.NewFromInt(100)
	in := appendInput(testCompanyID, p.ID, entity.MovementTypeInPurchase, 10)
	in.UnitCost = &costo100
	_, err := uc.Append(ctx, in)
	require.NoError(t, err)

	costo200 := decimal.NewFromInt(200)
	in = appendInput(testCompanyID, p.ID, entity.MovementTypeInPurchase, 10)
	in.UnitCost = &costo200
	_, err = uc.Append(ctx, in)
	require.NoError(t, err)

	// (10*100 + 10*200) / 20 = 150
	productRepo := apptest.NewProductRepo(store)
	actualizado, err := productRepo.GetByID(p.ID)
	require.NoError(t, err)
	assert.True(t, actualizado.Cost.Equal(decimal.NewFromInt(150)), "costo %s", actualizado.Cost)
}

// ──────────────────────────────────────────────────────────────────────────────
// Query
// ──────────────────────────────────────────────────────────────────────────────

func TestQuery_OrdenAscendenteYPaginacion(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := uc.Append(ctx, appendInput(testCompanyID, p.ID, entity.MovementTypeInManual, int64(i+1)))
		require.NoError(t, err)
	}

	page, err := uc.Query(ctx, ledger.QueryInput{
		CompanyID: testCompanyID,
		ProductID: p.ID,
		Limit:     2,
		Offset:    2,
	})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].Quantity.Equal(decimal.NewFromInt(3)))
	assert.True(t, page[1].Quantity.Equal(decimal.NewFromInt(4)))
}

func TestQuery_FiltraPorRango(t *testing.T) {
	store, uc := newLedgerFixture(t)
	p := seedTestProduct(store, testCompanyID)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		store.SeedMovement(&entity.StockMovement{
			ID:         uuid.New().String(),
			CompanyID:  testCompanyID,
			ProductID:  p.ID,
			Type:       entity.MovementTypeInManual,
			Quantity:   decimal.NewFromInt(1),
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	desde := base.Add(30 * time.Second)
	hasta := base.Add(90 * time.Second)
	page, err := uc.Query(context.Background(), ledger.QueryInput{
		CompanyID: testCompanyID,
		ProductID: p.ID,
		From:      &desde,
		To:        &hasta,
	})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
