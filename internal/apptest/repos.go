package apptest

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/application/issues"
	"github.com/jhoicas/picking-api/internal/application/ledger"
	"github.com/jhoicas/picking-api/internal/application/picking"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// ProductRepository
// ──────────────────────────────────────────────────────────────────────────────

// ProductRepo catálogo en memoria.
type ProductRepo struct{ store *Store }

// NewProductRepo construye el repositorio sobre el store.
func NewProductRepo(store *Store) *ProductRepo { return &ProductRepo{store: store} }

func (r *ProductRepo) GetByID(id string) (*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (r *ProductRepo) ListByCompany(companyID string, limit, offset int) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var all []*entity.Product
	for _, p := range r.store.products {
		if p.CompanyID == companyID {
			all = append(all, cloneProduct(p))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *ProductRepo) FindInterchangeable(companyID, interchangeCode, excludeID string) ([]*entity.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Product
	for _, p := range r.store.products {
		if p.CompanyID == companyID && p.InterchangeCode == interchangeCode && p.ID != excludeID {
			out = append(out, cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *ProductRepo) UpdateCost(id string, cost decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, ok := r.store.products[id]; ok {
		p.Cost = cost
		p.UpdatedAt = time.Now()
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// StockRepository
// ──────────────────────────────────────────────────────────────────────────────

// StockRepo existencias en memoria. GetForUpdate no bloquea: los tests de
// casos de uso son secuenciales.
type StockRepo struct{ store *Store }

// NewStockRepo construye el repositorio sobre el store.
func NewStockRepo(store *Store) *StockRepo { return &StockRepo{store: store} }

func (r *StockRepo) Get(companyID, productID string) (*entity.ProductStock, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	st, ok := r.store.stocks[stockKey(companyID, productID)]
	if !ok {
		return &entity.ProductStock{CompanyID: companyID, ProductID: productID, Quantity: decimal.Zero}, nil
	}
	cs := *st
	return &cs, nil
}

func (r *StockRepo) GetForUpdate(companyID, productID string) (*entity.ProductStock, error) {
	return r.Get(companyID, productID)
}

func (r *StockRepo) Upsert(stock *entity.ProductStock) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cs := *stock
	r.store.stocks[stockKey(stock.CompanyID, stock.ProductID)] = &cs
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// StockMovementRepository
// ──────────────────────────────────────────────────────────────────────────────

// MovementRepo libro de movimientos en memoria.
type MovementRepo struct{ store *Store }

// NewMovementRepo construye el repositorio sobre el store.
func NewMovementRepo(store *Store) *MovementRepo { return &MovementRepo{store: store} }

func (r *MovementRepo) Create(movement *entity.StockMovement) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextSeq++
	movement.Sequence = r.store.nextSeq
	cm := *movement
	r.store.movements = append(r.store.movements, &cm)
	return nil
}

func (r *MovementRepo) GetByID(id string) (*entity.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.movements {
		if m.ID == id {
			cm := *m
			return &cm, nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) ListByProduct(companyID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	all := r.listAsc(companyID, productID, from, to)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *MovementRepo) ListRange(companyID, productID string, from, to *time.Time) ([]*entity.StockMovement, error) {
	return r.listAsc(companyID, productID, from, to), nil
}

func (r *MovementRepo) ListAfterDesc(companyID, productID string, after time.Time) ([]*entity.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range r.store.movements {
		if m.CompanyID == companyID && m.ProductID == productID && m.OccurredAt.After(after) {
			cm := *m
			out = append(out, &cm)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].Sequence > out[j].Sequence
	})
	return out, nil
}

func (r *MovementRepo) listAsc(companyID, productID string, from, to *time.Time) []*entity.StockMovement {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.StockMovement
	for _, m := range r.store.movements {
		if m.CompanyID != companyID || m.ProductID != productID {
			continue
		}
		if from != nil && m.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && m.OccurredAt.After(*to) {
			continue
		}
		cm := *m
		out = append(out, &cm)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// OrderRepository
// ──────────────────────────────────────────────────────────────────────────────

// OrderRepo órdenes en memoria.
type OrderRepo struct{ store *Store }

// NewOrderRepo construye el repositorio sobre el store.
func NewOrderRepo(store *Store) *OrderRepo { return &OrderRepo{store: store} }

func (r *OrderRepo) GetByID(id string) (*entity.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *OrderRepo) GetForUpdate(id string) (*entity.Order, error) {
	return r.GetByID(id)
}

func (r *OrderRepo) GetLines(orderID string) ([]*entity.OrderLine, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.orderLinesLocked(orderID), nil
}

func (r *OrderRepo) UpdateStatus(orderID, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if o, ok := r.store.orders[orderID]; ok {
		o.Status = status
		o.UpdatedAt = time.Now()
	}
	return nil
}

func (r *OrderRepo) UpdateTotals(orderID string, subtotal, total decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if o, ok := r.store.orders[orderID]; ok {
		o.Subtotal = subtotal
		o.Total = total
		o.UpdatedAt = time.Now()
	}
	return nil
}

func (r *OrderRepo) UpdateLineQuantity(lineID string, quantity, lineTotal decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if l, ok := r.store.lines[lineID]; ok {
		l.Quantity = quantity
		l.LineTotal = lineTotal
	}
	return nil
}

func (r *OrderRepo) UpdateLineProduct(lineID, productID string, unitPrice, lineTotal decimal.Decimal) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if l, ok := r.store.lines[lineID]; ok {
		l.ProductID = productID
		l.UnitPrice = unitPrice
		l.LineTotal = lineTotal
	}
	return nil
}

func (r *OrderRepo) DeleteLine(lineID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.lines, lineID)
	return nil
}

func (r *OrderRepo) SaveIssueReport(orderID string, report *entity.IssueReport) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if o, ok := r.store.orders[orderID]; ok {
		o.IssueReport = cloneReport(report)
		o.UpdatedAt = time.Now()
	}
	return nil
}

func (r *OrderRepo) ClearIssueReport(orderID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if o, ok := r.store.orders[orderID]; ok {
		o.IssueReport = nil
		o.UpdatedAt = time.Now()
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// PickingRepository
// ──────────────────────────────────────────────────────────────────────────────

// PickingRepo jobs y líneas de picking en memoria.
type PickingRepo struct{ store *Store }

// NewPickingRepo construye el repositorio sobre el store.
func NewPickingRepo(store *Store) *PickingRepo { return &PickingRepo{store: store} }

func (r *PickingRepo) CreateJob(job *entity.PickingJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *PickingRepo) GetJob(id string) (*entity.PickingJob, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	j, ok := r.store.jobs[id]
	if !ok {
		return nil, nil
	}
	return cloneJob(j), nil
}

func (r *PickingRepo) GetJobForUpdate(id string) (*entity.PickingJob, error) {
	return r.GetJob(id)
}

func (r *PickingRepo) FindActiveByOrder(orderID string) (*entity.PickingJob, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, j := range r.store.jobs {
		if j.OrderID == orderID && j.IsActive() {
			return cloneJob(j), nil
		}
	}
	return nil, nil
}

func (r *PickingRepo) UpdateJob(job *entity.PickingJob) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *PickingRepo) CreateLineItem(line *entity.PickingLineItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cl := *line
	r.store.items[line.ID] = &cl
	return nil
}

func (r *PickingRepo) GetLineItem(id string) (*entity.PickingLineItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.items[id]
	if !ok {
		return nil, nil
	}
	cl := *l
	return &cl, nil
}

func (r *PickingRepo) GetLineItemForUpdate(id string) (*entity.PickingLineItem, error) {
	return r.GetLineItem(id)
}

func (r *PickingRepo) ListLineItems(jobID string) ([]*entity.PickingLineItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.PickingLineItem
	for _, l := range r.store.items {
		if l.JobID == jobID {
			cl := *l
			out = append(out, &cl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PickingRepo) UpdateLineItem(line *entity.PickingLineItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cl := *line
	r.store.items[line.ID] = &cl
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner
// ──────────────────────────────────────────────────────────────────────────────

// TxRunner imita las transacciones con snapshot/restore sobre el store.
type TxRunner struct{ store *Store }

// NewTxRunner construye el runner sobre el store.
func NewTxRunner(store *Store) *TxRunner { return &TxRunner{store: store} }

var (
	_ ledger.TxRunner  = (*TxRunner)(nil)
	_ picking.TxRunner = (*TxRunner)(nil)
	_ issues.TxRunner  = (*TxRunner)(nil)
)

func (t *TxRunner) run(fn func() error) error {
	t.store.mu.Lock()
	snap := t.store.take()
	t.store.mu.Unlock()
	if err := fn(); err != nil {
		t.store.mu.Lock()
		t.store.restore(snap)
		t.store.mu.Unlock()
		return err
	}
	return nil
}

func (t *TxRunner) Run(_ context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return t.run(func() error {
		return fn(NewMovementRepo(t.store), NewStockRepo(t.store), NewProductRepo(t.store))
	})
}

func (t *TxRunner) RunPicking(_ context.Context, fn func(
	pickRepo repository.PickingRepository,
	orderRepo repository.OrderRepository,
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return t.run(func() error {
		return fn(NewPickingRepo(t.store), NewOrderRepo(t.store), NewMovementRepo(t.store), NewStockRepo(t.store), NewProductRepo(t.store))
	})
}

func (t *TxRunner) RunResolution(_ context.Context, fn func(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
) error) error {
	return t.run(func() error {
		return fn(NewOrderRepo(t.store), NewProductRepo(t.store))
	})
}
