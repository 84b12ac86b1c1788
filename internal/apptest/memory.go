// Package apptest provee implementaciones en memoria de los puertos de
// persistencia para probar los casos de uso sin PostgreSQL. El TxRunner
// imita la semántica transaccional con snapshot/restore: si la función
// devuelve error el estado vuelve al del inicio de la transacción.
package apptest

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	mu sync.Mutex

	products  map[string]*entity.Product
	stocks    map[string]*entity.ProductStock // clave companyID|productID
	movements []*entity.StockMovement
	orders    map[string]*entity.Order
	lines     map[string]*entity.OrderLine
	jobs      map[string]*entity.PickingJob
	items     map[string]*entity.PickingLineItem
	nextSeq   int64
}

// NewStore construye un Store vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		stocks:   make(map[string]*entity.ProductStock),
		orders:   make(map[string]*entity.Order),
		lines:    make(map[string]*entity.OrderLine),
		jobs:     make(map[string]*entity.PickingJob),
		items:    make(map[string]*entity.PickingLineItem),
	}
}

func stockKey(companyID, productID string) string { return companyID + "|" + productID }

// ──────────────────────────────────────────────────────────────────────────────
// Seeds
// ──────────────────────────────────────────────────────────────────────────────

// SeedProduct registra un producto en el catálogo.
func (s *Store) SeedProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = cloneProduct(p)
}

// SeedStock fija la existencia vigente de un producto.
func (s *Store) SeedStock(companyID, productID string, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[stockKey(companyID, productID)] = &entity.ProductStock{
		CompanyID: companyID,
		ProductID: productID,
		Quantity:  decimal.NewFromInt(qty),
		UpdatedAt: time.Now(),
	}
}

// SeedOrder registra una orden con sus líneas.
func (s *Store) SeedOrder(o *entity.Order, lines ...*entity.OrderLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	for _, l := range lines {
		cl := *l
		cl.OrderID = o.ID
		s.lines[l.ID] = &cl
	}
}

// SeedMovement inserta una entrada directamente en el libro (para armar
// historiales, incluidos los importados sin saldos desnormalizados).
func (s *Store) SeedMovement(m *entity.StockMovement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cm := *m
	if cm.Sequence == 0 {
		s.nextSeq++
		cm.Sequence = s.nextSeq
	} else if cm.Sequence > s.nextSeq {
		s.nextSeq = cm.Sequence
	}
	s.movements = append(s.movements, &cm)
}

// Movements devuelve una copia del libro completo en orden de inserción.
func (s *Store) Movements() []*entity.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.StockMovement, len(s.movements))
	for i, m := range s.movements {
		cm := *m
		out[i] = &cm
	}
	return out
}

// Order devuelve una copia de la orden, o nil.
func (s *Store) Order(id string) *entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil
	}
	return cloneOrder(o)
}

// OrderLines devuelve copias de las líneas de la orden.
func (s *Store) OrderLines(orderID string) []*entity.OrderLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderLinesLocked(orderID)
}

func (s *Store) orderLinesLocked(orderID string) []*entity.OrderLine {
	var out []*entity.OrderLine
	for _, l := range s.lines {
		if l.OrderID == orderID {
			cl := *l
			out = append(out, &cl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// StockQty devuelve la existencia vigente como entero (0 si no hay fila).
func (s *Store) StockQty(companyID, productID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stocks[stockKey(companyID, productID)]
	if !ok {
		return 0
	}
	return st.Quantity.IntPart()
}

// DeleteLineItems borra las líneas de picking de un job. Reproduce el estado
// de un job cuyas líneas nunca llegaron a materializarse.
func (s *Store) DeleteLineItems(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.JobID == jobID {
			delete(s.items, id)
		}
	}
}

// Job devuelve una copia del job, o nil.
func (s *Store) Job(id string) *entity.PickingJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	return cloneJob(j)
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshot / restore (semántica transaccional)
// ──────────────────────────────────────────────────────────────────────────────

type snapshot struct {
	products  map[string]*entity.Product
	stocks    map[string]*entity.ProductStock
	movements []*entity.StockMovement
	orders    map[string]*entity.Order
	lines     map[string]*entity.OrderLine
	jobs      map[string]*entity.PickingJob
	items     map[string]*entity.PickingLineItem
	nextSeq   int64
}

func (s *Store) take() snapshot {
	snap := snapshot{
		products: make(map[string]*entity.Product, len(s.products)),
		stocks:   make(map[string]*entity.ProductStock, len(s.stocks)),
		orders:   make(map[string]*entity.Order, len(s.orders)),
		lines:    make(map[string]*entity.OrderLine, len(s.lines)),
		jobs:     make(map[string]*entity.PickingJob, len(s.jobs)),
		items:    make(map[string]*entity.PickingLineItem, len(s.items)),
		nextSeq:  s.nextSeq,
	}
	for k, v := range s.products {
		snap.products[k] = cloneProduct(v)
	}
	for k, v := range s.stocks {
		cv := *v
		snap.stocks[k] = &cv
	}
	snap.movements = make([]*entity.StockMovement, len(s.movements))
	for i, m := range s.movements {
		cm := *m
		snap.movements[i] = &cm
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range s.lines {
		cv := *v
		snap.lines[k] = &cv
	}
	for k, v := range s.jobs {
		snap.jobs[k] = cloneJob(v)
	}
	for k, v := range s.items {
		cv := *v
		snap.items[k] = &cv
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.products = snap.products
	s.stocks = snap.stocks
	s.movements = snap.movements
	s.orders = snap.orders
	s.lines = snap.lines
	s.jobs = snap.jobs
	s.items = snap.items
	s.nextSeq = snap.nextSeq
}

func cloneProduct(p *entity.Product) *entity.Product {
	cp := *p
	return &cp
}

func cloneOrder(o *entity.Order) *entity.Order {
	co := *o
	co.IssueReport = cloneReport(o.IssueReport)
	return &co
}

func cloneReport(r *entity.IssueReport) *entity.IssueReport {
	if r == nil {
		return nil
	}
	cr := *r
	cr.Missing = cloneIssueLines(r.Missing)
	cr.Damaged = cloneIssueLines(r.Damaged)
	cr.Partial = cloneIssueLines(r.Partial)
	return &cr
}

func cloneIssueLines(in []entity.IssueLine) []entity.IssueLine {
	if in == nil {
		return nil
	}
	out := make([]entity.IssueLine, len(in))
	copy(out, in)
	for i := range out {
		if in[i].Substitutes != nil {
			out[i].Substitutes = append([]entity.SubstituteCandidate(nil), in[i].Substitutes...)
		}
	}
	return out
}

func cloneJob(j *entity.PickingJob) *entity.PickingJob {
	cj := *j
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cj.FinishedAt = &t
	}
	return &cj
}
