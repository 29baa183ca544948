package ar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/backoffice/internal/shared"
)

type memoryARRepo struct {
	mu            *sync.Mutex
	invoices      map[int64]*Invoice
	payments      map[int64]*Payment
	idempotency   map[string]shared.IdempotencyRecord
	audits        []shared.AuditLog
	nextInvoiceID int64
	nextPaymentID int64
	nextItemID    int64
	failOn        string
	inTx          bool
}

func newMemoryARRepo() *memoryARRepo {
	return &memoryARRepo{
		mu:          &sync.Mutex{},
		invoices:    make(map[int64]*Invoice),
		payments:    make(map[int64]*Payment),
		idempotency: make(map[string]shared.IdempotencyRecord),
	}
}

type errInjected struct{ op string }

func (e errInjected) Error() string { return "injected failure in " + e.op }

func (r *memoryARRepo) fail(op string) error {
	if r.failOn == op {
		return errInjected{op: op}
	}
	return nil
}

// WithTx serialises transactions and restores the previous state when fn fails.
func (r *memoryARRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.clone()
	r.inTx = true
	err := fn(ctx, r)
	r.inTx = false
	if err != nil {
		r.restore(snapshot)
	}
	return err
}

func (r *memoryARRepo) clone() *memoryARRepo {
	c := newMemoryARRepo()
	for id, inv := range r.invoices {
		cp := *inv
		cp.Items = append([]LineItem(nil), inv.Items...)
		c.invoices[id] = &cp
	}
	for id, p := range r.payments {
		cp := *p
		c.payments[id] = &cp
	}
	for k, v := range r.idempotency {
		c.idempotency[k] = v
	}
	c.audits = append(c.audits, r.audits...)
	c.nextInvoiceID, c.nextPaymentID, c.nextItemID = r.nextInvoiceID, r.nextPaymentID, r.nextItemID
	return c
}

func (r *memoryARRepo) restore(c *memoryARRepo) {
	r.invoices, r.payments, r.idempotency, r.audits = c.invoices, c.payments, c.idempotency, c.audits
	r.nextInvoiceID, r.nextPaymentID, r.nextItemID = c.nextInvoiceID, c.nextPaymentID, c.nextItemID
}

func (r *memoryARRepo) InsertInvoice(ctx context.Context, inv *Invoice) error {
	if err := r.fail("InsertInvoice"); err != nil {
		return err
	}
	for _, existing := range r.invoices {
		if existing.Number == inv.Number {
			return ErrDuplicateNumber
		}
	}
	r.nextInvoiceID++
	inv.ID = r.nextInvoiceID
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	for i := range inv.Items {
		r.nextItemID++
		inv.Items[i].ID = r.nextItemID
	}
	cp := *inv
	cp.Items = append([]LineItem(nil), inv.Items...)
	cp.Payments = nil
	r.invoices[inv.ID] = &cp
	return nil
}

func (r *memoryARRepo) header(id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	cp := *inv
	cp.Items = []LineItem{}
	cp.Payments = []Payment{}
	return &cp, nil
}

func (r *memoryARRepo) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := r.header(id)
	if err != nil {
		return nil, err
	}
	inv.Items = append(inv.Items, r.invoices[id].Items...)
	for _, p := range r.sortedPayments(id) {
		inv.Payments = append(inv.Payments, p)
	}
	return inv, nil
}

func (r *memoryARRepo) LockInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return r.header(id)
}

func (r *memoryARRepo) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invoice, 0)
	for _, inv := range r.invoices {
		if filter.ClientID != "" && inv.ClientID != filter.ClientID {
			continue
		}
		if filter.Type != "" && inv.Type != filter.Type {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		h, _ := r.header(inv.ID)
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Offset >= len(out) {
		return []Invoice{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryARRepo) sortedPayments(invoiceID int64) []Payment {
	var out []Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memoryARRepo) InsertPayment(ctx context.Context, p *Payment) error {
	if err := r.fail("InsertPayment"); err != nil {
		return err
	}
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	p.CreatedAt = time.Now()
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *memoryARRepo) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryARRepo) SumPayments(ctx context.Context, invoiceID int64) (int64, error) {
	var sum int64
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			sum += p.Amount
		}
	}
	return sum, nil
}

func (r *memoryARRepo) UpdateBalance(ctx context.Context, id, paid, remaining int64, status Status) error {
	if err := r.fail("UpdateBalance"); err != nil {
		return err
	}
	inv, ok := r.invoices[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv.PaidAmount, inv.RemainingAmount, inv.Status = paid, remaining, status
	inv.UpdatedAt = time.Now()
	return nil
}

func (r *memoryARRepo) MarkVoid(ctx context.Context, id int64, reason string, at time.Time) error {
	inv, ok := r.invoices[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv.Status = StatusVoid
	inv.VoidReason = reason
	inv.VoidedAt = &at
	return nil
}

func (r *memoryARRepo) ListDrifted(ctx context.Context, limit int) ([]Drift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Drift
	for _, inv := range r.invoices {
		sum, _ := r.SumPayments(ctx, inv.ID)
		remaining, status := Balance(inv.Total, sum)
		if inv.Status == StatusVoid {
			status = StatusVoid
		}
		if sum != inv.PaidAmount || remaining != inv.RemainingAmount || status != inv.Status {
			out = append(out, Drift{InvoiceID: inv.ID, Number: inv.Number, StoredPaid: inv.PaidAmount, PaymentsSum: sum, Status: inv.Status})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceID < out[j].InvoiceID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryARRepo) OutstandingByClient(ctx context.Context) ([]ClientOutstanding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byClient := map[string]*ClientOutstanding{}
	for _, inv := range r.invoices {
		if inv.Type != TypeInvoice || (inv.Status != StatusDraft && inv.Status != StatusPartiallyPaid) {
			continue
		}
		c, ok := byClient[inv.ClientID]
		if !ok {
			c = &ClientOutstanding{ClientID: inv.ClientID}
			byClient[inv.ClientID] = c
		}
		c.Invoices++
		c.Total += inv.Total
		c.Paid += inv.PaidAmount
		c.Remaining += inv.RemainingAmount
	}
	out := make([]ClientOutstanding, 0, len(byClient))
	for _, c := range byClient {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Remaining > out[j].Remaining })
	return out, nil
}

func (r *memoryARRepo) LookupIdempotency(ctx context.Context, module, key string) (shared.IdempotencyRecord, bool, error) {
	rec, ok := r.idempotency[module+"/"+key]
	return rec, ok, nil
}

func (r *memoryARRepo) SaveIdempotency(ctx context.Context, rec shared.IdempotencyRecord) error {
	k := rec.Module + "/" + rec.Key
	if _, ok := r.idempotency[k]; ok {
		return shared.ErrIdempotencyInFlight
	}
	r.idempotency[k] = rec
	return nil
}

func (r *memoryARRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	if log.Actor == "" {
		log.Actor = shared.ActorFromContext(ctx)
	}
	r.audits = append(r.audits, log)
	return nil
}

// setStored overwrites stored figures to simulate drift.
func (r *memoryARRepo) setStored(id, paid, remaining int64, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv := r.invoices[id]
	inv.PaidAmount, inv.RemainingAmount, inv.Status = paid, remaining, status
}
