package commission

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/backoffice/internal/shared"
)

type memoryRepo struct {
	mu          sync.Mutex
	types       map[int64]CommissionType
	assignments map[int64]Assignment
	payments    map[int64]Payment
	idempotency map[string]shared.IdempotencyRecord
	audits      []shared.AuditLog
	nextID      int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		types:       make(map[int64]CommissionType),
		assignments: make(map[int64]Assignment),
		payments:    make(map[int64]Payment),
		idempotency: make(map[string]shared.IdempotencyRecord),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payments := make(map[int64]Payment, len(r.payments))
	for k, v := range r.payments {
		payments[k] = v
	}
	keys := make(map[string]shared.IdempotencyRecord, len(r.idempotency))
	for k, v := range r.idempotency {
		keys[k] = v
	}
	audits := len(r.audits)
	if err := fn(ctx, r); err != nil {
		r.payments, r.idempotency, r.audits = payments, keys, r.audits[:audits]
		return err
	}
	return nil
}

func (r *memoryRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memoryRepo) InsertType(ctx context.Context, ct *CommissionType) error {
	ct.ID = r.id()
	ct.CreatedAt, ct.UpdatedAt = time.Now(), time.Now()
	r.types[ct.ID] = *ct
	return nil
}

func (r *memoryRepo) GetType(ctx context.Context, id int64) (*CommissionType, error) {
	ct, ok := r.types[id]
	if !ok {
		return nil, ErrTypeNotFound
	}
	return &ct, nil
}

func (r *memoryRepo) ListTypes(ctx context.Context, activeOnly bool) ([]CommissionType, error) {
	out := make([]CommissionType, 0)
	for _, ct := range r.types {
		if activeOnly && !ct.IsActive {
			continue
		}
		out = append(out, ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) InsertAssignment(ctx context.Context, a *Assignment) error {
	if _, ok := r.types[a.CommissionTypeID]; !ok {
		return ErrUnknownType
	}
	a.ID = r.id()
	r.assignments[a.ID] = *a
	return nil
}

func (r *memoryRepo) GetAssignment(ctx context.Context, id int64) (*Assignment, error) {
	a, ok := r.assignments[id]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	return &a, nil
}

func (r *memoryRepo) ListActiveAssignments(ctx context.Context, marketerID string) ([]Assignment, error) {
	out := make([]Assignment, 0)
	for _, a := range r.assignments {
		if a.IsActive && (marketerID == "" || a.MarketerID == marketerID) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) InsertPayment(ctx context.Context, p *Payment) error {
	p.ID = r.id()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	r.payments[p.ID] = *p
	return nil
}

func (r *memoryRepo) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return nil, ErrPaymentNotFound
	}
	return &p, nil
}

func (r *memoryRepo) LockPayment(ctx context.Context, id int64) (*Payment, error) {
	return r.GetPayment(ctx, id)
}

func (r *memoryRepo) MarkPaid(ctx context.Context, id int64, paidOn time.Time) error {
	p, ok := r.payments[id]
	if !ok {
		return ErrPaymentNotFound
	}
	p.PaymentStatus = StatusPaid
	p.PaymentDate = &paidOn
	r.payments[id] = p
	return nil
}

func (r *memoryRepo) ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Payment, 0)
	for _, p := range r.payments {
		if filter.MarketerID != "" && p.MarketerID != filter.MarketerID {
			continue
		}
		if filter.InvoiceID > 0 && p.InvoiceID != filter.InvoiceID {
			continue
		}
		if filter.Period != "" && p.Period != filter.Period {
			continue
		}
		if filter.Status != "" && p.PaymentStatus != filter.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryRepo) LookupIdempotency(ctx context.Context, module, key string) (shared.IdempotencyRecord, bool, error) {
	rec, ok := r.idempotency[module+"/"+key]
	return rec, ok, nil
}

func (r *memoryRepo) SaveIdempotency(ctx context.Context, rec shared.IdempotencyRecord) error {
	k := rec.Module + "/" + rec.Key
	if _, ok := r.idempotency[k]; ok {
		return shared.ErrIdempotencyInFlight
	}
	r.idempotency[k] = rec
	return nil
}

func (r *memoryRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	r.audits = append(r.audits, log)
	return nil
}
