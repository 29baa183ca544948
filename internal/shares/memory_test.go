package shares

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/backoffice/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	shares map[int64]Share
	audits []shared.AuditLog
	nextID int64
	failOn string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{shares: make(map[int64]Share)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make(map[int64]Share, len(r.shares))
	for k, v := range r.shares {
		snapshot[k] = v
	}
	audits := len(r.audits)
	if err := fn(ctx, r); err != nil {
		r.shares, r.audits = snapshot, r.audits[:audits]
		return err
	}
	return nil
}

func (r *memoryRepo) Insert(ctx context.Context, s *Share) error {
	r.nextID++
	s.ID = r.nextID
	s.CreatedAt, s.UpdatedAt = time.Now(), time.Now()
	r.shares[s.ID] = *s
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Share, error) {
	s, ok := r.shares[id]
	if !ok {
		return nil, ErrShareNotFound
	}
	return &s, nil
}

func (r *memoryRepo) Lock(ctx context.Context, id int64) (*Share, error) {
	return r.Get(ctx, id)
}

func (r *memoryRepo) MarkPaid(ctx context.Context, id int64, paidOn time.Time) error {
	s, ok := r.shares[id]
	if !ok {
		return ErrShareNotFound
	}
	s.PaymentStatus = StatusPaid
	s.PaymentDate = &paidOn
	r.shares[id] = s
	return nil
}

func (r *memoryRepo) List(ctx context.Context, filter ShareFilter) ([]Share, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Share, 0)
	for _, s := range r.shares {
		if filter.MarketerID != "" && s.MarketerID != filter.MarketerID {
			continue
		}
		if filter.Period != "" && s.Period != filter.Period {
			continue
		}
		if filter.Status != "" && s.PaymentStatus != filter.Status {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if filter.Offset >= len(out) {
		return []Share{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memoryRepo) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	if r.failOn == log.Action {
		return shared.Unavailable("audit store down", nil)
	}
	r.audits = append(r.audits, log)
	return nil
}
