package shares

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/money"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// Service records marketer share payouts.
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds Service instance.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var hundred = decimal.NewFromInt(100)

// CreateShare stores a pending share. The percentage is informational and
// never used to derive the amount.
func (s *Service) CreateShare(ctx context.Context, in CreateShareInput) (*Share, error) {
	share := &Share{
		MarketerID:      strings.TrimSpace(in.MarketerID),
		MarketerName:    strings.TrimSpace(in.MarketerName),
		ShareAmount:     in.ShareAmount,
		SharePercentage: in.SharePercentage,
		Period:          strings.TrimSpace(in.Period),
		PaymentDate:     in.PaymentDate,
		PaymentStatus:   StatusPending,
		Notes:           in.Notes,
	}
	switch {
	case share.MarketerID == "":
		return nil, shared.Validation("marketerId is required")
	case share.ShareAmount <= 0:
		return nil, shared.Validation("shareAmount must be positive")
	case share.SharePercentage != nil && (share.SharePercentage.IsNegative() || share.SharePercentage.GreaterThan(hundred)):
		return nil, shared.Validation("sharePercentage must be between 0 and 100")
	case share.SharePercentage != nil && !money.HasScale(*share.SharePercentage, 4):
		return nil, shared.Validation("sharePercentage supports at most 4 decimal places")
	}
	if share.Period == "" {
		share.Period = s.now().UTC().Format("2006-01")
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.Insert(ctx, share); err != nil {
			return err
		}
		return repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditShareCreated,
			Entity:   "marketer_share",
			EntityID: strconv.FormatInt(share.ID, 10),
			Meta:     map[string]any{"marketerId": share.MarketerID, "shareAmount": share.ShareAmount, "period": share.Period},
		})
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// MarkPaid moves a pending share to paid. A zero paymentDate means today.
func (s *Service) MarkPaid(ctx context.Context, id int64, paymentDate time.Time) (*Share, error) {
	if id <= 0 {
		return nil, shared.Validation("marketer share id is required")
	}
	if paymentDate.IsZero() {
		paymentDate = s.now().UTC().Truncate(24 * time.Hour)
	}
	var paid *Share
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		current, err := repo.Lock(ctx, id)
		if err != nil {
			return err
		}
		if current.PaymentStatus == StatusPaid {
			return ErrAlreadyPaid
		}
		if err := repo.MarkPaid(ctx, id, paymentDate); err != nil {
			return err
		}
		if err := repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditSharePaid,
			Entity:   "marketer_share",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"paymentDate": paymentDate.Format(time.DateOnly)},
		}); err != nil {
			return err
		}
		paid, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// GetShare returns one share.
func (s *Service) GetShare(ctx context.Context, id int64) (*Share, error) {
	if id <= 0 {
		return nil, shared.Validation("marketer share id is required")
	}
	return s.repo.Get(ctx, id)
}

// ListShares lists shares matching filter, newest first.
func (s *Service) ListShares(ctx context.Context, filter ShareFilter) ([]Share, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Validationf("unknown paymentStatus %q", filter.Status)
	}
	filter.MarketerID = strings.TrimSpace(filter.MarketerID)
	filter.Period = strings.TrimSpace(filter.Period)
	page := shared.NewPage(filter.Limit, filter.Offset)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	return s.repo.List(ctx, filter)
}
