package commission

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/money"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// Metrics receives commission events.
type Metrics interface {
	CommissionComputed(mode string, amount int64)
	IdempotentReplay(module string)
}

// Service implements the commission rule store and computation engine.
type Service struct {
	repo    Repository
	metrics Metrics
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics reports commission events to m.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

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

var one = decimal.NewFromInt(1)

// Rates and factor values are stored with six fractional digits; fixed factor
// values must stay below 10^14.
const rateScale = 6

var factorValueLimit = decimal.New(1, 14)

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// CreateCommissionType validates and stores a commission rule.
func (s *Service) CreateCommissionType(ctx context.Context, in CreateTypeInput) (*CommissionType, error) {
	ct := &CommissionType{
		Name:            strings.TrimSpace(in.Name),
		ProductCategory: strings.TrimSpace(in.ProductCategory),
		ProductName:     strings.TrimSpace(in.ProductName),
		Mode:            in.Mode,
		MinAmount:       in.MinAmount,
		MaxAmount:       in.MaxAmount,
		IsActive:        boolOr(in.IsActive, true),
	}
	if ct.Name == "" {
		return nil, shared.Validation("name is required")
	}
	switch in.Mode {
	case ModePercentage:
		if in.Rate == nil {
			return nil, shared.Validation("commissionRate is required for percentage commission types")
		}
		if in.Rate.IsNegative() || in.Rate.GreaterThan(one) {
			return nil, shared.Validation("commissionRate must be between 0 and 1")
		}
		if !money.HasScale(*in.Rate, rateScale) {
			return nil, shared.Validation("commissionRate supports at most 6 decimal places")
		}
		ct.Rate = in.Rate
	case ModeFixed:
		if in.FixedAmount == nil {
			return nil, shared.Validation("fixedAmount is required for fixed commission types")
		}
		if *in.FixedAmount < 0 {
			return nil, shared.Validation("fixedAmount must not be negative")
		}
		ct.FixedAmount = in.FixedAmount
	case "":
		return nil, shared.Validation("commissionMode is required")
	default:
		return nil, shared.Validationf("unknown commissionMode %q", in.Mode)
	}
	if in.MinAmount != nil && *in.MinAmount < 0 {
		return nil, shared.Validation("minAmount must not be negative")
	}
	if in.MaxAmount != nil && *in.MaxAmount < 0 {
		return nil, shared.Validation("maxAmount must not be negative")
	}
	if in.MinAmount != nil && in.MaxAmount != nil && *in.MinAmount > *in.MaxAmount {
		return nil, shared.Validation("minAmount must not exceed maxAmount")
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.InsertType(ctx, ct); err != nil {
			return err
		}
		return repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditCommissionType,
			Entity:   "commission_type",
			EntityID: strconv.FormatInt(ct.ID, 10),
			Meta:     map[string]any{"name": ct.Name, "mode": ct.Mode},
		})
	})
	if err != nil {
		return nil, err
	}
	return ct, nil
}

// CreateAssignment stores a marketer override for an existing commission type.
func (s *Service) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*Assignment, error) {
	a := &Assignment{
		CommissionTypeID: in.CommissionTypeID,
		MarketerID:       strings.TrimSpace(in.MarketerID),
		MarketerName:     strings.TrimSpace(in.MarketerName),
		Factor:           strings.TrimSpace(in.Factor),
		FactorValue:      in.FactorValue,
		IsActive:         boolOr(in.IsActive, true),
	}
	if in.AdditionalRate != nil {
		a.AdditionalRate = *in.AdditionalRate
	}
	switch {
	case a.CommissionTypeID <= 0:
		return nil, shared.Validation("commissionTypeId is required")
	case a.MarketerID == "":
		return nil, shared.Validation("marketerId is required")
	case a.FactorValue != nil && a.FactorValue.IsNegative():
		return nil, shared.Validation("factorValue must not be negative")
	case a.FactorValue != nil && !money.HasScale(*a.FactorValue, rateScale):
		return nil, shared.Validation("factorValue supports at most 6 decimal places")
	case a.AdditionalRate.IsNegative() || a.AdditionalRate.GreaterThan(one):
		return nil, shared.Validation("additionalRate must be between 0 and 1")
	case !money.HasScale(a.AdditionalRate, rateScale):
		return nil, shared.Validation("additionalRate supports at most 6 decimal places")
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		ct, err := repo.GetType(ctx, a.CommissionTypeID)
		if err != nil {
			if errors.Is(err, ErrTypeNotFound) {
				return ErrUnknownType
			}
			return err
		}
		if a.FactorValue != nil {
			switch ct.Mode {
			case ModePercentage:
				if a.FactorValue.GreaterThan(one) {
					return shared.Validation("factorValue replaces the rate and must be between 0 and 1")
				}
			case ModeFixed:
				if _, err := money.FromDecimal(*a.FactorValue); err != nil {
					return shared.Validation("factorValue must be a whole amount for fixed commission types")
				}
				if !a.FactorValue.LessThan(factorValueLimit) {
					return shared.Validation("factorValue must be below 100000000000000 for fixed commission types")
				}
			}
		}
		if err := repo.InsertAssignment(ctx, a); err != nil {
			return err
		}
		return repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditCommissionAssigned,
			Entity:   "commission_assignment",
			EntityID: strconv.FormatInt(a.ID, 10),
			Meta:     map[string]any{"commissionTypeId": a.CommissionTypeID, "marketerId": a.MarketerID},
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListActiveAssignments lists active assignments, optionally for one marketer.
func (s *Service) ListActiveAssignments(ctx context.Context, marketerID string) ([]Assignment, error) {
	return s.repo.ListActiveAssignments(ctx, strings.TrimSpace(marketerID))
}

// GetCommissionType returns a commission type regardless of its active flag.
func (s *Service) GetCommissionType(ctx context.Context, id int64) (*CommissionType, error) {
	if id <= 0 {
		return nil, shared.Validation("commission type id is required")
	}
	return s.repo.GetType(ctx, id)
}

// ListCommissionTypes lists commission types.
func (s *Service) ListCommissionTypes(ctx context.Context, activeOnly bool) ([]CommissionType, error) {
	return s.repo.ListTypes(ctx, activeOnly)
}

type computeFingerprint struct {
	InvoiceID        int64  `json:"invoiceId"`
	InvoiceAmount    int64  `json:"invoiceAmount"`
	CommissionTypeID int64  `json:"commissionTypeId"`
	AssignmentID     *int64 `json:"assignmentId"`
	MarketerID       string `json:"marketerId"`
	Period           string `json:"period"`
}

// ComputeCommission applies the commission rule to an invoice amount and
// persists the result as a pending payment. Each call without an idempotency
// key creates a new payment.
func (s *Service) ComputeCommission(ctx context.Context, in ComputeInput) (*Payment, bool, error) {
	in.MarketerID = strings.TrimSpace(in.MarketerID)
	in.MarketerName = strings.TrimSpace(in.MarketerName)
	in.Period = strings.TrimSpace(in.Period)
	switch {
	case in.InvoiceID <= 0:
		return nil, false, shared.Validation("invoiceId is required")
	case in.InvoiceAmount <= 0:
		return nil, false, shared.Validation("invoiceAmount must be positive")
	case in.CommissionTypeID <= 0:
		return nil, false, shared.Validation("commissionTypeId is required")
	}
	key, err := shared.NormalizeIdempotencyKey(in.IdempotencyKey)
	if err != nil {
		return nil, false, err
	}
	if in.Period == "" {
		in.Period = s.now().UTC().Format("2006-01")
	}
	fingerprint, err := shared.Fingerprint(computeFingerprint{
		InvoiceID:        in.InvoiceID,
		InvoiceAmount:    in.InvoiceAmount,
		CommissionTypeID: in.CommissionTypeID,
		AssignmentID:     in.AssignmentID,
		MarketerID:       in.MarketerID,
		Period:           in.Period,
	})
	if err != nil {
		return nil, false, err
	}

	var (
		payment  *Payment
		replayed bool
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if key != "" {
			rec, found, err := repo.LookupIdempotency(ctx, shared.IdempotencyModuleCommission, key)
			if err != nil {
				return err
			}
			if found {
				id, err := rec.Replay(fingerprint)
				if err != nil {
					return err
				}
				payment, err = repo.GetPayment(ctx, id)
				replayed = err == nil
				return err
			}
		}

		ct, err := repo.GetType(ctx, in.CommissionTypeID)
		if err != nil {
			return err
		}
		if !ct.IsActive {
			return ErrTypeNotFound
		}
		var assignment *Assignment
		if in.AssignmentID != nil {
			assignment, err = repo.GetAssignment(ctx, *in.AssignmentID)
			if err != nil {
				return err
			}
			if !assignment.IsActive {
				return ErrAssignmentNotFound
			}
			if assignment.CommissionTypeID != ct.ID {
				return ErrAssignmentTypeMismatch
			}
		}
		marketerID, marketerName, err := resolveMarketer(in, assignment)
		if err != nil {
			return err
		}
		c, err := Compute(*ct, assignment, in.InvoiceAmount)
		if err != nil {
			return err
		}

		payment = &Payment{
			MarketerID:       marketerID,
			MarketerName:     marketerName,
			CommissionTypeID: ct.ID,
			AssignmentID:     in.AssignmentID,
			InvoiceID:        in.InvoiceID,
			InvoiceAmount:    in.InvoiceAmount,
			Mode:             c.Mode,
			Rate:             c.Rate,
			BaseAmount:       c.BaseAmount,
			AdjustmentAmount: c.AdjustmentAmount,
			CommissionAmount: c.Amount,
			Period:           in.Period,
			PaymentStatus:    StatusPending,
			Notes:            in.Notes,
		}
		if err := repo.InsertPayment(ctx, payment); err != nil {
			return err
		}
		if key != "" {
			if err := repo.SaveIdempotency(ctx, shared.IdempotencyRecord{
				Key:         key,
				Module:      shared.IdempotencyModuleCommission,
				Fingerprint: fingerprint,
				ResourceID:  payment.ID,
			}); err != nil {
				return err
			}
		}
		return repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditCommissionComputed,
			Entity:   "commission_payment",
			EntityID: strconv.FormatInt(payment.ID, 10),
			Meta: map[string]any{
				"invoiceId":        payment.InvoiceID,
				"invoiceAmount":    payment.InvoiceAmount,
				"mode":             payment.Mode,
				"rate":             payment.Rate.String(),
				"baseAmount":       payment.BaseAmount,
				"adjustmentAmount": payment.AdjustmentAmount,
				"commissionAmount": payment.CommissionAmount,
			},
		})
	})
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		if replayed {
			s.metrics.IdempotentReplay(shared.IdempotencyModuleCommission)
		} else {
			s.metrics.CommissionComputed(string(payment.Mode), payment.CommissionAmount)
		}
	}
	return payment, replayed, nil
}

func resolveMarketer(in ComputeInput, a *Assignment) (string, string, error) {
	if a == nil {
		if in.MarketerID == "" {
			return "", "", ErrMarketerRequired
		}
		return in.MarketerID, in.MarketerName, nil
	}
	if in.MarketerID != "" && in.MarketerID != a.MarketerID {
		return "", "", shared.Validation("marketerId does not match the assignment")
	}
	name := a.MarketerName
	if name == "" {
		name = in.MarketerName
	}
	return a.MarketerID, name, nil
}

// MarkCommissionPaid moves a pending commission payment to paid.
func (s *Service) MarkCommissionPaid(ctx context.Context, id int64, paymentDate time.Time) (*Payment, error) {
	if id <= 0 {
		return nil, shared.Validation("commission payment id is required")
	}
	if paymentDate.IsZero() {
		paymentDate = s.now().UTC().Truncate(24 * time.Hour)
	}
	var paid *Payment
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		p, err := repo.LockPayment(ctx, id)
		if err != nil {
			return err
		}
		if p.PaymentStatus == StatusPaid {
			return ErrAlreadyPaid
		}
		if err := repo.MarkPaid(ctx, id, paymentDate); err != nil {
			return err
		}
		if err := repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditCommissionPaid,
			Entity:   "commission_payment",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"paymentDate": paymentDate.Format(time.DateOnly)},
		}); err != nil {
			return err
		}
		paid, err = repo.GetPayment(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// GetCommissionPayment returns one commission payment.
func (s *Service) GetCommissionPayment(ctx context.Context, id int64) (*Payment, error) {
	if id <= 0 {
		return nil, shared.Validation("commission payment id is required")
	}
	return s.repo.GetPayment(ctx, id)
}

// ListCommissionPayments lists commission payments matching filter, newest first.
func (s *Service) ListCommissionPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Validationf("unknown paymentStatus %q", filter.Status)
	}
	filter.MarketerID = strings.TrimSpace(filter.MarketerID)
	filter.Period = strings.TrimSpace(filter.Period)
	page := shared.NewPage(filter.Limit, filter.Offset)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	return s.repo.ListPayments(ctx, filter)
}
