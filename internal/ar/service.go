package ar

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/backoffice/internal/money"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// InvoiceCache is a read-through cache of fully loaded invoices.
type InvoiceCache interface {
	Fetch(ctx context.Context, id int64, load func(context.Context) (*Invoice, error)) (*Invoice, error)
	Invalidate(ctx context.Context, id int64) error
}

// Metrics receives ledger events.
type Metrics interface {
	PaymentRecorded(amount int64)
	IdempotentReplay(module string)
	InvoiceRepaired()
}

// Service implements the invoice ledger.
type Service struct {
	repo    Repository
	cache   InvoiceCache
	metrics Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache serves GetInvoice through cache.
func WithCache(cache InvoiceCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithMetrics reports ledger events to m.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger used for non-fatal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds Service instance.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// CreateInvoice validates the input, computes totals and stores a draft invoice.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error) {
	inv, err := s.buildInvoice(in)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.InsertInvoice(ctx, inv); err != nil {
			return err
		}
		return repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditInvoiceCreated,
			Entity:   "invoice",
			EntityID: strconv.FormatInt(inv.ID, 10),
			Meta:     map[string]any{"number": inv.Number, "type": inv.Type, "total": inv.Total},
		})
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) buildInvoice(in CreateInvoiceInput) (*Invoice, error) {
	in.ClientID = strings.TrimSpace(in.ClientID)
	in.Number = strings.TrimSpace(in.Number)
	switch {
	case in.ClientID == "":
		return nil, shared.Validation("clientId is required")
	case in.Type == "":
		return nil, shared.Validation("type is required")
	case !in.Type.Valid():
		return nil, shared.Validationf("unknown invoice type %q", in.Type)
	case in.Number == "":
		return nil, shared.Validation("number is required")
	case len(in.Items) == 0:
		return nil, shared.Validation("at least one item is required")
	case in.Discount < 0:
		return nil, shared.Validation("discount must not be negative")
	case in.Tax < 0:
		return nil, shared.Validation("tax must not be negative")
	}

	items := make([]LineItem, 0, len(in.Items))
	var subtotal int64
	for i, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, shared.Validationf("items[%d]: quantity must be positive", i)
		}
		if it.UnitPrice < 0 {
			return nil, shared.Validationf("items[%d]: unitPrice must not be negative", i)
		}
		total, err := money.Mul(it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, shared.Validationf("items[%d]: total out of range", i)
		}
		if subtotal, err = money.Add(subtotal, total); err != nil {
			return nil, shared.Validation("subtotal out of range")
		}
		items = append(items, LineItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Total:       total,
		})
	}
	if in.Discount > subtotal {
		return nil, shared.Validation("discount must not exceed subtotal")
	}
	total, err := money.Add(subtotal-in.Discount, in.Tax)
	if err != nil {
		return nil, shared.Validation("total out of range")
	}
	if total < 0 {
		return nil, shared.Validation("total must not be negative")
	}

	issueDate := in.IssueDate
	if issueDate.IsZero() {
		issueDate = s.today()
	}
	if in.DueDate != nil && in.DueDate.Before(issueDate) {
		return nil, shared.Validation("dueDate must not be before issueDate")
	}
	remaining, status := Balance(total, 0)
	return &Invoice{
		ClientID:        in.ClientID,
		Type:            in.Type,
		Number:          in.Number,
		IssueDate:       issueDate,
		DueDate:         in.DueDate,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        in.Discount,
		Tax:             in.Tax,
		Total:           total,
		Payments:        []Payment{},
		RemainingAmount: remaining,
		Status:          status,
		Notes:           in.Notes,
		Terms:           in.Terms,
	}, nil
}

type paymentFingerprint struct {
	InvoiceID int64  `json:"invoiceId"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Date      string `json:"date"`
	Reference string `json:"reference"`
}

// RecordPayment stores a payment and recomputes the invoice position in the
// same transaction. Payments beyond the remaining amount are accepted; the
// remaining amount clamps at zero and the excess is not tracked.
func (s *Service) RecordPayment(ctx context.Context, in RecordPaymentInput) (*PaymentReceipt, error) {
	if in.InvoiceID <= 0 {
		return nil, shared.Validation("invoiceId is required")
	}
	if in.Amount <= 0 {
		return nil, shared.Validation("amount must be positive")
	}
	key, err := shared.NormalizeIdempotencyKey(in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.today()
	}
	in.Method = strings.TrimSpace(in.Method)
	in.Reference = strings.TrimSpace(in.Reference)
	fingerprint, err := shared.Fingerprint(paymentFingerprint{
		InvoiceID: in.InvoiceID,
		Amount:    in.Amount,
		Method:    in.Method,
		Date:      in.Date.Format(time.DateOnly),
		Reference: in.Reference,
	})
	if err != nil {
		return nil, err
	}

	var receipt PaymentReceipt
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if key != "" {
			rec, found, err := repo.LookupIdempotency(ctx, shared.IdempotencyModulePayment, key)
			if err != nil {
				return err
			}
			if found {
				paymentID, err := rec.Replay(fingerprint)
				if err != nil {
					return err
				}
				payment, err := repo.GetPayment(ctx, paymentID)
				if err != nil {
					return err
				}
				inv, err := repo.GetInvoice(ctx, payment.InvoiceID)
				if err != nil {
					return err
				}
				receipt = PaymentReceipt{Payment: *payment, Invoice: *inv, Replayed: true}
				return nil
			}
		}

		inv, err := repo.LockInvoice(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == StatusVoid {
			return ErrInvoiceVoid
		}
		payment := Payment{
			InvoiceID: inv.ID,
			Amount:    in.Amount,
			Method:    in.Method,
			Date:      in.Date,
			Reference: in.Reference,
		}
		if err := repo.InsertPayment(ctx, &payment); err != nil {
			return err
		}
		paid, err := repo.SumPayments(ctx, inv.ID)
		if err != nil {
			return err
		}
		inv.applyPaid(paid)
		if err := repo.UpdateBalance(ctx, inv.ID, inv.PaidAmount, inv.RemainingAmount, inv.Status); err != nil {
			return err
		}
		if key != "" {
			if err := repo.SaveIdempotency(ctx, shared.IdempotencyRecord{
				Key:         key,
				Module:      shared.IdempotencyModulePayment,
				Fingerprint: fingerprint,
				ResourceID:  payment.ID,
			}); err != nil {
				return err
			}
		}
		if err := repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditPaymentRecorded,
			Entity:   "invoice",
			EntityID: strconv.FormatInt(inv.ID, 10),
			Meta: map[string]any{
				"paymentId": payment.ID,
				"amount":    payment.Amount,
				"paid":      inv.PaidAmount,
				"remaining": inv.RemainingAmount,
				"status":    inv.Status,
			},
		}); err != nil {
			return err
		}
		full, err := repo.GetInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		receipt = PaymentReceipt{Payment: payment, Invoice: *full}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if receipt.Replayed {
		if s.metrics != nil {
			s.metrics.IdempotentReplay(shared.IdempotencyModulePayment)
		}
		return &receipt, nil
	}
	s.invalidate(ctx, receipt.Invoice.ID)
	if s.metrics != nil {
		s.metrics.PaymentRecorded(receipt.Payment.Amount)
	}
	return &receipt, nil
}

// VoidInvoice voids an invoice that has not received any payment.
func (s *Service) VoidInvoice(ctx context.Context, in VoidInvoiceInput) (*Invoice, error) {
	if in.InvoiceID <= 0 {
		return nil, shared.Validation("invoiceId is required")
	}
	var voided *Invoice
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.LockInvoice(ctx, in.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == StatusVoid {
			return ErrAlreadyVoid
		}
		if inv.PaidAmount > 0 {
			return ErrVoidWithPayments
		}
		if err := repo.MarkVoid(ctx, inv.ID, strings.TrimSpace(in.Reason), s.now().UTC()); err != nil {
			return err
		}
		if err := repo.RecordAudit(ctx, shared.AuditLog{
			Action:   shared.AuditInvoiceVoided,
			Entity:   "invoice",
			EntityID: strconv.FormatInt(inv.ID, 10),
			Meta:     map[string]any{"reason": in.Reason},
		}); err != nil {
			return err
		}
		voided, err = repo.GetInvoice(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, voided.ID)
	return voided, nil
}

// GetInvoice returns an invoice with its items and payments.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	if id <= 0 {
		return nil, shared.Validation("invoice id is required")
	}
	load := func(ctx context.Context) (*Invoice, error) {
		return s.repo.GetInvoice(ctx, id)
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.Fetch(ctx, id, load)
}

// ListInvoices returns invoice headers matching filter, newest first.
func (s *Service) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, shared.Validationf("unknown invoice type %q", filter.Type)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Validationf("unknown invoice status %q", filter.Status)
	}
	filter.ClientID = strings.TrimSpace(filter.ClientID)
	page := shared.NewPage(filter.Limit, filter.Offset)
	filter.Limit, filter.Offset = page.Limit, page.Offset
	return s.repo.ListInvoices(ctx, filter)
}

// Reconcile recomputes an invoice's paid amount, remaining amount and status
// from its payment rows and repairs the stored figures when they drifted.
func (s *Service) Reconcile(ctx context.Context, id int64) (*ReconcileResult, error) {
	if id <= 0 {
		return nil, shared.Validation("invoice id is required")
	}
	var result ReconcileResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		inv, err := repo.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		sum, err := repo.SumPayments(ctx, id)
		if err != nil {
			return err
		}
		result = ReconcileResult{
			InvoiceID:    id,
			StoredPaid:   inv.PaidAmount,
			PaymentsSum:  sum,
			StoredStatus: inv.Status,
		}
		storedRemaining := inv.RemainingAmount
		inv.applyPaid(sum)
		result.Status = inv.Status
		if inv.PaidAmount != result.StoredPaid || inv.RemainingAmount != storedRemaining || inv.Status != result.StoredStatus {
			if err := repo.UpdateBalance(ctx, id, inv.PaidAmount, inv.RemainingAmount, inv.Status); err != nil {
				return err
			}
			if err := repo.RecordAudit(ctx, shared.AuditLog{
				Action:   shared.AuditInvoiceReconciled,
				Entity:   "invoice",
				EntityID: strconv.FormatInt(id, 10),
				Meta: map[string]any{
					"storedPaid":   result.StoredPaid,
					"paymentsSum":  sum,
					"storedStatus": result.StoredStatus,
					"status":       inv.Status,
				},
			}); err != nil {
				return err
			}
			result.Repaired = true
		}
		full, err := repo.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		result.Invoice = *full
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Repaired {
		s.invalidate(ctx, id)
		if s.metrics != nil {
			s.metrics.InvoiceRepaired()
		}
	}
	return &result, nil
}

// ListDrifted reports invoices whose stored figures disagree with their payments.
func (s *Service) ListDrifted(ctx context.Context, limit int) ([]Drift, error) {
	return s.repo.ListDrifted(ctx, shared.NewPage(limit, 0).Limit)
}

// Outstanding aggregates open invoice balances per client.
func (s *Service) Outstanding(ctx context.Context) ([]ClientOutstanding, error) {
	return s.repo.OutstandingByClient(ctx)
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn("invalidate invoice cache", slog.Int64("invoice_id", id), slog.Any("error", err))
	}
}
