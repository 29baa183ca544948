package commission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/platform/db"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// Repository is the persistence port of the commission rule store and payouts.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	InsertType(ctx context.Context, ct *CommissionType) error
	GetType(ctx context.Context, id int64) (*CommissionType, error)
	ListTypes(ctx context.Context, activeOnly bool) ([]CommissionType, error)
	InsertAssignment(ctx context.Context, a *Assignment) error
	GetAssignment(ctx context.Context, id int64) (*Assignment, error)
	ListActiveAssignments(ctx context.Context, marketerID string) ([]Assignment, error)
	InsertPayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	LockPayment(ctx context.Context, id int64) (*Payment, error)
	MarkPaid(ctx context.Context, id int64, paidOn time.Time) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
	LookupIdempotency(ctx context.Context, module, key string) (shared.IdempotencyRecord, bool, error)
	SaveIdempotency(ctx context.Context, rec shared.IdempotencyRecord) error
	RecordAudit(ctx context.Context, log shared.AuditLog) error
}

type repository struct {
	db   shared.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

// Rates travel as text so NUMERIC values keep their exact scale.
func decimalParam(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(t pgtype.Text) (*decimal.Decimal, error) {
	if !t.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(t.String)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", t.String, err)
	}
	return &d, nil
}

func int8Ptr(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

const typeColumns = `id, name, product_category, product_name, commission_mode, commission_rate::text,
fixed_amount, min_amount, max_amount, is_active, created_at, updated_at`

func (r *repository) InsertType(ctx context.Context, ct *CommissionType) error {
	err := r.db.QueryRow(ctx, `INSERT INTO commission_types (name, product_category, product_name, commission_mode,
commission_rate, fixed_amount, min_amount, max_amount, is_active)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
RETURNING id, created_at, updated_at`,
		ct.Name, ct.ProductCategory, ct.ProductName, ct.Mode, decimalParam(ct.Rate),
		ct.FixedAmount, ct.MinAmount, ct.MaxAmount, ct.IsActive,
	).Scan(&ct.ID, &ct.CreatedAt, &ct.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert commission type: %w", err)
	}
	return nil
}

func scanType(row pgx.Row) (*CommissionType, error) {
	var (
		ct                  CommissionType
		rate                pgtype.Text
		fixed, lower, upper pgtype.Int8
	)
	err := row.Scan(&ct.ID, &ct.Name, &ct.ProductCategory, &ct.ProductName, &ct.Mode, &rate,
		&fixed, &lower, &upper, &ct.IsActive, &ct.CreatedAt, &ct.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan commission type: %w", err)
	}
	if ct.Rate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	ct.FixedAmount, ct.MinAmount, ct.MaxAmount = int8Ptr(fixed), int8Ptr(lower), int8Ptr(upper)
	return &ct, nil
}

func (r *repository) GetType(ctx context.Context, id int64) (*CommissionType, error) {
	return scanType(r.db.QueryRow(ctx, `SELECT `+typeColumns+` FROM commission_types WHERE id = $1`, id))
}

func (r *repository) ListTypes(ctx context.Context, activeOnly bool) ([]CommissionType, error) {
	query := `SELECT ` + typeColumns + ` FROM commission_types`
	if activeOnly {
		query += ` WHERE is_active`
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list commission types: %w", err)
	}
	defer rows.Close()
	types := make([]CommissionType, 0)
	for rows.Next() {
		ct, err := scanType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *ct)
	}
	return types, rows.Err()
}

const assignmentColumns = `id, commission_type_id, marketer_id, marketer_name, factor, factor_value::text,
additional_rate::text, is_active, created_at, updated_at`

func (r *repository) InsertAssignment(ctx context.Context, a *Assignment) error {
	err := r.db.QueryRow(ctx, `INSERT INTO commission_assignments (commission_type_id, marketer_id, marketer_name, factor,
factor_value, additional_rate, is_active)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)
RETURNING id, created_at, updated_at`,
		a.CommissionTypeID, a.MarketerID, a.MarketerName, a.Factor, decimalParam(a.FactorValue),
		a.AdditionalRate.String(), a.IsActive,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrUnknownType
		}
		return fmt.Errorf("insert commission assignment: %w", err)
	}
	return nil
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var (
		a                  Assignment
		factor, additional pgtype.Text
	)
	err := row.Scan(&a.ID, &a.CommissionTypeID, &a.MarketerID, &a.MarketerName, &a.Factor, &factor,
		&additional, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan commission assignment: %w", err)
	}
	if a.FactorValue, err = parseDecimal(factor); err != nil {
		return nil, err
	}
	rate, err := parseDecimal(additional)
	if err != nil {
		return nil, err
	}
	if rate != nil {
		a.AdditionalRate = *rate
	}
	return &a, nil
}

func (r *repository) GetAssignment(ctx context.Context, id int64) (*Assignment, error) {
	return scanAssignment(r.db.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM commission_assignments WHERE id = $1`, id))
}

func (r *repository) ListActiveAssignments(ctx context.Context, marketerID string) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM commission_assignments WHERE is_active`
	var args []any
	if marketerID != "" {
		query += ` AND marketer_id = $1`
		args = append(args, marketerID)
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list commission assignments: %w", err)
	}
	defer rows.Close()
	assignments := make([]Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

const paymentColumns = `id, marketer_id, marketer_name, commission_type_id, assignment_id, invoice_id, invoice_amount,
commission_mode, commission_rate::text, base_amount, adjustment_amount, commission_amount, period,
payment_status, payment_date, notes, created_at, updated_at`

func (r *repository) InsertPayment(ctx context.Context, p *Payment) error {
	err := r.db.QueryRow(ctx, `INSERT INTO commission_payments (marketer_id, marketer_name, commission_type_id, assignment_id,
invoice_id, invoice_amount, commission_mode, commission_rate, base_amount, adjustment_amount, commission_amount,
period, payment_status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, $12, $13, $14)
RETURNING id, created_at, updated_at`,
		p.MarketerID, p.MarketerName, p.CommissionTypeID, p.AssignmentID, p.InvoiceID, p.InvoiceAmount,
		p.Mode, p.Rate.String(), p.BaseAmount, p.AdjustmentAmount, p.CommissionAmount,
		p.Period, p.PaymentStatus, p.Notes,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert commission payment: %w", err)
	}
	return nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		p            Payment
		assignmentID pgtype.Int8
		rate         pgtype.Text
		paidOn       pgtype.Date
	)
	err := row.Scan(&p.ID, &p.MarketerID, &p.MarketerName, &p.CommissionTypeID, &assignmentID, &p.InvoiceID,
		&p.InvoiceAmount, &p.Mode, &rate, &p.BaseAmount, &p.AdjustmentAmount, &p.CommissionAmount, &p.Period,
		&p.PaymentStatus, &paidOn, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan commission payment: %w", err)
	}
	p.AssignmentID = int8Ptr(assignmentID)
	parsed, err := parseDecimal(rate)
	if err != nil {
		return nil, err
	}
	if parsed != nil {
		p.Rate = *parsed
	}
	if paidOn.Valid {
		t := paidOn.Time
		p.PaymentDate = &t
	}
	return &p, nil
}

func (r *repository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM commission_payments WHERE id = $1`, id))
}

func (r *repository) LockPayment(ctx context.Context, id int64) (*Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM commission_payments WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) MarkPaid(ctx context.Context, id int64, paidOn time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE commission_payments SET payment_status = $2, payment_date = $3, updated_at = NOW()
WHERE id = $1`, id, StatusPaid, pgtype.Date{Time: paidOn, Valid: true})
	if err != nil {
		return fmt.Errorf("mark commission paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *repository) ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.MarketerID != "" {
		add("marketer_id = $%d", filter.MarketerID)
	}
	if filter.InvoiceID > 0 {
		add("invoice_id = $%d", filter.InvoiceID)
	}
	if filter.Period != "" {
		add("period = $%d", filter.Period)
	}
	if filter.Status != "" {
		add("payment_status = $%d", filter.Status)
	}
	query := `SELECT ` + paymentColumns + ` FROM commission_payments`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list commission payments: %w", err)
	}
	defer rows.Close()
	payments := make([]Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (r *repository) LookupIdempotency(ctx context.Context, module, key string) (shared.IdempotencyRecord, bool, error) {
	return shared.LookupIdempotency(ctx, r.db, module, key)
}

func (r *repository) SaveIdempotency(ctx context.Context, rec shared.IdempotencyRecord) error {
	return shared.SaveIdempotency(ctx, r.db, rec)
}

func (r *repository) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, log)
}
