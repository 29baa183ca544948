package ar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/backoffice/internal/platform/db"
	"github.com/odyssey-erp/backoffice/internal/shared"
)

// Repository is the persistence port of the invoice ledger.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	InsertInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	LockInvoice(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	InsertPayment(ctx context.Context, p *Payment) error
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	SumPayments(ctx context.Context, invoiceID int64) (int64, error)
	UpdateBalance(ctx context.Context, id, paid, remaining int64, status Status) error
	MarkVoid(ctx context.Context, id int64, reason string, at time.Time) error
	ListDrifted(ctx context.Context, limit int) ([]Drift, error)
	OutstandingByClient(ctx context.Context) ([]ClientOutstanding, error)
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

const invoiceColumns = `id, client_id, type, number, issue_date, due_date, subtotal, discount, tax, total,
paid_amount, remaining_amount, status, notes, terms, voided_at, void_reason, created_at, updated_at`

func (r *repository) InsertInvoice(ctx context.Context, inv *Invoice) error {
	err := r.db.QueryRow(ctx, `INSERT INTO invoices (client_id, type, number, issue_date, due_date, subtotal, discount, tax, total,
paid_amount, remaining_amount, status, notes, terms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING id, created_at, updated_at`,
		inv.ClientID, inv.Type, inv.Number, inv.IssueDate, dateParam(inv.DueDate), inv.Subtotal, inv.Discount, inv.Tax, inv.Total,
		inv.PaidAmount, inv.RemainingAmount, inv.Status, inv.Notes, inv.Terms,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "invoices_number_key") {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	for i := range inv.Items {
		item := &inv.Items[i]
		err := r.db.QueryRow(ctx, `INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, total)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			inv.ID, i+1, item.Description, item.Quantity, item.UnitPrice, item.Total,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert invoice item: %w", err)
		}
	}
	return nil
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := r.scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadChildren(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *repository) LockInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return r.scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv      Invoice
		dueDate  pgtype.Date
		voidedAt pgtype.Timestamptz
	)
	err := row.Scan(&inv.ID, &inv.ClientID, &inv.Type, &inv.Number, &inv.IssueDate, &dueDate,
		&inv.Subtotal, &inv.Discount, &inv.Tax, &inv.Total, &inv.PaidAmount, &inv.RemainingAmount,
		&inv.Status, &inv.Notes, &inv.Terms, &voidedAt, &inv.VoidReason, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	if dueDate.Valid {
		t := dueDate.Time
		inv.DueDate = &t
	}
	if voidedAt.Valid {
		t := voidedAt.Time
		inv.VoidedAt = &t
	}
	inv.Items = []LineItem{}
	inv.Payments = []Payment{}
	return &inv, nil
}

func (r *repository) loadChildren(ctx context.Context, inv *Invoice) error {
	rows, err := r.db.Query(ctx, `SELECT id, description, quantity, unit_price, total
FROM invoice_items WHERE invoice_id = $1 ORDER BY position`, inv.ID)
	if err != nil {
		return fmt.Errorf("query invoice items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (LineItem, error) {
		var item LineItem
		err := row.Scan(&item.ID, &item.Description, &item.Quantity, &item.UnitPrice, &item.Total)
		return item, err
	})
	if err != nil {
		return fmt.Errorf("scan invoice items: %w", err)
	}
	inv.Items = items

	rows, err = r.db.Query(ctx, `SELECT id, invoice_id, amount, method, paid_on, reference, created_at
FROM invoice_payments WHERE invoice_id = $1 ORDER BY id`, inv.ID)
	if err != nil {
		return fmt.Errorf("query payments: %w", err)
	}
	payments, err := pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return fmt.Errorf("scan payments: %w", err)
	}
	inv.Payments = payments
	return nil
}

func scanPayment(row pgx.CollectableRow) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.Date, &p.Reference, &p.CreatedAt)
	return p, err
}

func (r *repository) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ClientID != "" {
		add("client_id = $%d", filter.ClientID)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	invoices := make([]Invoice, 0)
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}

func (r *repository) InsertPayment(ctx context.Context, p *Payment) error {
	err := r.db.QueryRow(ctx, `INSERT INTO invoice_payments (invoice_id, amount, method, paid_on, reference)
VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		p.InvoiceID, p.Amount, p.Method, p.Date, p.Reference,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *repository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, invoice_id, amount, method, paid_on, reference, created_at
FROM invoice_payments WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *repository) SumPayments(ctx context.Context, invoiceID int64) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::bigint FROM invoice_payments WHERE invoice_id = $1`, invoiceID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return sum, nil
}

func (r *repository) UpdateBalance(ctx context.Context, id, paid, remaining int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET paid_amount = $2, remaining_amount = $3, status = $4, updated_at = NOW()
WHERE id = $1`, id, paid, remaining, status)
	if err != nil {
		return fmt.Errorf("update invoice balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *repository) MarkVoid(ctx context.Context, id int64, reason string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET status = $2, void_reason = $3, voided_at = $4, updated_at = NOW()
WHERE id = $1`, id, StatusVoid, reason, at)
	if err != nil {
		return fmt.Errorf("void invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *repository) ListDrifted(ctx context.Context, limit int) ([]Drift, error) {
	rows, err := r.db.Query(ctx, `SELECT i.id, i.number, i.paid_amount, COALESCE(p.sum, 0)::bigint, i.status
FROM invoices i
LEFT JOIN (SELECT invoice_id, SUM(amount) AS sum FROM invoice_payments GROUP BY invoice_id) p ON p.invoice_id = i.id
WHERE i.paid_amount <> COALESCE(p.sum, 0)
   OR i.remaining_amount <> GREATEST(i.total - COALESCE(p.sum, 0), 0)
   OR (i.status <> 'void' AND i.status <> CASE
        WHEN COALESCE(p.sum, 0) = 0 THEN 'draft'
        WHEN COALESCE(p.sum, 0) >= i.total THEN 'paid'
        ELSE 'partially_paid' END)
ORDER BY i.id
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list drifted invoices: %w", err)
	}
	drifts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Drift, error) {
		var d Drift
		err := row.Scan(&d.InvoiceID, &d.Number, &d.StoredPaid, &d.PaymentsSum, &d.Status)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan drifted invoices: %w", err)
	}
	return drifts, nil
}

func (r *repository) OutstandingByClient(ctx context.Context) ([]ClientOutstanding, error) {
	rows, err := r.db.Query(ctx, `SELECT client_id, COUNT(*)::int, SUM(total)::bigint, SUM(paid_amount)::bigint, SUM(remaining_amount)::bigint
FROM invoices
WHERE type = 'invoice' AND status IN ('draft', 'partially_paid')
GROUP BY client_id
ORDER BY SUM(remaining_amount) DESC, client_id`)
	if err != nil {
		return nil, fmt.Errorf("outstanding by client: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ClientOutstanding, error) {
		var c ClientOutstanding
		err := row.Scan(&c.ClientID, &c.Invoices, &c.Total, &c.Paid, &c.Remaining)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan outstanding: %w", err)
	}
	return out, nil
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

func dateParam(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}
