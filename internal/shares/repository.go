package shares

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

// Repository is the persistence port of the marketer share ledger.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Insert(ctx context.Context, s *Share) error
	Get(ctx context.Context, id int64) (*Share, error)
	Lock(ctx context.Context, id int64) (*Share, error)
	MarkPaid(ctx context.Context, id int64, paidOn time.Time) error
	List(ctx context.Context, filter ShareFilter) ([]Share, error)
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

const shareColumns = `id, marketer_id, marketer_name, share_amount, share_percentage::text, period,
payment_date, payment_status, notes, created_at, updated_at`

func (r *repository) Insert(ctx context.Context, s *Share) error {
	var pct *string
	if s.SharePercentage != nil {
		v := s.SharePercentage.String()
		pct = &v
	}
	var paidOn pgtype.Date
	if s.PaymentDate != nil {
		paidOn = pgtype.Date{Time: *s.PaymentDate, Valid: true}
	}
	err := r.db.QueryRow(ctx, `INSERT INTO marketer_shares (marketer_id, marketer_name, share_amount, share_percentage,
period, payment_date, payment_status, notes)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`,
		s.MarketerID, s.MarketerName, s.ShareAmount, pct, s.Period, paidOn, s.PaymentStatus, s.Notes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert marketer share: %w", err)
	}
	return nil
}

func scanShare(row pgx.Row) (*Share, error) {
	var (
		s      Share
		pct    pgtype.Text
		paidOn pgtype.Date
	)
	err := row.Scan(&s.ID, &s.MarketerID, &s.MarketerName, &s.ShareAmount, &pct, &s.Period,
		&paidOn, &s.PaymentStatus, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan marketer share: %w", err)
	}
	if pct.Valid {
		d, err := decimal.NewFromString(pct.String)
		if err != nil {
			return nil, fmt.Errorf("parse share percentage: %w", err)
		}
		s.SharePercentage = &d
	}
	if paidOn.Valid {
		t := paidOn.Time
		s.PaymentDate = &t
	}
	return &s, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Share, error) {
	return scanShare(r.db.QueryRow(ctx, `SELECT `+shareColumns+` FROM marketer_shares WHERE id = $1`, id))
}

func (r *repository) Lock(ctx context.Context, id int64) (*Share, error) {
	return scanShare(r.db.QueryRow(ctx, `SELECT `+shareColumns+` FROM marketer_shares WHERE id = $1 FOR UPDATE`, id))
}

func (r *repository) MarkPaid(ctx context.Context, id int64, paidOn time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE marketer_shares SET payment_status = $2, payment_date = $3, updated_at = NOW()
WHERE id = $1`, id, StatusPaid, pgtype.Date{Time: paidOn, Valid: true})
	if err != nil {
		return fmt.Errorf("mark share paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrShareNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter ShareFilter) ([]Share, error) {
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
	if filter.Period != "" {
		add("period = $%d", filter.Period)
	}
	if filter.Status != "" {
		add("payment_status = $%d", filter.Status)
	}
	query := `SELECT ` + shareColumns + ` FROM marketer_shares`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list marketer shares: %w", err)
	}
	defer rows.Close()
	out := make([]Share, 0)
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *repository) RecordAudit(ctx context.Context, log shared.AuditLog) error {
	return shared.NewAuditLogger(r.db).Record(ctx, log)
}
