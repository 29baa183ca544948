package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/backoffice/internal/ar"
	jobmetrics "github.com/odyssey-erp/backoffice/internal/jobs"
)

// Reconciler is the slice of the invoice ledger used by the reconcile job.
type Reconciler interface {
	ListDrifted(ctx context.Context, limit int) ([]ar.Drift, error)
	Reconcile(ctx context.Context, id int64) (*ar.ReconcileResult, error)
}

// ReconcileJob finds drifted invoices and rewrites their stored totals.
type ReconcileJob struct {
	Ledger  Reconciler
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReconcileJob initialises the reconcile handler.
func NewReconcileJob(ledger Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	return &ReconcileJob{Ledger: ledger, Logger: logger, Metrics: metrics}
}

// Handle executes one reconcile pass.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Ledger == nil {
		return errors.New("reconcile: handler not configured")
	}
	var payload ReconcilePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	tracker := j.Metrics.Track(TaskLedgerReconcile)
	defer func() { err = tracker.End(err) }()

	_, err = j.Run(ctx, payload.Limit)
	return err
}

// Run reconciles up to limit drifted invoices and returns how many were repaired.
// Failures on single invoices are logged and the pass continues; the last one is returned.
func (j *ReconcileJob) Run(ctx context.Context, limit int) (int, error) {
	start := time.Now()
	logger := j.logger().With(slog.String("job", TaskLedgerReconcile))

	drifted, err := j.Ledger.ListDrifted(ctx, limit)
	if err != nil {
		logger.Error("list drifted invoices", slog.Any("error", err))
		return 0, err
	}
	j.Metrics.AddDrift(len(drifted))

	var (
		repaired int
		lastErr  error
	)
	for _, d := range drifted {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		res, err := j.Ledger.Reconcile(ctx, d.InvoiceID)
		if err != nil {
			lastErr = err
			logger.Error("reconcile invoice", slog.Int64("invoice_id", d.InvoiceID), slog.Any("error", err))
			continue
		}
		if res.Repaired {
			repaired++
			logger.Warn("invoice repaired",
				slog.Int64("invoice_id", d.InvoiceID),
				slog.String("number", d.Number),
				slog.Int64("stored_paid", res.StoredPaid),
				slog.Int64("payments_sum", res.PaymentsSum),
				slog.String("status", string(res.Status)),
			)
		}
	}
	j.Metrics.AddRepaired(repaired)

	logger.Info("completed reconcile",
		slog.Int("drifted", len(drifted)),
		slog.Int("repaired", repaired),
		slog.Duration("duration", time.Since(start)),
	)
	return repaired, lastErr
}

func (j *ReconcileJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
