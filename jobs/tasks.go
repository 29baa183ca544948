package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerReconcile repairs invoices whose stored totals drifted from their payments.
	TaskLedgerReconcile = "ledger:reconcile"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ReconcilePayload bounds one reconcile run.
type ReconcilePayload struct {
	Limit int `json:"limit"`
}

// CleanupPayload sets how long idempotency keys are retained.
type CleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewReconcileTask constructs a reconcile task.
func NewReconcileTask(limit int) (*asynq.Task, error) {
	data, err := json.Marshal(ReconcilePayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerReconcile, data), nil
}

// NewCleanupTask constructs an idempotency cleanup task.
func NewCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(CleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
