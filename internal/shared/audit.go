package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Audit actions.
const (
	AuditInvoiceCreated     = "invoice.created"
	AuditPaymentRecorded    = "invoice.payment_recorded"
	AuditInvoiceVoided      = "invoice.voided"
	AuditInvoiceReconciled  = "invoice.reconciled"
	AuditCommissionType     = "commission_type.created"
	AuditCommissionAssigned = "commission_assignment.created"
	AuditCommissionComputed = "commission_payment.computed"
	AuditCommissionPaid     = "commission_payment.paid"
	AuditShareCreated       = "marketer_share.created"
	AuditSharePaid          = "marketer_share.paid"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	q DBTX
}

// NewAuditLogger returns a new AuditLogger writing through q, usually the open transaction.
func NewAuditLogger(q DBTX) *AuditLogger {
	return &AuditLogger{q: q}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.q == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.Actor == "" {
		log.Actor = ActorFromContext(ctx)
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.q.Exec(ctx, `INSERT INTO audit_logs (actor, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.Actor, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
