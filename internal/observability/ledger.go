package observability

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics counts ledger and commission events. A nil receiver is a no-op.
type LedgerMetrics struct {
	payments        prometheus.Counter
	paymentAmount   prometheus.Counter
	replays         *prometheus.CounterVec
	repaired        prometheus.Counter
	commissions     *prometheus.CounterVec
	commissionTotal *prometheus.CounterVec
}

func newLedgerMetrics(registerer prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		payments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_invoice_payments_total",
			Help: "Payments recorded against invoices.",
		}),
		paymentAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_invoice_payment_amount_total",
			Help: "Sum of recorded payment amounts in minor units.",
		}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_idempotent_replays_total",
			Help: "Requests answered from a stored idempotency key.",
		}, []string{"module"}),
		repaired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backoffice_invoice_repairs_total",
			Help: "Invoices whose stored balance was corrected by reconciliation.",
		}),
		commissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_commissions_computed_total",
			Help: "Commission payments computed, by commission mode.",
		}, []string{"mode"}),
		commissionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backoffice_commission_amount_total",
			Help: "Sum of computed commission amounts in minor units, by commission mode.",
		}, []string{"mode"}),
	}
	registerer.MustRegister(m.payments, m.paymentAmount, m.replays, m.repaired, m.commissions, m.commissionTotal)
	return m
}

// PaymentRecorded counts one invoice payment.
func (m *LedgerMetrics) PaymentRecorded(amount int64) {
	if m == nil {
		return
	}
	m.payments.Inc()
	m.paymentAmount.Add(float64(amount))
}

// IdempotentReplay counts a request served from an idempotency record.
func (m *LedgerMetrics) IdempotentReplay(module string) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(module).Inc()
}

// InvoiceRepaired counts a reconciliation that rewrote stored totals.
func (m *LedgerMetrics) InvoiceRepaired() {
	if m == nil {
		return
	}
	m.repaired.Inc()
}

// CommissionComputed counts a computed commission payment.
func (m *LedgerMetrics) CommissionComputed(mode string, amount int64) {
	if m == nil {
		return
	}
	m.commissions.WithLabelValues(mode).Inc()
	m.commissionTotal.WithLabelValues(mode).Add(float64(amount))
}
