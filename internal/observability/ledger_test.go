package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestLedgerMetricsCountEvents(t *testing.T) {
	m := NewMetrics()
	l := m.Ledger

	l.PaymentRecorded(2_500_000)
	l.PaymentRecorded(500_000)
	l.IdempotentReplay("ar.payment")
	l.InvoiceRepaired()
	l.CommissionComputed("percentage", 500_000)
	l.CommissionComputed("fixed", 25_000)
	l.CommissionComputed("percentage", 100_000)

	require.Equal(t, 2.0, testutil.ToFloat64(l.payments))
	require.Equal(t, 3_000_000.0, testutil.ToFloat64(l.paymentAmount))
	require.Equal(t, 1.0, testutil.ToFloat64(l.replays.WithLabelValues("ar.payment")))
	require.Equal(t, 1.0, testutil.ToFloat64(l.repaired))
	require.Equal(t, 2.0, testutil.ToFloat64(l.commissions.WithLabelValues("percentage")))
	require.Equal(t, 600_000.0, testutil.ToFloat64(l.commissionTotal.WithLabelValues("percentage")))
}

func TestLedgerMetricsNilReceiver(t *testing.T) {
	var l *LedgerMetrics
	require.NotPanics(t, func() {
		l.PaymentRecorded(1)
		l.IdempotentReplay("x")
		l.InvoiceRepaired()
		l.CommissionComputed("fixed", 1)
	})
}
