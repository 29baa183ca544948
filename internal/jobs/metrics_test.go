package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("ledger:reconcile").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("ledger:reconcile").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ledger:reconcile", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ledger:reconcile", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("ledger:reconcile")))
}

func TestCountersIgnoreNonPositive(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddDrift(3)
	m.AddDrift(0)
	m.AddRepaired(2)
	m.AddPruned(-1)
	m.AddPruned(7)

	require.Equal(t, 3.0, testutil.ToFloat64(m.drift))
	require.Equal(t, 2.0, testutil.ToFloat64(m.repaired))
	require.Equal(t, 7.0, testutil.ToFloat64(m.pruned))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.AddDrift(1)
		m.AddRepaired(1)
		m.AddPruned(1)
		require.NoError(t, m.Track("x").End(nil))
	})
}
