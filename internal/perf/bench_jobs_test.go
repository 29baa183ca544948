package perf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/odyssey-erp/backoffice/internal/ar"
	jobmetrics "github.com/odyssey-erp/backoffice/internal/jobs"
	"github.com/odyssey-erp/backoffice/jobs"
)

type flakyLedger struct {
	calls int
}

func (l *flakyLedger) ListDrifted(ctx context.Context, limit int) ([]ar.Drift, error) {
	l.calls++
	if l.calls%20 == 0 {
		return nil, errors.New("timeout")
	}
	return []ar.Drift{{InvoiceID: 1}, {InvoiceID: 2}}, nil
}

func (l *flakyLedger) Reconcile(ctx context.Context, id int64) (*ar.ReconcileResult, error) {
	return &ar.ReconcileResult{InvoiceID: id, Repaired: id == 1}, nil
}

func TestReconcileJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	job := jobs.NewReconcileJob(&flakyLedger{}, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

	task, err := jobs.NewReconcileTask(100)
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	for i := 0; i < 60; i++ {
		_ = job.Handle(context.Background(), task)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "backoffice_jobs_total", map[string]string{"job": jobs.TaskLedgerReconcile, "status": "success"})
	failure := metricValue(t, families, "backoffice_jobs_total", map[string]string{"job": jobs.TaskLedgerReconcile, "status": "failure"})
	if success != 57 || failure != 3 {
		t.Fatalf("unexpected outcome counts: success=%f failure=%f", success, failure)
	}
	if drift := metricValue(t, families, "backoffice_ledger_drift_total", nil); drift != 114 {
		t.Fatalf("unexpected drift count: %f", drift)
	}
	if repaired := metricValue(t, families, "backoffice_ledger_repaired_total", nil); repaired != 57 {
		t.Fatalf("unexpected repaired count: %f", repaired)
	}

	if mean := histogramMean(t, families, "backoffice_job_duration_seconds", map[string]string{"job": jobs.TaskLedgerReconcile}); mean > 0.5 {
		t.Fatalf("reconcile duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
