package perf

import (
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/commission"
	"github.com/odyssey-erp/backoffice/internal/money"
)

func clampedType() commission.CommissionType {
	rate := decimal.RequireFromString("0.05")
	lo, hi := int64(50_000), int64(500_000)
	return commission.CommissionType{
		ID:        1,
		Name:      "Website sales",
		Mode:      commission.ModePercentage,
		Rate:      &rate,
		MinAmount: &lo,
		MaxAmount: &hi,
		IsActive:  true,
	}
}

func BenchmarkCommissionCompute(b *testing.B) {
	ct := clampedType()
	extra := decimal.RequireFromString("0.01")
	a := &commission.Assignment{ID: 2, CommissionTypeID: 1, MarketerID: "m-1", AdditionalRate: extra, IsActive: true}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := commission.Compute(ct, a, int64(1_000_000+i)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkApplyRate(b *testing.B) {
	rate := decimal.RequireFromString("0.125")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = money.ApplyRate(int64(i)*1_000, rate)
	}
}

func TestCommissionComputeLatency(t *testing.T) {
	ct := clampedType()
	samples := make([]time.Duration, 0, 2_000)
	for i := 0; i < cap(samples); i++ {
		start := time.Now()
		if _, err := commission.Compute(ct, nil, int64(i+1)*10_000); err != nil {
			t.Fatalf("compute: %v", err)
		}
		samples = append(samples, time.Since(start))
	}
	if p95 := percentile95(samples); p95 > 5*time.Millisecond {
		t.Fatalf("compute latency regression: p95=%s", p95)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
