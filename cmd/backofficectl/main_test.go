package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/backoffice/internal/ar"
	"github.com/odyssey-erp/backoffice/jobs"
)

type stubLedger struct {
	drifted []ar.Drift
	rows    []ar.ClientOutstanding
	err     error
}

func (s stubLedger) ListDrifted(ctx context.Context, limit int) ([]ar.Drift, error) {
	return s.drifted, s.err
}

func (s stubLedger) Reconcile(ctx context.Context, id int64) (*ar.ReconcileResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ar.ReconcileResult{InvoiceID: id, StoredPaid: 100, PaymentsSum: 300, StoredStatus: ar.StatusPartiallyPaid, Status: ar.StatusPaid, Repaired: true}, nil
}

func (s stubLedger) Outstanding(ctx context.Context) ([]ar.ClientOutstanding, error) {
	return s.rows, s.err
}

func TestWriteOutstandingGroupsDigits(t *testing.T) {
	var buf bytes.Buffer
	writeOutstanding(&buf, []ar.ClientOutstanding{
		{ClientID: "c-1", Invoices: 2, Total: 5_450_000, Paid: 450_000, Remaining: 5_000_000},
		{ClientID: "c-2", Invoices: 1, Total: 1_000_000, Paid: 0, Remaining: 1_000_000},
	}, language.English)
	out := buf.String()
	require.Contains(t, out, "5,450,000")
	require.Contains(t, out, "6,000,000")
	require.True(t, strings.HasPrefix(strings.TrimSpace(out), "CLIENT"))

	buf.Reset()
	writeOutstanding(&buf, []ar.ClientOutstanding{{ClientID: "c-1", Invoices: 1, Total: 1_500_000, Remaining: 1_500_000}}, language.Indonesian)
	require.Contains(t, buf.String(), "1.500.000")
}

func TestRunOutstandingPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	require.ErrorIs(t, runOutstanding(context.Background(), &bytes.Buffer{}, stubLedger{err: boom}, language.English), boom)
}

func TestRunReconcileModes(t *testing.T) {
	ledger := stubLedger{drifted: []ar.Drift{{InvoiceID: 4, Number: "INV-4", StoredPaid: 10, PaymentsSum: 20, Status: ar.StatusPartiallyPaid}}}
	var buf bytes.Buffer

	require.NoError(t, runReconcile(context.Background(), &buf, ledger, 4, 0, false))
	require.Contains(t, buf.String(), "invoice 4: stored paid 100, payments 300")

	buf.Reset()
	require.NoError(t, runReconcile(context.Background(), &buf, ledger, 0, 10, true))
	require.Contains(t, buf.String(), "INV-4")
	require.Contains(t, buf.String(), "1 drifted invoice(s)")

	buf.Reset()
	require.NoError(t, runReconcile(context.Background(), &buf, ledger, 0, 10, false))
	require.Contains(t, buf.String(), "1 invoice(s) repaired")
}

func TestBuildTask(t *testing.T) {
	task, err := buildTask(jobs.TaskLedgerReconcile, 50)
	require.NoError(t, err)
	require.JSONEq(t, `{"limit":50}`, string(task.Payload()))

	_, err = buildTask("mail:send", 0)
	require.Error(t, err)
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"migrate", "up"}, {"schema", "check"}, {"reconcile"}, {"report", "outstanding"}, {"jobs", "trigger"}, {"jobs", "stats"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		require.Equal(t, path[len(path)-1], cmd.Name())
	}
}
