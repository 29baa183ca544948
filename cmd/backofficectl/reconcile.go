package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/backoffice/jobs"
)

func newReconcileCmd() *cobra.Command {
	var (
		invoiceID int64
		limit     int
		dryRun    bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute stored invoice totals from their payments",
		Example: `  # Repair every drifted invoice
  backofficectl reconcile

  # List drift without writing
  backofficectl reconcile --dry-run

  # Reconcile one invoice
  backofficectl reconcile --id 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := e.pool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			return runReconcile(ctx, cmd.OutOrStdout(), e.ledger(pool), invoiceID, limit, dryRun)
		},
	}
	cmd.Flags().Int64Var(&invoiceID, "id", 0, "reconcile a single invoice")
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum invoices to inspect")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list drifted invoices without repairing them")
	return cmd
}

func runReconcile(ctx context.Context, out io.Writer, ledger jobs.Reconciler, invoiceID int64, limit int, dryRun bool) error {
	if invoiceID > 0 {
		res, err := ledger.Reconcile(ctx, invoiceID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "invoice %d: stored paid %d, payments %d, status %s -> %s, repaired=%t\n",
			res.InvoiceID, res.StoredPaid, res.PaymentsSum, res.StoredStatus, res.Status, res.Repaired)
		return nil
	}
	if dryRun {
		drifted, err := ledger.ListDrifted(ctx, limit)
		if err != nil {
			return err
		}
		for _, d := range drifted {
			fmt.Fprintf(out, "%d\t%s\tstored=%d\tpayments=%d\tstatus=%s\n", d.InvoiceID, d.Number, d.StoredPaid, d.PaymentsSum, d.Status)
		}
		fmt.Fprintf(out, "%d drifted invoice(s)\n", len(drifted))
		return nil
	}
	repaired, err := jobs.NewReconcileJob(ledger, nil, nil).Run(ctx, limit)
	fmt.Fprintf(out, "%d invoice(s) repaired\n", repaired)
	return err
}
