package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/backoffice/internal/ar"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print ledger reports",
	}
	var lang string
	outstanding := &cobra.Command{
		Use:   "outstanding",
		Short: "Open balances per client",
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := language.Parse(lang)
			if err != nil {
				return fmt.Errorf("invalid --lang: %w", err)
			}
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
			return runOutstanding(ctx, cmd.OutOrStdout(), e.ledger(pool), tag)
		},
	}
	outstanding.Flags().StringVar(&lang, "lang", "en", "BCP 47 tag used for digit grouping")
	cmd.AddCommand(outstanding)
	return cmd
}

type outstandingSource interface {
	Outstanding(ctx context.Context) ([]ar.ClientOutstanding, error)
}

func runOutstanding(ctx context.Context, out io.Writer, src outstandingSource, tag language.Tag) error {
	rows, err := src.Outstanding(ctx)
	if err != nil {
		return err
	}
	writeOutstanding(out, rows, tag)
	return nil
}

func writeOutstanding(out io.Writer, rows []ar.ClientOutstanding, tag language.Tag) {
	p := message.NewPrinter(tag)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	p.Fprintf(tw, "CLIENT\tINVOICES\tTOTAL\tPAID\tREMAINING\t\n")
	var total, paid, remaining int64
	for _, r := range rows {
		p.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t\n", r.ClientID, r.Invoices, r.Total, r.Paid, r.Remaining)
		total += r.Total
		paid += r.Paid
		remaining += r.Remaining
	}
	p.Fprintf(tw, "ALL\t\t%d\t%d\t%d\t\n", total, paid, remaining)
	_ = tw.Flush()
}
