package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/backoffice/internal/app"
	"github.com/odyssey-erp/backoffice/internal/ar"
	"github.com/odyssey-erp/backoffice/internal/commission"
	"github.com/odyssey-erp/backoffice/internal/platform/db"
	"github.com/odyssey-erp/backoffice/internal/shares"
)

func main() {
	_ = godotenv.Load()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	if _, err := db.Migrate(cfg.PGDSN); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: 2, ConnectTimeout: cfg.PGConnectTimeout})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	ledger := ar.NewService(ar.NewRepository(pool))
	rules := commission.NewService(commission.NewRepository(pool))
	payouts := shares.NewService(shares.NewRepository(pool))

	fmt.Println("→ Seeding invoices...")
	invoices, err := seedInvoices(ctx, ledger)
	if err != nil {
		log.Fatalf("seed invoices: %v", err)
	}
	fmt.Println("→ Seeding commission rules...")
	if err := seedCommissions(ctx, rules, invoices); err != nil {
		log.Fatalf("seed commissions: %v", err)
	}
	fmt.Println("→ Seeding marketer shares...")
	if err := seedShares(ctx, payouts); err != nil {
		log.Fatalf("seed shares: %v", err)
	}
	fmt.Println("✓ Seed complete")
}

func seedInvoices(ctx context.Context, ledger *ar.Service) ([]*ar.Invoice, error) {
	issue := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	due := issue.AddDate(0, 0, 30)
	specs := []struct {
		number string
		client string
		items  []ar.LineItemInput
		tax    int64
		paid   []int64
	}{
		{"INV-2024-0001", "client-acme", []ar.LineItemInput{{Description: "Website build", Quantity: 1, UnitPrice: 5_000_000}}, 450_000, []int64{2_000_000}},
		{"INV-2024-0002", "client-acme", []ar.LineItemInput{{Description: "Hosting", Quantity: 12, UnitPrice: 150_000}}, 0, []int64{1_800_000}},
		{"INV-2024-0003", "client-borneo", []ar.LineItemInput{{Description: "Ads campaign", Quantity: 1, UnitPrice: 20_000_000}}, 0, nil},
	}
	out := make([]*ar.Invoice, 0, len(specs))
	for _, s := range specs {
		inv, err := ledger.CreateInvoice(ctx, ar.CreateInvoiceInput{
			ClientID:  s.client,
			Type:      ar.TypeInvoice,
			Number:    s.number,
			IssueDate: issue,
			DueDate:   &due,
			Items:     s.items,
			Tax:       s.tax,
		})
		if errors.Is(err, ar.ErrDuplicateNumber) {
			fmt.Printf("  skip %s (exists)\n", s.number)
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, amount := range s.paid {
			if _, err := ledger.RecordPayment(ctx, ar.RecordPaymentInput{InvoiceID: inv.ID, Amount: amount, Method: "transfer"}); err != nil {
				return nil, err
			}
		}
		out = append(out, inv)
	}
	return out, nil
}

func seedCommissions(ctx context.Context, rules *commission.Service, invoices []*ar.Invoice) error {
	rate := decimal.RequireFromString("0.05")
	lo, hi := int64(50_000), int64(500_000)
	ct, err := rules.CreateCommissionType(ctx, commission.CreateTypeInput{
		Name:            "Website sales",
		ProductCategory: "web",
		Mode:            commission.ModePercentage,
		Rate:            &rate,
		MinAmount:       &lo,
		MaxAmount:       &hi,
	})
	if err != nil {
		return err
	}
	extra := decimal.RequireFromString("0.01")
	assignment, err := rules.CreateAssignment(ctx, commission.CreateAssignmentInput{
		CommissionTypeID: ct.ID,
		MarketerID:       "marketer-rina",
		MarketerName:     "Rina",
		Factor:           "senior",
		AdditionalRate:   &extra,
	})
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		if _, _, err := rules.ComputeCommission(ctx, commission.ComputeInput{
			InvoiceID:        inv.ID,
			InvoiceAmount:    inv.Total,
			CommissionTypeID: ct.ID,
			AssignmentID:     &assignment.ID,
			Period:           inv.IssueDate.Format("2006-01"),
		}); err != nil {
			return err
		}
	}
	return nil
}

func seedShares(ctx context.Context, payouts *shares.Service) error {
	pct := decimal.RequireFromString("12.5")
	_, err := payouts.CreateShare(ctx, shares.CreateShareInput{
		MarketerID:      "marketer-rina",
		MarketerName:    "Rina",
		ShareAmount:     750_000,
		SharePercentage: &pct,
		Period:          "2024-06",
		Notes:           "June partner share",
	})
	return err
}
