package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/backoffice/internal/app"
	"github.com/odyssey-erp/backoffice/internal/ar"
	"github.com/odyssey-erp/backoffice/internal/platform/db"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "backofficectl",
		Short:         "Operate the invoice and commission ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newSchemaCmd(), newReconcileCmd(), newReportCmd(), newJobsCmd())
	return root
}

// env bundles what most subcommands need.
type env struct {
	cfg    *app.Config
	logger *slog.Logger
}

func loadEnv() (*env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: app.NewLogger(cfg)}, nil
}

func (e *env) pool(ctx context.Context) (*pgxpool.Pool, error) {
	return db.New(ctx, e.cfg.PGDSN, db.Options{MaxConns: 2, ConnectTimeout: e.cfg.PGConnectTimeout})
}

func (e *env) ledger(pool *pgxpool.Pool) *ar.Service {
	return ar.NewService(ar.NewRepository(pool), ar.WithLogger(e.logger))
}
