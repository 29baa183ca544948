package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/backoffice/internal/platform/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			status, err := db.Migrate(e.cfg.PGDSN)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", status.Current)
			return nil
		},
	})
	return cmd
}

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Fail unless the schema is clean and at the latest version",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			status, err := db.CheckSchema(e.cfg.PGDSN)
			fmt.Fprintf(cmd.OutOrStdout(), "current=%d latest=%d dirty=%t\n", status.Current, status.Latest, status.Dirty)
			return err
		},
	})
	return cmd
}
