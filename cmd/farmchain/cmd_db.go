package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/farmchain/farmchain/database/migrations"
	"github.com/farmchain/farmchain/database/seeders"
	"github.com/farmchain/farmchain/pkg/migration"
	"github.com/spf13/cobra"
)

// withRunner boots the database and hands fn a migration runner.
func withRunner(cmd *cobra.Command, fn func(r *migration.Runner) error) error {
	rt, err := boot(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(migration.New(rt.db, migrations.All()))
}

// farmchain migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(r *migration.Runner) error {
			ran, err := r.Run(cmd.Context())
			for _, name := range ran {
				fmt.Println("Migrated:", name)
			}
			if err == nil && len(ran) == 0 {
				fmt.Println("Nothing to migrate.")
			}
			return err
		})
	},
}

// farmchain migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(r *migration.Runner) error {
			rolled, err := r.Rollback(cmd.Context())
			for _, name := range rolled {
				fmt.Println("Rolled back:", name)
			}
			if err == nil && len(rolled) == 0 {
				fmt.Println("Nothing to roll back.")
			}
			return err
		})
	},
}

// farmchain migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(r *migration.Runner) error {
			rows, err := r.Status(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
			for _, s := range rows {
				ran, batch := "no", "-"
				if s.Ran {
					ran, batch = "yes", fmt.Sprint(s.Batch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ran, batch)
			}
			return w.Flush()
		})
	},
}

// farmchain seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		ran, err := seeders.RunAll(cmd.Context(), rt.db, seeders.All())
		for _, name := range ran {
			fmt.Println("Seeded:", name)
		}
		return err
	},
}
