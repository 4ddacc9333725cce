package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/mcsync/internal/clients/convex"
	"github.com/aristath/mcsync/internal/modules/reports"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateWeeklyCmd)
}

var migrateWeeklyCmd = &cobra.Command{
	Use:   "migrate-weekly",
	Short: "Copy legacy weekly reports into the structured report table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log := loadConfig()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		remote := convex.NewClient(cfg.ConvexURL, cfg.MutationTimeout, log)
		res, err := reports.MigrateWeekly(ctx, remote, log)
		if err != nil {
			log.Error().Err(err).Msg("Weekly report migration failed")
			fmt.Fprintln(cmd.OutOrStdout(), color.RedString("✗ migration failed: %v", err))
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("found %d, migrated %d, failed %d", res.Found, res.Migrated, res.Failed))
		return nil
	},
}
