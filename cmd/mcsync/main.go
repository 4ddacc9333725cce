// Package main is the entry point of mcsync, the one-shot batch that pushes
// personal data sources into the mission control store.
//
// A run loads configuration, wires every domain unit, runs the selected units
// one after another and saves the signature store once at the end. Domain
// failures are printed and logged; they never change the exit status.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/aristath/mcsync/internal/config"
	"github.com/aristath/mcsync/internal/di"
	"github.com/aristath/mcsync/internal/utils"
	"github.com/aristath/mcsync/pkg/logger"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mcsync",
	Short: "Sync personal data sources into mission control",
	Long: color.CyanString("mcsync") + " reads health, training, habits, trading, meals, cron and report\n" +
		"sources and upserts whatever changed since the last run.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		only, _ := cmd.Flags().GetString("only")
		list, _ := cmd.Flags().GetBool("list")

		cfg, log := loadConfig()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		container, err := di.Wire(ctx, cfg, cmd.OutOrStdout(), log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to wire dependencies")
			return nil
		}

		if list {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, id := range container.Registry.IDs() {
				fmt.Fprintf(w, "%s\t%s\n", id, container.Registry.Get(id).Description)
			}
			return w.Flush()
		}

		container.Runner.Run(ctx, utils.ParseCSV(only))
		return nil
	},
}

func init() {
	rootCmd.Flags().String("only", "", "comma-separated domains to run (default: all)")
	rootCmd.Flags().Bool("list", false, "list domain names and exit")
	rootCmd.SilenceUsage = true
}

// loadConfig loads configuration and builds the logger. A configuration error
// is the only fatal path.
func loadConfig() (*config.Config, zerolog.Logger) {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		File:   cfg.LogFile,
	})
	logger.SetGlobalLogger(log)
	return cfg, log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
