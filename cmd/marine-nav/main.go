package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ngmaloney/marine-navigator/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "marine-nav",
	Short: "Marine route planning and navigation assistant",
	Long: "Plans routes between coastal places, checks them against charted hazards, " +
		"finds marinas and runs a turn-by-turn navigation console.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.AddCommand(planCmd, routesCmd, analyzeCmd, hazardsCmd, marinasCmd, navigateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
