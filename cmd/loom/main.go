// Command loom follows a live narrative campaign session: it merges
// the push channel, the periodic history refetch, and the local turn
// cache into one ordered turn log, and renders it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"loreloom/internal/config"
	"loreloom/internal/logging"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	sessionID  string
	campaignID string

	// Loaded configuration
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "loom",
	Short: "loreloom - live turn log for narrative campaigns",
	Long: `loreloom keeps a single, consistent, ordered log of turns for a live
multi-party narrative session, reconciling three unsynchronized sources:
optimistic local writes, the push channel, and the authoritative history
snapshot.

Run "loom watch" for the live view, or "loom history" for a one-shot fetch.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		if workspace == "" {
			workspace, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve workspace: %w", err)
			}
		}
		if err := logging.Initialize(workspace); err != nil {
			logger.Warn("File logging unavailable", zap.Error(err))
		}

		cfg, err = config.Load(workspace)
		if err != nil {
			return err
		}
		if sessionID != "" {
			cfg.Campaign.SessionID = sessionID
		}
		if campaignID != "" {
			cfg.Campaign.CampaignID = campaignID
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory (default: cwd)")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "session ID (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&campaignID, "campaign", "c", "", "campaign ID (overrides config)")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
}

// requireSession validates that a session is bound before a command
// that needs one runs.
func requireSession() error {
	if cfg.Campaign.SessionID == "" {
		return fmt.Errorf("no session bound: pass --session or set campaign.session_id in %s", config.Path(workspace))
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
