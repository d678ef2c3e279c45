package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loreloom/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the local turn cache for the bound session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		if !cfg.Storage.Enabled {
			return fmt.Errorf("turn cache is disabled in config")
		}

		cache, err := store.Open(cachePath())
		if err != nil {
			return err
		}
		defer cache.Close()

		if err := cache.Reset(cfg.Campaign.SessionID); err != nil {
			return err
		}
		fmt.Printf("Cleared cached turns for session %s\n", cfg.Campaign.SessionID)
		return nil
	},
}
