package main

import (
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"loreloom/cmd/loom/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live TUI view of the session's turn log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return a.run(gctx) })

		program := tea.NewProgram(ui.New(gctx, a.session), tea.WithAltScreen(), tea.WithContext(gctx))
		g.Go(func() error {
			_, err := program.Run()
			stop() // quitting the TUI shuts the pipeline down
			return err
		})

		if err := g.Wait(); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}
