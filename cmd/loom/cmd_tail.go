package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"loreloom/internal/engine"
	"loreloom/internal/turns"
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Follow the session on stdout (no TUI)",
	Long: `tail connects to the push channel and the history endpoint and prints
each turn once it reaches a terminal state (final output or error).
Suited to piping and to terminals where the full TUI is unwanted.`,
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

		updates := a.session.Subscribe()
		go printUpdates(ctx, a.session, updates)

		return a.run(ctx)
	},
}

// printUpdates prints each turn once when it reaches a terminal state,
// and streaming text line by line as the buffer grows.
func printUpdates(ctx context.Context, session *engine.Session, updates <-chan engine.Update) {
	printed := make(map[int]bool)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Kind == engine.UpdateReset {
				printed = make(map[int]bool)
				continue
			}
			for _, t := range session.Turns() {
				if printed[t.TurnNumber] || !terminal(t) {
					continue
				}
				printTurn(t)
				printed[t.TurnNumber] = true
			}
		}
	}
}

func terminal(t turns.TurnState) bool {
	return t.FinalMessage != nil || t.Error != ""
}

func printTurn(t turns.TurnState) {
	fmt.Printf("=== Turn %d\n", t.TurnNumber)
	if t.Input != nil {
		fmt.Printf("> %s\n", t.Input.CombinedText)
	}
	if t.FinalMessage != nil {
		name := t.FinalMessage.CharacterName
		if name == "" {
			name = t.FinalMessage.Role
		}
		fmt.Printf("%s: %s\n", name, t.FinalMessage.Content)
	}
	if t.Error != "" {
		fmt.Printf("error: %s\n", t.Error)
	}
}
