package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loreloom/internal/engine"
	"loreloom/internal/history"
	"loreloom/internal/turns"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Fetch and print the reconciled turn log once",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}

		session := engine.NewSession(cfg.Campaign.SessionID)
		client := history.NewClient(cfg.Server)

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.Timeout)
		defer cancel()

		msgs, state, err := client.FetchSnapshot(ctx, cfg.Campaign.SessionID, cfg.Campaign.CampaignID)
		if err != nil {
			return err
		}
		session.ReconcileHistory(msgs, state)

		printTurns(session)
		return nil
	},
}

func printTurns(session *engine.Session) {
	all := session.Turns()
	fmt.Printf("Session %s — %d turns, highest known %d",
		session.SessionID(), len(all), session.HighestKnownTurn())
	if session.IsProcessing() {
		fmt.Print(" (processing)")
	}
	fmt.Println()

	for _, t := range all {
		fmt.Printf("\n--- Turn %d %s\n", t.TurnNumber, turnFlags(t))
		if t.Input != nil {
			fmt.Printf("  input: %s\n", firstLine(t.Input.CombinedText))
		}
		if t.StreamingText != "" && t.FinalMessage == nil {
			fmt.Printf("  streaming: %s\n", firstLine(t.StreamingText))
		}
		if t.FinalMessage != nil {
			name := t.FinalMessage.CharacterName
			if name == "" {
				name = t.FinalMessage.Role
			}
			fmt.Printf("  %s: %s\n", name, firstLine(t.FinalMessage.Content))
		}
		if t.Error != "" {
			fmt.Printf("  error: %s\n", t.Error)
		}
	}
}

func turnFlags(t turns.TurnState) string {
	var flags []string
	if t.IsStreaming {
		flags = append(flags, "streaming")
	}
	if t.FinalMessage != nil {
		flags = append(flags, "final")
	}
	if t.Error != "" {
		flags = append(flags, "error")
	}
	if len(flags) == 0 {
		return ""
	}
	return "[" + strings.Join(flags, ",") + "]"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " …"
	}
	return s
}
