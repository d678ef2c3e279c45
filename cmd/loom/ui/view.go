package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles collects the lipgloss styles for the session view.
type Styles struct {
	Header    lipgloss.Style
	TurnLabel lipgloss.Style
	Player    lipgloss.Style
	DM        lipgloss.Style
	Narrator  lipgloss.Style
	Streaming lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
}

// DefaultStyles returns the standard color scheme.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		TurnLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Player:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		DM:        lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Narrator:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Streaming: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// View renders header, turn viewport, and footer.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	return m.renderHeader() + "\n" + m.viewport.View() + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render("loreloom — " + m.session.SessionID())
	status := ""
	if m.session.IsProcessing() {
		if n, ok := m.session.ProcessingTurn(); ok {
			status = fmt.Sprintf(" %s turn %d in progress", m.spinner.View(), n)
		} else {
			status = " " + m.spinner.View() + " working"
		}
	}
	counter := m.styles.Muted.Render(fmt.Sprintf("  highest turn %d", m.session.HighestKnownTurn()))
	return title + status + counter + "\n" + m.styles.Muted.Render(strings.Repeat("─", max(m.width, 1)))
}

func (m Model) renderFooter() string {
	return m.styles.Muted.Render("q quit · g top · G follow")
}

// renderTurns renders the ordered turn log. Streaming text shows in
// place while a turn is active and is replaced by the final record
// once committed.
func (m Model) renderTurns() string {
	var sb strings.Builder

	for _, t := range m.session.Turns() {
		sb.WriteString(m.styles.TurnLabel.Render(fmt.Sprintf("Turn %d", t.TurnNumber)))
		sb.WriteString("\n")

		if t.Input != nil {
			if t.Input.PlayerInput != "" {
				sb.WriteString(m.styles.Player.Render("  player: " + t.Input.PlayerInput))
				sb.WriteString("\n")
			}
			if t.Input.DMInput != "" {
				sb.WriteString(m.styles.DM.Render("  dm: " + t.Input.DMInput))
				sb.WriteString("\n")
			}
			if t.Input.PlayerInput == "" && t.Input.DMInput == "" && t.Input.CombinedText != "" {
				sb.WriteString(m.styles.Player.Render("  > " + t.Input.CombinedText))
				sb.WriteString("\n")
			}
		}

		switch {
		case t.FinalMessage != nil:
			name := t.FinalMessage.CharacterName
			if name == "" {
				name = t.FinalMessage.Role
			}
			sb.WriteString(m.styles.Narrator.Render("  "+name+": "+t.FinalMessage.Content) + "\n")
		case t.IsStreaming && t.StreamingText != "":
			sb.WriteString(m.styles.Streaming.Render("  "+t.StreamingText+"▌") + "\n")
		case t.IsStreaming:
			sb.WriteString(m.styles.Streaming.Render("  …") + "\n")
		}

		if t.Error != "" {
			sb.WriteString(m.styles.Error.Render("  error: "+t.Error) + "\n")
		}
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return m.styles.Muted.Render("no turns yet")
	}
	return sb.String()
}
