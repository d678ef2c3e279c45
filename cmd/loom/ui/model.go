// Package ui provides the live TUI view of a session's turn log:
// a viewport over the ordered turns, with streaming text rendered in
// place until the final record replaces it.
package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"loreloom/internal/engine"
)

// engineUpdateMsg wraps an engine change notification for tea.
type engineUpdateMsg engine.Update

// updatesClosedMsg signals the subscription channel closed.
type updatesClosedMsg struct{}

// Model is the bubbletea model for the live session view.
type Model struct {
	session *engine.Session
	updates <-chan engine.Update

	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles

	ready  bool
	width  int
	height int

	// follow pins the viewport to the newest turn.
	follow bool

	ctx context.Context
}

// New builds the live view over a session engine.
func New(ctx context.Context, session *engine.Session) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		session: session,
		updates: session.Subscribe(),
		spinner: sp,
		styles:  DefaultStyles(),
		follow:  true,
		ctx:     ctx,
	}
}

// Init starts the spinner and the update pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForUpdate())
}

// waitForUpdate blocks on the engine's subscription channel.
func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return updatesClosedMsg{}
		case u, ok := <-m.updates:
			if !ok {
				return updatesClosedMsg{}
			}
			return engineUpdateMsg(u)
		}
	}
}

// Update handles input, resize, spinner ticks, and engine changes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "g":
			m.viewport.GotoTop()
			m.follow = false
		case "G":
			m.viewport.GotoBottom()
			m.follow = true
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			// Manual scrolling releases the follow pin.
			if !m.viewport.AtBottom() {
				m.follow = false
			}
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderTurns())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case engineUpdateMsg:
		m.viewport.SetContent(m.renderTurns())
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, m.waitForUpdate()

	case updatesClosedMsg:
		return m, tea.Quit
	}

	return m, nil
}
