// Package status renders the one-line bar at the bottom of the TUI.
package status

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lodeworks/quarry-cli/internal/adapters/driving/tui/keymap"
	"github.com/lodeworks/quarry-cli/internal/adapters/driving/tui/styles"
)

// State names what the application is doing, which decides both the
// left-hand text and which keybinding hints appear on the right.
type State string

const (
	StateReady     State = "ready"
	StateSearching State = "searching"
	StateError     State = "error"
	StateHelp      State = "help"
	StateResults   State = "results"
)

// Bar is the status line. It carries no update loop of its own; views
// drive it through the setters as their state changes.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	resultCount int
	width       int
}

// NewBar creates a status bar in the ready state.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init implements the component contract; the bar has no startup work.
func (b *Bar) Init() tea.Cmd {
	return nil
}

// Update implements the component contract. All state arrives through
// the setters, so messages pass through untouched.
func (b *Bar) Update(tea.Msg) (*Bar, tea.Cmd) {
	return b, nil
}

// View renders status text on the left and key hints on the right,
// separated by whatever width remains.
func (b *Bar) View() string {
	left := b.statusText()
	right := b.keyHints()

	gap := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", gap) + right,
	)
}

func (b *Bar) statusText() string {
	switch b.state {
	case StateSearching:
		return b.styles.Muted.Render("Searching...")
	case StateError:
		text := "Error"
		if b.message != "" {
			text = "Error: " + b.message
		}
		return b.styles.Error.Render(text)
	case StateHelp:
		return b.styles.Normal.Render("Help")
	}
	if b.resultCount > 0 {
		return b.styles.Normal.Render(fmt.Sprintf("%d results", b.resultCount))
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) keyHints() string {
	bindings := b.keymap.ShortHelp()
	if b.state == StateResults && b.resultCount > 0 {
		bindings = b.keymap.ResultsHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		hints = append(hints, help.Key+": "+help.Desc)
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the text shown alongside the error state.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetResultCount sets how many results the current search returned.
func (b *Bar) SetResultCount(count int) {
	b.resultCount = count
}

// ResultCount returns the current result count.
func (b *Bar) ResultCount() int {
	return b.resultCount
}

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Width returns the current width.
func (b *Bar) Width() int {
	return b.width
}

// Clear returns the bar to the ready state with no message or count.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.resultCount = 0
}
