// Package input wraps the query entry field used by the search view.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lodeworks/quarry-cli/internal/adapters/driving/tui/styles"
)

const (
	searchLabel = "Search: "

	// queryLimit caps query length; anything longer than this adds
	// noise to tokenization without adding intent.
	queryLimit = 256

	minFieldWidth = 20
)

// SearchInput is a single-line query field. It owns only the text;
// submitting the query is the parent view's concern.
type SearchInput struct {
	field  textinput.Model
	styles *styles.Styles
	width  int
}

// NewSearchInput creates a focused query field.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Placeholder = "Search the corpus..."
	field.CharLimit = queryLimit
	field.Width = 50
	field.Focus()

	return &SearchInput{
		field:  field,
		styles: s,
		width:  50,
	}
}

// Init starts the cursor blink.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards messages to the underlying field.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.field, cmd = s.field.Update(msg)
	return s, cmd
}

// View renders the label and the bordered field on one line.
func (s *SearchInput) View() string {
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center,
		s.styles.Title.Render(searchLabel),
		s.styles.InputField.Render(s.field.View()),
	)
}

// Value returns the current query text.
func (s *SearchInput) Value() string {
	return s.field.Value()
}

// SetValue replaces the query text.
func (s *SearchInput) SetValue(value string) {
	s.field.SetValue(value)
}

// Focus gives the field keyboard focus.
func (s *SearchInput) Focus() tea.Cmd {
	return s.field.Focus()
}

// Blur removes keyboard focus.
func (s *SearchInput) Blur() {
	s.field.Blur()
}

// Focused reports whether the field has focus.
func (s *SearchInput) Focused() bool {
	return s.field.Focused()
}

// SetWidth sizes the component; the field takes what the label and
// border padding leave over, floored at a usable minimum.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	fieldWidth := width - len(searchLabel) - 2
	if fieldWidth < minFieldWidth {
		fieldWidth = minFieldWidth
	}
	s.field.Width = fieldWidth
}

// Width returns the component width.
func (s *SearchInput) Width() int {
	return s.width
}

// Reset clears the query.
func (s *SearchInput) Reset() {
	s.field.Reset()
}
