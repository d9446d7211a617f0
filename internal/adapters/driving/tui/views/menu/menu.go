// Package menu provides the top-level navigation view for the TUI.
package menu

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lodeworks/quarry-cli/internal/adapters/driving/tui/messages"
	"github.com/lodeworks/quarry-cli/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Quit entries leave the program instead of
// switching views.
type Item struct {
	Label string
	View  messages.ViewType
	Quit  bool
}

// menuItems is the fixed navigation order.
func menuItems() []Item {
	return []Item{
		{Label: "Search", View: messages.ViewSearch},
		{Label: "Documents", View: messages.ViewDocuments},
		{Label: "Settings", View: messages.ViewSettings},
		{Label: "Help", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View is the main menu.
type View struct {
	styles   *styles.Styles
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu with the cursor on the first entry.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles: s,
		items:  menuItems(),
		width:  80,
		height: 24,
	}
}

// Init implements the view contract.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and resolves selection.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.items)-1 {
				v.selected++
			}
		case "enter":
			return v, v.choose()
		case "q":
			return v, tea.Quit
		}
	}

	return v, nil
}

// choose resolves the highlighted entry into a command.
func (v *View) choose() tea.Cmd {
	item := v.items[v.selected]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the title, the entries, and a key hint footer.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Quarry"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Local Hybrid Search"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		if i == v.selected {
			b.WriteString("> ")
			b.WriteString(v.styles.Subtitle.Render(item.Label))
		} else {
			b.WriteString("  ")
			b.WriteString(v.styles.Normal.Render(item.Label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [Enter] Select  [q] Quit"))

	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the currently selected index.
func (v *View) Selected() int {
	return v.selected
}
