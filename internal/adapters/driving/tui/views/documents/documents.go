// Package documents provides the corpus document list view for the TUI.
package documents

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lodeworks/quarry-cli/internal/adapters/driving/tui/messages"
	"github.com/lodeworks/quarry-cli/internal/adapters/driving/tui/styles"
	"github.com/lodeworks/quarry-cli/internal/core/domain"
	"github.com/lodeworks/quarry-cli/internal/core/ports/driving"
)

// View is the document list view, backed by the ingest service.
type View struct {
	styles        *styles.Styles
	ingestService driving.IngestService

	stats        *domain.CorpusStats
	documents    []domain.DocumentStats
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
	confirming   bool // remove confirmation pending
	scrollOffset int
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, ingestService driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		ingestService: ingestService,
		documents:     []domain.DocumentStats{},
	}
}

// Init initialises the view and triggers the first stats load.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadStats()
}

// loadStats returns a command that loads corpus statistics.
func (v *View) loadStats() tea.Cmd {
	return func() tea.Msg {
		if v.ingestService == nil {
			return messages.StatsLoaded{Err: fmt.Errorf("ingest service not available")}
		}

		stats, err := v.ingestService.Stats(context.Background())
		return messages.StatsLoaded{Stats: stats, Err: err}
	}
}

// removeDocument returns a command that removes the document with the given id.
func (v *View) removeDocument(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.ingestService == nil {
			return messages.DocumentRemoved{ID: docID, Err: fmt.Errorf("ingest service not available")}
		}

		removed, err := v.ingestService.Remove(context.Background(), docID)
		return messages.DocumentRemoved{ID: docID, Removed: removed, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		if v.confirming {
			return v.handleConfirmKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.StatsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.stats = msg.Stats
			v.documents = msg.Stats.Documents
			v.err = nil
			if v.selected >= len(v.documents) {
				v.selected = 0
				v.scrollOffset = 0
			}
		}
		return v, nil

	case messages.DocumentRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		// Reload stats after removal
		v.loading = true
		return v, v.loadStats()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "x":
		if len(v.documents) > 0 {
			v.confirming = true
		}
	case "r":
		v.loading = true
		return v, v.loadStats()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// handleConfirmKeyMsg handles key presses while a removal confirmation is pending.
func (v *View) handleConfirmKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirming = false
		if v.selected < len(v.documents) {
			return v, v.removeDocument(v.documents[v.selected].ID)
		}
	case "n", "N", "esc":
		v.confirming = false
	}
	return v, nil
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, summary, help, and padding
	reserved := 8
	available := v.height - reserved
	if available < 1 {
		available = 1
	}
	return available
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Documents (%d)", len(v.documents))
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading corpus..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents indexed. Run 'quarry ingest <path>' to add some."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Corpus summary
	if v.stats != nil {
		summary := fmt.Sprintf("%d chunks, %d vectors (dim %d)",
			v.stats.TotalChunks, v.stats.TotalVectors, v.stats.EmbeddingDimension)
		b.WriteString(v.styles.Muted.Render(summary))
		b.WriteString("\n\n")
	}

	// Removal confirmation
	if v.confirming && v.selected < len(v.documents) {
		doc := v.documents[v.selected]
		prompt := fmt.Sprintf("Remove %s and rebuild the index? [y/N]", doc.Filename)
		b.WriteString(v.styles.Warning.Render(prompt))
		b.WriteString("\n\n")
	}

	// Document list
	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
		line := v.renderDocument(i, &v.documents[i])
		b.WriteString(line)
		b.WriteString("\n")
	}

	// Scroll indicator
	if len(v.documents) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.documents)),
			len(v.documents))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.DocumentStats) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := doc.Filename
	if name == "" {
		name = doc.ID
	}

	maxNameLen := v.width/2 - 4
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	detail := fmt.Sprintf("%d chunks  %s", doc.NumChunks, doc.IngestedAt)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxNameLen, name, detail))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxNameLen, name)) +
		v.styles.Muted.Render(detail)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [x] remove  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.DocumentStats {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.DocumentStats {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsConfirming returns true if a removal confirmation is pending.
func (v *View) IsConfirming() bool {
	return v.confirming
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
