// internal/tui/browser.go
//
// This is the interactive document browser behind `dcs browse`.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the registry rows plus the state of each document on disk
// 2. Update: key presses and finished commands change that state
// 3. View: a filterable list on the left, details and the update journal on the right

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/dcs/internal/frontmatter"
	"github.com/kingrea/dcs/internal/impact"
	"github.com/kingrea/dcs/internal/propagation"
	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/workspace"
)

type focus int

const (
	focusList focus = iota
	focusDetail
)

var statusColors = map[propagation.Status]lipgloss.Color{
	propagation.StatusCurrent:    lipgloss.Color("#6BCB77"),
	propagation.StatusStale:      lipgloss.Color("#FFD93D"),
	propagation.StatusNoMetadata: lipgloss.Color("#FF9F45"),
	propagation.StatusMissing:    lipgloss.Color("#FF6B6B"),
}

// docItem implements list.Item for one registry row.
type docItem struct {
	propagation.Entry
}

func (i docItem) Title() string {
	return fmt.Sprintf("%s  [%s]", i.Record.ID, i.Status)
}

func (i docItem) Description() string {
	parts := []string{i.Record.Path}
	if i.Record.Version != "" {
		parts = append(parts, "v"+i.Record.Version)
	}
	if i.Meta.LastUpdated != "" {
		parts = append(parts, i.Meta.LastUpdated)
	}
	return strings.Join(parts, " · ")
}

func (i docItem) FilterValue() string {
	return i.Record.ID + " " + i.Record.Path
}

// metadataUpdatedMsg reports the end of an update triggered from the browser.
type metadataUpdatedMsg struct {
	id   string
	meta frontmatter.Metadata
	err  error
}

// Option customizes the browser.
type Option func(*Browser)

// WithAuthor sets updated_by for updates made from the browser.
func WithAuthor(author string) Option {
	return func(b *Browser) {
		b.author = strings.TrimSpace(author)
	}
}

// Browser is the bubbletea model of `dcs browse`.
type Browser struct {
	ws        *workspace.Workspace
	author    string
	list      list.Model
	detail    viewport.Model
	focus     focus
	staleOnly bool
	items     []docItem
	statusMsg string

	width  int
	height int
}

// NewBrowser builds the browser over ws.
func NewBrowser(ws *workspace.Workspace, opts ...Option) *Browser {
	docs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	docs.Title = "⬡ DOCUMENTS"
	docs.SetShowStatusBar(true)
	docs.SetFilteringEnabled(true)

	b := &Browser{
		ws:     ws,
		list:   docs,
		detail: viewport.New(0, 0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	b.refresh()
	return b
}

// Init is called once when the program starts.
func (b *Browser) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, nil

	case metadataUpdatedMsg:
		if msg.err != nil {
			b.statusMsg = fmt.Sprintf("Update failed: %v", msg.err)
		} else {
			b.statusMsg = fmt.Sprintf("Updated %s (version %s, %s)", msg.id, msg.meta.Version, msg.meta.LastUpdated)
		}
		b.refresh()
		return b, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return b, tea.Quit
		}
		// While the filter prompt is open every key belongs to it.
		if b.list.FilterState() == list.Filtering {
			break
		}
		switch key {
		case "q":
			return b, tea.Quit
		case "tab":
			if b.focus == focusList {
				b.focus = focusDetail
			} else {
				b.focus = focusList
			}
			return b, nil
		case "r":
			b.refresh()
			b.statusMsg = "Reloaded documents"
			return b, nil
		case "s":
			b.staleOnly = !b.staleOnly
			b.applyItems()
			if b.staleOnly {
				b.statusMsg = "Showing documents that need updating"
			} else {
				b.statusMsg = "Showing all documents"
			}
			return b, nil
		case "u":
			if cmd := b.updateSelected(); cmd != nil {
				return b, cmd
			}
			return b, nil
		}
	}

	var cmd tea.Cmd
	if b.focus == focusDetail {
		b.detail, cmd = b.detail.Update(msg)
		return b, cmd
	}
	before := b.selectedID()
	b.list, cmd = b.list.Update(msg)
	if b.selectedID() != before {
		b.syncDetail()
	}
	return b, cmd
}

// View renders the browser.
func (b *Browser) View() string {
	width := b.width
	if width <= 0 {
		width = 100
	}
	leftWidth, rightWidth := columns(width)

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ DCS · " + filepath.Base(b.ws.Root))

	left := lipgloss.NewStyle().Width(leftWidth).Render(b.list.View())
	right := lipgloss.JoinVertical(lipgloss.Left,
		b.renderDetailPanel(rightWidth),
		b.renderLogPanel(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)

	footer := lipgloss.NewStyle().Foreground(lipgloss.Color("#777777")).
		Render("↑/↓ move · / filter · tab focus · s needs-update · u update metadata · r reload · q quit")
	lines := []string{header, body}
	if b.statusMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Render(b.statusMsg))
	}
	lines = append(lines, footer)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// refresh reloads metadata and staleness for every registry row.
func (b *Browser) refresh() {
	b.items = b.items[:0]
	for _, entry := range propagation.Survey(b.ws) {
		b.items = append(b.items, docItem{entry})
	}
	b.applyItems()
}

func (b *Browser) applyItems() {
	items := make([]list.Item, 0, len(b.items))
	for _, item := range b.items {
		if b.staleOnly && item.Status != propagation.StatusStale {
			continue
		}
		items = append(items, item)
	}
	b.list.SetItems(items)
	if b.list.Index() >= len(items) && len(items) > 0 {
		b.list.Select(len(items) - 1)
	}
	b.syncDetail()
}

func (b *Browser) updateSelected() tea.Cmd {
	item, ok := b.selected()
	if !ok {
		return nil
	}
	ws, author, id := b.ws, b.author, item.Record.ID
	b.statusMsg = "Updating " + id + "..."
	return func() tea.Msg {
		meta, err := ws.UpdateMetadata(id, author)
		return metadataUpdatedMsg{id: id, meta: meta, err: err}
	}
}

func (b *Browser) selected() (docItem, bool) {
	item, ok := b.list.SelectedItem().(docItem)
	return item, ok
}

func (b *Browser) selectedID() string {
	if item, ok := b.selected(); ok {
		return item.Record.ID
	}
	return ""
}

func (b *Browser) resize(width, height int) {
	b.width = width
	b.height = height
	leftWidth, rightWidth := columns(width)
	b.list.SetSize(leftWidth, max(5, height-6))
	b.detail.Width = max(10, rightWidth-4)
	b.detail.Height = max(5, height/2)
	b.syncDetail()
}

func (b *Browser) syncDetail() {
	item, ok := b.selected()
	if !ok {
		b.detail.SetContent("No documents to show.")
		return
	}
	b.detail.SetContent(b.describe(item))
	b.detail.GotoTop()
}

// describe renders the detail text of one document.
func (b *Browser) describe(item docItem) string {
	rec := item.Record
	label := lipgloss.NewStyle().Bold(true).Width(17)
	row := func(name, value string) string {
		if value == "" {
			value = registry.EmptySentinel
		}
		return label.Render(name) + value
	}
	version := rec.Version
	if item.HasMetadata && item.Meta.Version != rec.Version {
		version = fmt.Sprintf("%s (registry) / %s (metadata)", orDash(rec.Version), orDash(item.Meta.Version))
	}
	updated := item.Meta.LastUpdated
	if updated != "" && item.Meta.UpdatedBy != "" {
		updated += " by " + item.Meta.UpdatedBy
	}
	affects := rec.Affects.String()
	if rec.Affects.IsAll() {
		affects = "ALL OTHER DOCUMENTS"
	}
	status := lipgloss.NewStyle().Foreground(statusColors[item.Status]).Render(string(item.Status))

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(rec.ID),
		"",
		row("Path", rec.Path),
		row("Version", version),
		row("Last updated", updated),
		row("Status", status),
		row("Depends on", strings.Join(rec.DependsOn, ", ")),
		row("Affects", affects),
		row("Impact", strings.Join(impact.Analyze(b.ws.Registry, rec.ID), ", ")),
		row("Change requires", strings.Join(rec.ChangeRequires, ", ")),
	}
	return strings.Join(lines, "\n")
}

func (b *Browser) renderDetailPanel(width int) string {
	borderColor := lipgloss.Color("#444444")
	if b.focus == focusDetail {
		borderColor = lipgloss.Color("#5B8DEF")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(max(10, width-2)).
		Render(b.detail.View())
}

func (b *Browser) renderLogPanel() string {
	if b.ws.Journal == nil {
		return ""
	}
	lines, total := b.ws.Journal.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(b.ws.Journal.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func columns(width int) (int, int) {
	rightWidth := max(32, width/2)
	leftWidth := width - rightWidth - 2
	if leftWidth < 30 {
		leftWidth = width
		rightWidth = width
	}
	return leftWidth, rightWidth
}

func orDash(value string) string {
	if value == "" {
		return registry.EmptySentinel
	}
	return value
}
