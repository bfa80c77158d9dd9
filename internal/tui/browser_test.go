package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/dcs/internal/propagation"
	"github.com/kingrea/dcs/internal/testutil"
	"github.com/kingrea/dcs/internal/workspace"
)

func newTestBrowser(t *testing.T) *Browser {
	t.Helper()
	p := testutil.NewProject(t)
	p.WriteMaster(
		testutil.Row{ID: "DOC-A", Path: "docs/a.md", Version: "1.0.0", Affects: "DOC-B"},
		testutil.Row{ID: "DOC-B", Path: "docs/b.md", Version: "1.2.0", DependsOn: "DOC-A"},
		testutil.Row{ID: "DOC-C", Path: "docs/c.md", Version: "1.0.0"},
		testutil.Row{ID: "DOC-D", Path: "docs/d.md", Version: "1.0.0"},
	)
	p.WriteDoc("docs/a.md", "doc_id: DOC-A", "version: 1.0.0", "last_updated: 2024-02-01", "affects: [DOC-B]")
	p.WriteDoc("docs/b.md", "doc_id: DOC-B", "version: 1.1.0", "last_updated: 2024-01-01")
	p.WriteDoc("docs/d.md")
	ws := p.Workspace(workspace.WithClock(testutil.FixedClock("2024-03-01")))
	return NewBrowser(ws, WithAuthor("bob"))
}

func keyPress(key string) tea.KeyMsg {
	switch key {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestBrowserStatuses(t *testing.T) {
	b := newTestBrowser(t)
	want := map[string]propagation.Status{
		"DOC-A": propagation.StatusCurrent,
		"DOC-B": propagation.StatusStale,
		"DOC-C": propagation.StatusMissing,
		"DOC-D": propagation.StatusNoMetadata,
	}
	require.Len(t, b.items, len(want))
	for _, item := range b.items {
		assert.Equal(t, want[item.Record.ID], item.Status, item.Record.ID)
	}
	assert.Equal(t, "DOC-B docs/b.md", b.items[1].FilterValue())
	assert.Equal(t, "docs/b.md · v1.2.0 · 2024-01-01", b.items[1].Description())
}

func TestBrowserDetailShowsImpactAndVersionDrift(t *testing.T) {
	b := newTestBrowser(t)
	detail := b.describe(b.items[1])
	for _, want := range []string{"docs/b.md", "1.2.0 (registry) / 1.1.0 (metadata)", "needs update", "DOC-A"} {
		assert.Contains(t, detail, want)
	}
	assert.Contains(t, b.describe(b.items[0]), "DOC-B")
}

func TestBrowserStaleFilterAndUpdate(t *testing.T) {
	b := newTestBrowser(t)

	b.Update(keyPress("s"))
	require.True(t, b.staleOnly)
	require.Len(t, b.list.Items(), 1)

	_, cmd := b.Update(keyPress("u"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(metadataUpdatedMsg)
	require.True(t, ok)
	require.NoError(t, msg.err)
	b.Update(msg)

	assert.Contains(t, b.statusMsg, "Updated DOC-B")
	assert.Empty(t, b.list.Items())
	meta, ok := b.ws.Metadata("DOC-B")
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", meta.LastUpdated)
	assert.Equal(t, "bob", meta.UpdatedBy)
	assert.Equal(t, "1.2.0", meta.Version)
}

func TestBrowserUpdateErrorIsReported(t *testing.T) {
	b := newTestBrowser(t)
	b.list.Select(2)
	_, cmd := b.Update(keyPress("u"))
	require.NotNil(t, cmd)
	b.Update(cmd())
	assert.Regexp(t, `^Update failed:`, b.statusMsg)
}

func TestBrowserKeys(t *testing.T) {
	b := newTestBrowser(t)
	b.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	b.Update(keyPress("tab"))
	assert.Equal(t, focusDetail, b.focus)
	b.Update(keyPress("tab"))
	assert.Equal(t, focusList, b.focus)

	view := b.View()
	for _, want := range []string{"DOCUMENTS", "DOC-A", "u update metadata"} {
		assert.Contains(t, view, want)
	}

	_, cmd := b.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
