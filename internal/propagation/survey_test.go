package propagation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/dcs/internal/testutil"
)

func TestSurvey_Statuses(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteMaster(
		testutil.Row{ID: "A", Path: "a.md", Version: "1.0.0", Affects: "B"},
		testutil.Row{ID: "B", Path: "b.md", Version: "1.0.0"},
		testutil.Row{ID: "C", Path: "c.md", Version: "1.0.0"},
		testutil.Row{ID: "D", Path: "d.md", Version: "1.0.0"},
	)
	p.WriteDoc("a.md", "doc_id: A", "version: 1.0.0", "last_updated: 2024-01-10", "affects: [B]")
	p.WriteDoc("b.md", "doc_id: B", "version: 1.0.0", "last_updated: 2024-01-05")
	p.WriteDoc("d.md")

	entries := Survey(p.Workspace())
	require.Len(t, entries, 4)
	got := map[string]Status{}
	for _, e := range entries {
		got[e.Record.ID] = e.Status
	}
	assert.Equal(t, map[string]Status{
		"A": StatusCurrent,
		"B": StatusStale,
		"C": StatusMissing,
		"D": StatusNoMetadata,
	}, got)
	assert.Equal(t, "2024-01-10", entries[0].Meta.LastUpdated)
	assert.True(t, entries[0].HasMetadata)
}

func TestMostRecent_NewestFirstUndatedLast(t *testing.T) {
	entry := func(id, date string) Entry {
		e := Entry{}
		e.Record.ID = id
		e.Meta.LastUpdated = date
		return e
	}
	entries := []Entry{
		entry("OLD", "2023-05-01"),
		entry("NONE", ""),
		entry("NEW", "2024-02-01"),
		entry("MID", "2024-01-01"),
	}

	ids := func(es []Entry) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.Record.ID)
		}
		return out
	}
	assert.Equal(t, []string{"NEW", "MID", "OLD", "NONE"}, ids(MostRecent(entries, 0)))
	assert.Equal(t, []string{"NEW", "MID"}, ids(MostRecent(entries, 2)))
	assert.Equal(t, "OLD", entries[0].Record.ID, "input must not be reordered")
}
