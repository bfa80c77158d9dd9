package propagation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/dcs/internal/report"
	"github.com/kingrea/dcs/internal/testutil"
)

func twoDocs(t *testing.T, aDate, bDate string) *testutil.Project {
	t.Helper()
	p := testutil.NewProject(t)
	p.WriteMaster(
		testutil.Row{ID: "A", Path: "a.md", Version: "1.0.0", Affects: "B"},
		testutil.Row{ID: "B", Path: "b.md", Version: "1.0.0", DependsOn: "A"},
	)
	p.WriteDoc("a.md", "doc_id: A", "version: 1.0.0", "last_updated: "+aDate, "affects: [B]")
	p.WriteDoc("b.md", "doc_id: B", "version: 1.0.0", "last_updated: "+bDate, "depends_on: [A]")
	return p
}

func TestValidate_StaleAffectedDocument(t *testing.T) {
	ws := twoDocs(t, "2024-01-10", "2024-01-05").Workspace()

	rep := Validate(ws, Options{})
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, report.KindStale, rep.Issues[0].Kind)
	assert.Equal(t, "B", rep.Issues[0].DocID)
	assert.Equal(t, "Document B needs to be updated to reflect changes in A (last updated: 2024-01-10)", rep.Issues[0].Message)
	assert.Equal(t, []string{"B"}, Stale(ws))
}

func TestValidate_UpToDateTreeIsOK(t *testing.T) {
	for _, bDate := range []string{"2024-01-10", "2024-02-01"} {
		ws := twoDocs(t, "2024-01-10", bDate).Workspace()
		rep := Validate(ws, Options{})
		assert.True(t, rep.OK(), "b=%s: %v", bDate, rep.Strings())
		assert.Empty(t, Stale(ws))
	}
}

func TestValidate_ConsistencyIssuesComeFirst(t *testing.T) {
	p := twoDocs(t, "2024-01-10", "2024-01-05")
	p.WriteDoc("b.md", "doc_id: B", "version: 0.9.0", "last_updated: 2024-01-05")

	rep := Validate(p.Workspace(), Options{})
	assert.Equal(t, []string{
		"Document B has inconsistent version: 0.9.0 (metadata) vs 1.0.0 (registry)",
		"Document B needs to be updated to reflect changes in A (last updated: 2024-01-10)",
	}, rep.Strings())
}

func TestValidate_UsesFrontMatterAffects(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteMaster(
		testutil.Row{ID: "M", Path: "m.md", Version: "1", Affects: "X"},
		testutil.Row{ID: "X", Path: "x.md", Version: "1"},
		testutil.Row{ID: "Y", Path: "y.md", Version: "1"},
		testutil.Row{ID: "Z", Path: "z.md", Version: "1"},
		testutil.Row{ID: "GONE", Path: "gone.md", Version: "1"},
	)
	p.WriteDoc("m.md", `doc_id: M`, `version: "1"`, "last_updated: 2024-03-01", "affects: ALL")
	p.WriteDoc("x.md", `doc_id: X`, `version: "1"`, "last_updated: 2024-03-01")
	p.WriteDoc("y.md", `doc_id: Y`, `version: "1"`)
	p.WriteDoc("z.md")

	rep := Validate(p.Workspace(), Options{})
	assert.Equal(t, []string{
		"Document Z (z.md) has no metadata",
		"Document GONE (gone.md) does not exist",
		"Affected document Y has no last_updated date",
		"Affected document Z has no metadata",
	}, rep.Strings())
	assert.Equal(t, report.KindAffectedMissingDate, rep.Issues[2].Kind)
}

func TestValidate_UnknownAffectedTarget(t *testing.T) {
	p := twoDocs(t, "2024-01-10", "2024-01-10")
	p.WriteDoc("a.md", "doc_id: A", "version: 1.0.0", "last_updated: 2024-01-10", "affects: [B, NOPE]")

	rep := Validate(p.Workspace(), Options{})
	unknown := rep.Filter(report.KindUnknownAffected)
	require.Len(t, unknown, 1)
	assert.Equal(t, "Document A affects non-existent document NOPE", unknown[0].Message)
}
