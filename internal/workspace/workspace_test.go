package workspace_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/dcs/internal/config"
	"github.com/kingrea/dcs/internal/consistency"
	"github.com/kingrea/dcs/internal/logbook"
	"github.com/kingrea/dcs/internal/registry"
	"github.com/kingrea/dcs/internal/testutil"
	"github.com/kingrea/dcs/internal/workspace"
)

func TestUpdateMetadata_WritesRegistryValuesAndKeepsExtras(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteMaster(
		testutil.Row{ID: "DOC-MASTER", Path: testutil.MasterFile, Version: "1.0.0", Affects: "ALL"},
		testutil.Row{ID: "DOC-API", Path: "docs/api.md", Version: "2.1.0", DependsOn: "DOC-MASTER", Affects: "DOC-CLIENT", ChangeRequires: "src/api/"},
		testutil.Row{ID: "DOC-CLIENT", Path: "docs/client.md", Version: "0.1.0", DependsOn: "DOC-API"},
	)
	p.WriteDoc("docs/api.md",
		"doc_id: DOC-API",
		"version: 2.0.0",
		"last_updated: 2023-12-01",
		"updated_by: alice",
		"owner: platform",
		"reviewed: 2024-02-02",
	)

	book, err := logbook.New(filepath.Join(p.Root, ".dcs", "logs", "updates.log"))
	require.NoError(t, err)
	ws := p.Workspace(workspace.WithClock(testutil.FixedClock("2024-01-10")), workspace.WithJournal(book))

	meta, err := ws.UpdateMetadata("DOC-API", "")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", meta.Version)
	assert.Equal(t, "2024-01-10", meta.LastUpdated)
	assert.Equal(t, "alice", meta.UpdatedBy)

	stored, ok := ws.Metadata("DOC-API")
	require.True(t, ok)
	assert.Equal(t, "DOC-API", stored.DocID)
	assert.Equal(t, "2.1.0", stored.Version)
	assert.Equal(t, "2024-01-10", stored.LastUpdated)
	assert.Equal(t, []string{"DOC-MASTER"}, stored.DependsOn)
	assert.Equal(t, []string{"DOC-CLIENT"}, stored.Affects.IDs())
	assert.Equal(t, []string{"src/api/"}, stored.ChangeRequires)
	assert.Equal(t, "platform", stored.Extra["owner"])
	assert.Contains(t, p.Read("docs/api.md"), "\nreviewed: 2024-02-02\n")
	assert.Contains(t, p.Read("docs/api.md"), "# api.md\n\nBody.\n")

	lines, total := book.Tail(1)
	require.Equal(t, 1, total)
	assert.Contains(t, lines[0], "DOC-API version=2.1.0 updated_by=alice")
}

func TestUpdateMetadata_PrependsBlockAndDefaults(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteMaster(
		testutil.Row{ID: "DOC-MASTER", Path: testutil.MasterFile, Affects: "ALL"},
		testutil.Row{ID: "DOC-GUIDE", Path: "guide.md"},
	)
	p.WriteDoc("guide.md")
	ws := p.Workspace(workspace.WithClock(testutil.FixedClock("2024-05-02")))

	meta, err := ws.UpdateMetadata("DOC-MASTER", "")
	require.NoError(t, err)
	assert.Empty(t, meta.Version)
	assert.Equal(t, "system", meta.UpdatedBy)
	assert.True(t, meta.Affects.IsAll())

	master, ok := ws.Metadata("DOC-MASTER")
	require.True(t, ok)
	assert.True(t, master.Affects.IsAll())

	// The registry must still parse after the master gained a block.
	reg, err := registry.LoadFile(filepath.Join(p.Root, testutil.MasterFile), registry.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	meta, err = ws.UpdateMetadata("DOC-GUIDE", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", meta.UpdatedBy)
	assert.Contains(t, p.Read("guide.md"), "---\ndoc_id: DOC-GUIDE\n")
}

func TestUpdateMetadata_BlankVersionCellStaysConsistent(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteMaster(testutil.Row{ID: "DOC-A", Path: "a.md"})
	p.WriteDoc("a.md")
	ws := p.Workspace(workspace.WithClock(testutil.FixedClock("2024-02-01")))

	meta, err := ws.UpdateMetadata("DOC-A", "x")
	require.NoError(t, err)
	assert.Empty(t, meta.Version)

	rep := consistency.Check(ws, consistency.Options{})
	assert.True(t, rep.OK(), rep.Strings())
}

func TestUpdateMetadata_DefaultVersionWithoutVersionColumn(t *testing.T) {
	p := testutil.NewProject(t)
	p.Write(testutil.MasterFile, "### Document Registry\n\n| Document ID | Path |\n|---|---|\n| DOC-A | a.md |\n")
	p.WriteDoc("a.md")
	ws := p.Workspace(workspace.WithClock(testutil.FixedClock("2024-02-01")))

	meta, err := ws.UpdateMetadata("DOC-A", "")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", meta.Version)
}

func TestUpdateMetadata_Failures(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteMaster(
		testutil.Row{ID: "DOC-NOPATH"},
		testutil.Row{ID: "DOC-GONE", Path: "gone.md"},
	)
	ws := p.Workspace()

	_, err := ws.UpdateMetadata("DOC-UNKNOWN", "")
	assert.ErrorIs(t, err, workspace.ErrUnknownDocument)

	_, err = ws.UpdateMetadata("DOC-NOPATH", "")
	assert.ErrorIs(t, err, workspace.ErrNoPath)

	_, err = ws.UpdateMetadata("DOC-GONE", "")
	assert.ErrorIs(t, err, workspace.ErrDocumentMissing)
}

func TestUpdateMetadata_ReplacesUnparsableBlock(t *testing.T) {
	p := testutil.NewProject(t)
	p.WriteMaster(testutil.Row{ID: "DOC-A", Path: "a.md", Version: "1.2.0"})
	p.Write("a.md", "---\ndoc_id: [broken\n---\nKeep me.\n")
	ws := p.Workspace(workspace.WithClock(testutil.FixedClock("2024-01-01")))

	_, err := ws.UpdateMetadata("DOC-A", "")
	require.NoError(t, err)
	meta, ok := ws.Metadata("DOC-A")
	require.True(t, ok)
	assert.Equal(t, "1.2.0", meta.Version)
	assert.Contains(t, p.Read("a.md"), "---\nKeep me.\n")
}

func TestOpen_UsesConfiguredMasterAndSection(t *testing.T) {
	p := testutil.NewProject(t)
	t.Setenv(config.MasterEnv, "")
	p.Write(".dcs/config.yaml", "master: docs/INDEX.md\nregistry_section: Docs Index\n")
	p.Write("docs/INDEX.md", "# Docs Index\n\n| Document ID | Path |\n|---|---|\n| DOC-A | a.md |\n")

	cfg, err := config.NewConfig(p.Root)
	require.NoError(t, err)
	ws, err := workspace.Open(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"DOC-A"}, ws.Registry.IDs())
	assert.Equal(t, filepath.Join(p.Root, "a.md"), ws.Resolve(registry.Record{Path: "a.md"}))

	p.Write("docs/INDEX.md", "# Nothing here\n")
	_, err = workspace.Open(cfg)
	assert.ErrorIs(t, err, registry.ErrSectionNotFound)
}
