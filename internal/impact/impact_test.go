package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kingrea/dcs/internal/registry"
)

func chain() *registry.Registry {
	reg := registry.New()
	reg.Add(registry.Record{ID: "DOC-A", Path: "a.md", Affects: registry.AffectsIDs("DOC-B")})
	reg.Add(registry.Record{ID: "DOC-B", Path: "b.md", Affects: registry.AffectsIDs("DOC-C", "DOC-GHOST")})
	reg.Add(registry.Record{ID: "DOC-C", Path: "c.md", Affects: registry.AffectsIDs("DOC-A")})
	reg.Add(registry.Record{ID: "DOC-D", Path: "d.md"})
	return reg
}

func TestAnalyze_TransitiveClosureExcludesStart(t *testing.T) {
	reg := chain()
	assert.Equal(t, []string{"DOC-B", "DOC-C", "DOC-GHOST"}, Analyze(reg, "DOC-A"))
	assert.Equal(t, []string{"DOC-C", "DOC-A", "DOC-GHOST"}, Analyze(reg, "DOC-B"))
	assert.Empty(t, Analyze(reg, "DOC-D"))
}

func TestAnalyze_IsIdempotent(t *testing.T) {
	reg := chain()
	first := Analyze(reg, "DOC-A")
	assert.Equal(t, first, Analyze(reg, "DOC-A"))
}

func TestAnalyze_WildcardCoversEveryOtherDocument(t *testing.T) {
	reg := chain()
	reg.Add(registry.Record{ID: "DOC-MASTER", Path: "README-Master.md", Affects: registry.AffectsAllDocuments()})

	got := Analyze(reg, "DOC-MASTER")
	assert.ElementsMatch(t, []string{"DOC-A", "DOC-B", "DOC-C", "DOC-D", "DOC-GHOST"}, got)
	assert.NotContains(t, got, "DOC-MASTER")
}

func TestAnalyze_ExpandsFromWildcardTargets(t *testing.T) {
	reg := registry.New()
	reg.Add(registry.Record{ID: "DOC-A", Affects: registry.AffectsIDs("DOC-HUB")})
	reg.Add(registry.Record{ID: "DOC-HUB", Affects: registry.AffectsAllDocuments()})
	reg.Add(registry.Record{ID: "DOC-Z"})

	assert.Equal(t, []string{"DOC-HUB", "DOC-Z"}, Analyze(reg, "DOC-A"))
}

func TestAnalyze_UnknownDocument(t *testing.T) {
	got := Analyze(chain(), "DOC-NOPE")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDescribe(t *testing.T) {
	reg := chain()
	entries := Describe(reg, []string{"DOC-B", "DOC-GHOST"})
	assert.Equal(t, "b.md", entries[0].DisplayPath())
	assert.True(t, entries[0].Registered)
	assert.Equal(t, "unknown", entries[1].DisplayPath())
}
