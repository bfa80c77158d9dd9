package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAffectsIDs_Normalizes(t *testing.T) {
	assert.True(t, AffectsIDs().IsEmpty())
	assert.True(t, AffectsIDs("-", " ").IsEmpty())
	assert.True(t, AffectsIDs("DOC-A", "all").IsAll())

	a := AffectsIDs("DOC-A", " DOC-B ", "DOC-A")
	assert.Equal(t, AffectsList, a.Kind())
	assert.Equal(t, []string{"DOC-A", "DOC-B"}, a.IDs())
}

func TestAffects_ResolveAllUsesLiveRegistry(t *testing.T) {
	reg := New()
	reg.Add(Record{ID: "DOC-A", Affects: AffectsAllDocuments()})
	reg.Add(Record{ID: "DOC-B"})

	all := AffectsAllDocuments()
	assert.Equal(t, []string{"DOC-B"}, all.Resolve(reg, "DOC-A"))

	reg.Add(Record{ID: "DOC-C"})
	assert.Equal(t, []string{"DOC-B", "DOC-C"}, all.Resolve(reg, "DOC-A"))
	assert.Nil(t, NoAffects().Resolve(reg, "DOC-A"))
	assert.Equal(t, []string{"DOC-X"}, AffectsIDs("DOC-X").Resolve(reg, "DOC-A"))
}

func TestAffects_Equal(t *testing.T) {
	assert.True(t, AffectsIDs("A", "B").Equal(AffectsIDs("B", "A")))
	assert.False(t, AffectsIDs("A").Equal(AffectsIDs("A", "B")))
	assert.False(t, AffectsAllDocuments().Equal(NoAffects()))
	assert.True(t, NoAffects().Equal(Affects{}))
}

func TestAffects_IDsReturnsCopy(t *testing.T) {
	a := AffectsIDs("A", "B")
	ids := a.IDs()
	ids[0] = "Z"
	assert.Equal(t, []string{"A", "B"}, a.IDs())
}

func TestRegistry_Others(t *testing.T) {
	reg := New()
	for _, id := range []string{"A", "B", "C"} {
		reg.Add(Record{ID: id})
	}
	assert.Equal(t, []string{"A", "C"}, reg.Others("B"))
	assert.Equal(t, []string{"A", "B", "C"}, reg.Others("UNKNOWN"))

	var empty *Registry
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.IDs())
}
