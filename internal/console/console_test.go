package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_PlainWhenNotATerminal(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	assert.False(t, p.Color())

	p.Info("Checking document consistency...")
	p.Success("All documents are consistent")
	p.Warning("%d documents are not registered", 2)
	p.Error("Unknown document ID: %s", "DOC-X")
	p.Bullet("DOC-B (docs/b.md)")
	p.Header("Stale documents")

	assert.Equal(t, "INFO: Checking document consistency...\n"+
		"SUCCESS: All documents are consistent\n"+
		"WARNING: 2 documents are not registered\n"+
		"ERROR: Unknown document ID: DOC-X\n"+
		"  • DOC-B (docs/b.md)\n"+
		"Stale documents\n", buf.String())
}

func TestPrinter_NoColorFlagWins(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, true)
	assert.False(t, p.Color())
	assert.Same(t, &buf, p.Writer())
}
