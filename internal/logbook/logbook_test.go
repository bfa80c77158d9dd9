package logbook

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailReturnsRecentLinesAndTotal(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "updates.log"))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, book.Updated("DOC-"+string(rune('A'+i)), "1.0.0", "alice"))
	}

	lines, total := book.Tail(3)
	assert.Equal(t, 5, total)
	require.Len(t, lines, 3)
	for idx, want := range []string{"DOC-C", "DOC-D", "DOC-E"} {
		assert.Contains(t, lines[idx], want)
	}
}

func TestEntriesAreStampedAndSingleLine(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC) }
	book, err := New(filepath.Join(t.TempDir(), "logs", "updates.log"), WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, book.Failed("DOC-X", errors.New("document not\nfound")))

	lines, total := book.Tail(10)
	require.Equal(t, 1, total)
	assert.Equal(t, "2024-01-10T09:30:00Z ERROR DOC-X document not found", lines[0])
}

func TestTailOnMissingFileAndNilBook(t *testing.T) {
	book, err := New(filepath.Join(t.TempDir(), "updates.log"))
	require.NoError(t, err)
	lines, total := book.Tail(5)
	assert.Nil(t, lines)
	assert.Zero(t, total)

	var nilBook *Logbook
	assert.NoError(t, nilBook.Updated("DOC-A", "1.0.0", "bob"))
	lines, total = nilBook.Tail(5)
	assert.Nil(t, lines)
	assert.Zero(t, total)
}
