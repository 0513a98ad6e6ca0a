package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "input_history"))
}

func TestRecord(t *testing.T) {
	t.Run("blank inputs are dropped", func(t *testing.T) {
		h := newTestHistory(t)
		h.Record("   \n")
		_, ok := h.Back("")
		assert.False(t, ok)
	})

	t.Run("immediate repeats collapse", func(t *testing.T) {
		h := newTestHistory(t)
		h.Record("hello")
		h.Record("hello")

		entry, ok := h.Back("")
		assert.True(t, ok)
		assert.Equal(t, "hello", entry)
		_, ok = h.Back("")
		assert.False(t, ok)
	})

	t.Run("persists across reloads", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input_history")
		h := New(path)
		h.Record("first")
		h.Record("multi\nline")

		reloaded := New(path)
		entry, ok := reloaded.Back("")
		assert.True(t, ok)
		assert.Equal(t, "multi\nline", entry)
		entry, ok = reloaded.Back("")
		assert.True(t, ok)
		assert.Equal(t, "first", entry)
	})
}

func TestNavigation(t *testing.T) {
	t.Run("back stashes the draft, forward returns it", func(t *testing.T) {
		h := newTestHistory(t)
		h.Record("one")
		h.Record("two")

		entry, _ := h.Back("draft in progress")
		assert.Equal(t, "two", entry)
		entry, _ = h.Back("ignored")
		assert.Equal(t, "one", entry)

		entry, _ = h.Forward()
		assert.Equal(t, "two", entry)
		entry, ok := h.Forward()
		assert.True(t, ok)
		assert.Equal(t, "draft in progress", entry)

		_, ok = h.Forward()
		assert.False(t, ok)
	})

	t.Run("back stops at the oldest entry", func(t *testing.T) {
		h := newTestHistory(t)
		h.Record("only")

		entry, ok := h.Back("")
		assert.True(t, ok)
		assert.Equal(t, "only", entry)
		_, ok = h.Back("")
		assert.False(t, ok)
	})

	t.Run("reset returns to the draft slot", func(t *testing.T) {
		h := newTestHistory(t)
		h.Record("one")
		h.Back("draft")
		h.Reset()

		_, ok := h.Forward()
		assert.False(t, ok)
		entry, _ := h.Back("")
		assert.Equal(t, "one", entry)
	})

	t.Run("record resets navigation", func(t *testing.T) {
		h := newTestHistory(t)
		h.Record("one")
		h.Back("")
		h.Record("two")

		entry, _ := h.Back("")
		assert.Equal(t, "two", entry)
	})
}
