// Package history keeps a persistent record of messages typed into the
// composer, navigable with up/down arrows like a shell prompt.
package history

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const maxEntries = 500

// escaped newlines keep one entry per line on disk.
var (
	encoder = strings.NewReplacer("\\", "\\\\", "\n", "\\n")
	decoder = strings.NewReplacer("\\n", "\n", "\\\\", "\\")
)

// History records sent inputs across sessions. Navigation starts at a
// virtual "draft" slot past the end of the recorded entries; moving up
// stashes the draft so moving back down restores it.
type History struct {
	mu      sync.Mutex
	path    string
	entries []string
	cursor  int // len(entries) means the draft slot
	draft   string
}

// New loads history from path, tolerating a missing or unreadable file.
func New(path string) *History {
	h := &History{path: path}
	h.entries = readEntries(path)
	h.cursor = len(h.entries)
	return h
}

// NewInDir loads history from the default file under dir.
func NewInDir(dir string) *History {
	return New(filepath.Join(dir, "input_history"))
}

func readEntries(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		entries = append(entries, decoder.Replace(line))
	}
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	return entries
}

// Record appends an input and resets navigation. Blank inputs and
// immediate repeats are ignored. Persistence failures are silent; losing
// history must never break sending.
func (h *History) Record(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}
	h.mu.Lock()
	if n := len(h.entries); n == 0 || h.entries[n-1] != input {
		h.entries = append(h.entries, input)
		if len(h.entries) > maxEntries {
			h.entries = h.entries[len(h.entries)-maxEntries:]
		}
	}
	h.cursor = len(h.entries)
	h.draft = ""
	snapshot := make([]string, len(h.entries))
	copy(snapshot, h.entries)
	h.mu.Unlock()

	h.persist(snapshot)
}

func (h *History) persist(entries []string) {
	if h.path == "" {
		return
	}
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(encoder.Replace(entry))
		sb.WriteByte('\n')
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return
	}
	os.WriteFile(h.path, []byte(sb.String()), 0o600)
}

// Back moves one entry toward the past. On the first step away from the
// draft slot it stashes current so Forward can hand it back.
func (h *History) Back(current string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 || h.cursor == 0 {
		return "", false
	}
	if h.cursor == len(h.entries) {
		h.draft = current
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Forward moves one entry toward the present, ending at the stashed draft.
func (h *History) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor >= len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		return h.draft, true
	}
	return h.entries[h.cursor], true
}

// Reset returns navigation to the draft slot. The composer calls this
// whenever the user edits the text, so stale positions never linger.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursor = len(h.entries)
	h.draft = ""
}
