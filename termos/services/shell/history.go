package shell

import "sync"

// HistoryLimit bounds the number of remembered lines.
const HistoryLimit = 100

// History holds submitted lines, most recent last.
//
// The browse cursor is an index into the entries, or -1 when not browsing.
type History struct {
	mu      sync.Mutex
	entries []string
	cursor  int
}

func NewHistory() *History {
	return &History{cursor: -1}
}

// Add appends line unless it repeats the previous entry. It reports whether
// the history grew.
func (h *History) Add(line string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cursor = -1
	if line == "" {
		return false
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return false
	}
	h.entries = append(h.entries, line)
	if excess := len(h.entries) - HistoryLimit; excess > 0 {
		copy(h.entries, h.entries[excess:])
		h.entries = h.entries[:HistoryLimit]
	}
	return true
}

// Prev moves toward the oldest entry and returns it. ok is false when the
// history is empty.
func (h *History) Prev() (line string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor < 0:
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next moves toward the newest entry. Moving past the newest stops browsing
// and returns "". ok is false when not browsing.
func (h *History) Next() (line string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cursor < 0 {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor], true
	}
	h.cursor = -1
	return "", true
}

// Reset stops browsing.
func (h *History) Reset() {
	h.mu.Lock()
	h.cursor = -1
	h.mu.Unlock()
}

func (h *History) Cursor() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}
