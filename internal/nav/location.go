package nav

import "strings"

// Location is where the current slide is recorded for sharing and for
// back/forward navigation. Hash returns the current fragment including the
// leading '#', or "" when none is set.
type Location interface {
	Hash() string
	Push(hash string)
}

// History is an in-memory Location with a back/forward stack. Push drops any
// forward entries, like a browser does after navigating from the middle of
// its history.
type History struct {
	entries []string
	pos     int
}

// NewHistory starts a history at the given fragment, which may be empty.
func NewHistory(initial string) *History {
	return &History{entries: []string{normalizeHash(initial)}}
}

func (h *History) Hash() string {
	if h.pos < 0 || h.pos >= len(h.entries) {
		return ""
	}
	return h.entries[h.pos]
}

func (h *History) Push(hash string) {
	if h.pos < len(h.entries)-1 {
		h.entries = h.entries[:h.pos+1]
	}
	h.entries = append(h.entries, normalizeHash(hash))
	h.pos = len(h.entries) - 1
}

// Back moves one entry back. It reports false at the oldest entry.
func (h *History) Back() bool {
	if h.pos <= 0 {
		return false
	}
	h.pos--
	return true
}

// Forward moves one entry forward. It reports false at the newest entry.
func (h *History) Forward() bool {
	if h.pos >= len(h.entries)-1 {
		return false
	}
	h.pos++
	return true
}

// Len is the number of entries, including the initial one.
func (h *History) Len() int { return len(h.entries) }

// URL joins base with the current fragment.
func (h *History) URL(base string) string {
	return strings.TrimSuffix(base, "#") + h.Hash()
}

func normalizeHash(hash string) string {
	hash = strings.TrimSpace(hash)
	if hash == "" || hash == "#" {
		return ""
	}
	if !strings.HasPrefix(hash, "#") {
		hash = "#" + hash
	}
	return hash
}
