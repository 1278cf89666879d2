package listing

import (
	"net/url"
	"sync"
)

// Navigator writes listing state back to the location bar.
type Navigator interface {
	// Replace rewrites the current entry without adding history.
	Replace(v url.Values)
	// Push adds a new entry, dropping anything ahead of the current one.
	Push(v url.Values)
}

// History is an in-memory back/forward stack of query strings.
type History struct {
	mu      sync.Mutex
	entries []url.Values
	idx     int
}

func NewHistory(initial url.Values) *History {
	return &History{entries: []url.Values{clone(initial)}}
}

func (h *History) Replace(v url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.idx] = clone(v)
}

func (h *History) Push(v url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.idx+1], clone(v))
	h.idx++
}

// Back moves one entry back and returns it.
func (h *History) Back() (url.Values, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx == 0 {
		return nil, false
	}
	h.idx--
	return clone(h.entries[h.idx]), true
}

// Forward moves one entry forward and returns it.
func (h *History) Forward() (url.Values, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.idx >= len(h.entries)-1 {
		return nil, false
	}
	h.idx++
	return clone(h.entries[h.idx]), true
}

func (h *History) Current() url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return clone(h.entries[h.idx])
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func clone(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
