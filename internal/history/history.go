// Package history keeps the bounded conversation log replayed into
// model calls. It is append only, the only other mutation is oldest
// first eviction at the cap.
package history

import (
	"sync"
	"time"
)

const (
	DefaultMaxEntries   = 50
	DefaultReplayWindow = 20
)

type Entry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Store struct {
	mu      sync.Mutex
	max     int
	window  int
	entries []Entry
}

// New returns a store capped at max entries which replays the window
// most recent non-system entries. Zero or negative values pick the
// defaults.
func New(max, window int) *Store {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	if window <= 0 {
		window = DefaultReplayWindow
	}
	return &Store{max: max, window: window}
}

// Add appends an entry, evicting the oldest when the cap is exceeded
func (s *Store) Add(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, Entry{Role: role, Content: content, Timestamp: time.Now()})
	if len(s.entries) > s.max {
		s.entries = s.entries[len(s.entries)-s.max:]
	}
}

// Recent returns the non-system entries within the replay window, in
// chronological order
func (s *Store) Recent() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.entries) - s.window
	if start < 0 {
		start = 0
	}
	out := make([]Entry, 0, s.window)
	for _, e := range s.entries[start:] {
		if e.Role == "system" {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Len returns the total amount of stored entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
