package ratelimit

import (
	"sync"
	"time"
)

// Store keeps the per-key sliding windows. Take must run the whole
// prune/count/compare/append sequence atomically for its key; takes on
// different keys must not serialize against each other. The in-process
// implementation below is good for a single instance only. A shared
// deployment swaps in a store backed by something external without touching
// the Limiter contract.
type Store interface {
	// Take prunes entries older than window, then either records now and
	// allows, or rejects and reports the oldest remaining timestamp.
	Take(key string, now time.Time, limit int, window time.Duration) (allowed bool, oldest time.Time)
}

type memoryStore struct {
	mu      sync.RWMutex
	windows map[string]*keyWindow
}

type keyWindow struct {
	mu    sync.Mutex
	times []time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{windows: make(map[string]*keyWindow)}
}

func (s *memoryStore) Take(key string, now time.Time, limit int, window time.Duration) (bool, time.Time) {
	win := s.window(key)
	win.mu.Lock()
	defer win.mu.Unlock()

	cutoff := now.Add(-window)
	kept := win.times[:0]
	for _, t := range win.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	win.times = kept

	if len(win.times) >= limit {
		return false, win.times[0]
	}
	win.times = append(win.times, now)
	return true, time.Time{}
}

func (s *memoryStore) window(key string) *keyWindow {
	s.mu.RLock()
	win := s.windows[key]
	s.mu.RUnlock()
	if win != nil {
		return win
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if win = s.windows[key]; win == nil {
		win = &keyWindow{}
		s.windows[key] = win
	}
	return win
}
