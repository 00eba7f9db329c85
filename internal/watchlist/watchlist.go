// Package watchlist maintains the set of token mints the monitor is
// subscribed to. The set only grows during a run: discovered tokens are
// added, never evicted.
package watchlist

import (
	"sort"
	"sync"
)

// Watchlist is a concurrency-safe set of mint addresses.
type Watchlist struct {
	mu    sync.RWMutex
	mints map[string]struct{}
}

// New creates an empty Watchlist.
func New() *Watchlist {
	return &Watchlist{mints: make(map[string]struct{})}
}

// AddIfAbsent adds a mint to the set. It reports whether the mint was
// newly added.
func (w *Watchlist) AddIfAbsent(mint string) bool {
	if mint == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.mints[mint]; ok {
		return false
	}
	w.mints[mint] = struct{}{}
	return true
}

// Seed adds a batch of mints and returns how many were newly added.
func (w *Watchlist) Seed(mints []string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	added := 0
	for _, mint := range mints {
		if mint == "" {
			continue
		}
		if _, ok := w.mints[mint]; ok {
			continue
		}
		w.mints[mint] = struct{}{}
		added++
	}
	return added
}

// Contains reports whether a mint is tracked.
func (w *Watchlist) Contains(mint string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.mints[mint]
	return ok
}

// Len returns the number of tracked mints.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.mints)
}

// Snapshot returns the tracked mints in sorted order. The slice is a
// copy; callers may retain it across subsequent additions.
func (w *Watchlist) Snapshot() []string {
	w.mu.RLock()
	mints := make([]string, 0, len(w.mints))
	for mint := range w.mints {
		mints = append(mints, mint)
	}
	w.mu.RUnlock()
	sort.Strings(mints)
	return mints
}
