// Package retention trims each post's visit history to a rolling window on
// a timer, keeping the queryable dataset bounded while the lifetime
// counters remain untouched.
package retention

import (
	"context"
	"log"
	"time"

	"beacon/internal/store"
)

// Sweeper prunes the visit store once per interval and persists the result.
type Sweeper struct {
	store    *store.Store
	interval time.Duration
	window   time.Duration

	now func() time.Time // test seam
}

// New creates a sweeper that keeps window worth of visits and runs every
// interval.
func New(st *store.Store, interval, window time.Duration) *Sweeper {
	return &Sweeper{
		store:    st,
		interval: interval,
		window:   window,
		now:      time.Now,
	}
}

// Run blocks, sweeping once per interval until ctx is cancelled. The first
// sweep happens one full interval after start, not immediately.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep performs one prune pass over every post and triggers a single save.
func (s *Sweeper) Sweep() {
	cutoff := s.now().Add(-s.window)
	s.store.Prune(cutoff)
	s.store.Save()
	log.Printf("Purged visit records older than %s", cutoff.Format(time.RFC3339))
}
