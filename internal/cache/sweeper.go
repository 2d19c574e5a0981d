// Package cache backs the read-heavy aggregate endpoints with small
// in-memory caches.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Prunable is anything that can evict its own expired entries.
type Prunable interface {
	Prune() int
}

// Sweeper prunes registered caches on a fixed interval so expired
// entries do not linger between reads.
type Sweeper struct {
	interval time.Duration
	targets  []Prunable

	stop    chan struct{}
	done    chan struct{}
	started bool
	once    sync.Once
}

func NewSweeper(interval time.Duration) *Sweeper {
	return &Sweeper{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Track registers a cache for sweeping. Call before Start.
func (s *Sweeper) Track(p Prunable) {
	s.targets = append(s.targets, p)
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	s.started = true
	go s.run()
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept := 0
			for _, t := range s.targets {
				swept += t.Prune()
			}
			if swept > 0 {
				slog.Debug("Swept expired cache entries", "count", swept)
			}
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the sweep loop and waits for it to finish. Safe to
// call more than once.
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		close(s.stop)
		if s.started {
			<-s.done
		}
	})
}
