package pool

import (
	"context"
	"log"
	"time"
)

// Watchdog reclaims idle sessions without disrupting in-flight requests. Every
// poll interval it sweeps the pool: a session observed at zero references
// accumulates one idle tick per sweep, and is closed once it has been idle for
// idleTimeout (idleTimeout / pollInterval consecutive ticks). Any activity
// resets the count.
type Watchdog struct {
	pool      *Pool
	poll      time.Duration
	threshold int
	counters  map[ContextID]int
	onReclaim func(ContextID) // optional, invoked after a session is closed
}

// NewWatchdog creates a watchdog for p. pollInterval should evenly divide
// idleTimeout; config validation enforces this for the daemon.
func NewWatchdog(p *Pool, idleTimeout, pollInterval time.Duration) *Watchdog {
	return &Watchdog{
		pool:      p,
		poll:      pollInterval,
		threshold: int(idleTimeout / pollInterval),
		counters:  make(map[ContextID]int),
	}
}

// OnReclaim registers a callback fired after each idle reclamation. Must be
// set before Run.
func (w *Watchdog) OnReclaim(fn func(ContextID)) {
	w.onReclaim = fn
}

// Run loops until ctx is cancelled, then drains the pool with a one second
// close bound per session.
func (w *Watchdog) Run(ctx context.Context) {
	log.Printf("Emby session pool watchdog started (idle threshold %d ticks of %s)", w.threshold, w.poll)
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.pool.Drain(time.Second)
			log.Printf("Emby session pool watchdog stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep inspects every tracked context once. A context whose session vanished
// between snapshot and inspection simply has its counter cleared; one
// context's state never aborts the scan of the others.
func (w *Watchdog) sweep() {
	for _, id := range w.pool.contexts() {
		refs := w.pool.Refs(id)
		if refs != 0 {
			delete(w.counters, id)
			continue
		}

		w.counters[id]++
		if w.counters[id] < w.threshold {
			continue
		}

		delete(w.counters, id)
		if w.pool.reclaimIdle(id) {
			log.Printf("Destroyed idle Emby session for context %s", id)
			if w.onReclaim != nil {
				w.onReclaim(id)
			}
		}
	}

	// Drop counters for contexts that no longer have a session at all.
	for id := range w.counters {
		if w.pool.Refs(id) == -1 {
			delete(w.counters, id)
		}
	}
}
