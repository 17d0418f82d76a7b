package pool

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchdog_ReclaimsIdleSessionAfterThreshold(t *testing.T) {
	p := New(func(ContextID) (*http.Client, error) { return &http.Client{}, nil })
	w := NewWatchdog(p, 30*time.Millisecond, 10*time.Millisecond)
	require.Equal(t, 3, w.threshold)

	_, err := p.Acquire("idle")
	require.NoError(t, err)
	p.Release("idle")

	var reclaimed []ContextID
	done := make(chan struct{})
	w.OnReclaim(func(id ContextID) {
		reclaimed = append(reclaimed, id)
		close(done)
	})

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("idle session was not reclaimed")
	}
	cancel()

	assert.Equal(t, []ContextID{"idle"}, reclaimed)
	assert.Equal(t, 0, p.Len())
}

func TestWatchdog_NeverClosesBusySession(t *testing.T) {
	p := New(func(ContextID) (*http.Client, error) { return &http.Client{}, nil })
	w := NewWatchdog(p, 20*time.Millisecond, 10*time.Millisecond)

	// Held reference for the whole test: the session stays busy.
	_, err := p.Acquire("busy")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		w.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, p.Len(), "busy session must survive many poll intervals")
	assert.Equal(t, 1, p.Refs("busy"))

	cancel()
	<-watchdogDone
}

func TestWatchdog_ActivityResetsIdleCounter(t *testing.T) {
	p := New(func(ContextID) (*http.Client, error) { return &http.Client{}, nil })
	w := NewWatchdog(p, 40*time.Millisecond, 10*time.Millisecond)

	_, err := p.Acquire("w")
	require.NoError(t, err)
	p.Release("w")

	// Two idle sweeps, then activity: the counter must restart from zero.
	w.sweep()
	w.sweep()
	assert.Equal(t, 2, w.counters["w"])

	_, err = p.Acquire("w")
	require.NoError(t, err)
	w.sweep()
	assert.Equal(t, 0, w.counters["w"])

	p.Release("w")
	w.sweep()
	assert.Equal(t, 1, w.counters["w"], "idle counting restarts after activity")
	assert.Equal(t, 1, p.Len())
}

func TestWatchdog_ShutdownDrainsAllSessions(t *testing.T) {
	p := New(func(ContextID) (*http.Client, error) { return &http.Client{}, nil })
	w := NewWatchdog(p, time.Minute, time.Second)

	for _, id := range []ContextID{"a", "b", "c"} {
		_, err := p.Acquire(id)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		w.Run(ctx)
	}()

	cancel()
	select {
	case <-watchdogDone:
	case <-time.After(5 * time.Second):
		t.Fatal("watchdog did not terminate on cancellation")
	}
	assert.Equal(t, 0, p.Len(), "no session may stay registered after shutdown")
}

func TestWatchdog_SweepClearsStaleCounters(t *testing.T) {
	p := New(func(ContextID) (*http.Client, error) { return &http.Client{}, nil })
	w := NewWatchdog(p, 30*time.Millisecond, 10*time.Millisecond)

	_, err := p.Acquire("gone")
	require.NoError(t, err)
	p.Release("gone")
	w.sweep()
	require.Equal(t, 1, w.counters["gone"])

	// Session disappears outside the watchdog (e.g. drained elsewhere).
	p.Drain(time.Second)
	w.sweep()
	_, ok := w.counters["gone"]
	assert.False(t, ok, "counters for vanished sessions must be cleared")
}
