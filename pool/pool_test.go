package pool

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory() (Factory, *atomic.Int32) {
	var calls atomic.Int32
	factory := func(ContextID) (*http.Client, error) {
		calls.Add(1)
		return &http.Client{}, nil
	}
	return factory, &calls
}

func TestPool_OneSessionPerContext(t *testing.T) {
	factory, calls := newTestFactory()
	p := New(factory)

	a, err := p.Acquire("worker-a")
	require.NoError(t, err)
	b, err := p.Acquire("worker-b")
	require.NoError(t, err)

	assert.NotSame(t, a, b, "distinct contexts must not share a session")
	assert.Equal(t, int32(2), calls.Load())

	again, err := p.Acquire("worker-a")
	require.NoError(t, err)
	assert.Same(t, a, again, "same context must reuse its session")
	assert.Equal(t, int32(2), calls.Load(), "no second construction for a live session")
}

func TestPool_ReferenceCounting(t *testing.T) {
	factory, _ := newTestFactory()
	p := New(factory)

	_, err := p.Acquire("w")
	require.NoError(t, err)
	_, err = p.Acquire("w")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Refs("w"))

	p.Release("w")
	assert.Equal(t, 1, p.Refs("w"))
	p.Release("w")
	assert.Equal(t, 0, p.Refs("w"))

	assert.Equal(t, -1, p.Refs("unknown"))
}

func TestPool_ConcurrentAcquireConstructsOnce(t *testing.T) {
	factory, calls := newTestFactory()
	p := New(factory)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Acquire("shared")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "creation must be serialized per context")
	assert.Equal(t, 32, p.Refs("shared"))
}

func TestPool_FactoryFailureLeavesNothingRegistered(t *testing.T) {
	boom := errors.New("no transport")
	p := New(func(ContextID) (*http.Client, error) { return nil, boom })

	_, err := p.Acquire("w")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, -1, p.Refs("w"), "failed creation must not register a partial session")
	assert.Equal(t, 0, p.Len())
}

func TestPool_ReclaimIdleRespectsBusySessions(t *testing.T) {
	factory, _ := newTestFactory()
	p := New(factory)

	_, err := p.Acquire("w")
	require.NoError(t, err)

	assert.False(t, p.reclaimIdle("w"), "busy session must not be reclaimed")
	assert.Equal(t, 1, p.Len())

	p.Release("w")
	assert.True(t, p.reclaimIdle("w"))
	assert.Equal(t, 0, p.Len())

	assert.False(t, p.reclaimIdle("w"), "reclaiming an absent session is a no-op")
}

func TestPool_DrainClosesEverything(t *testing.T) {
	factory, _ := newTestFactory()
	p := New(factory)

	for _, id := range []ContextID{"a", "b", "c"} {
		_, err := p.Acquire(id)
		require.NoError(t, err)
	}
	require.Equal(t, 3, p.Len())

	p.Drain(100 * time.Millisecond)
	assert.Equal(t, 0, p.Len())
}
