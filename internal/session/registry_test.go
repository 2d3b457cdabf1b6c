package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type counter struct{ id string }

func TestGetCreatesOncePerID(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	r := NewRegistry(Config{}, func(id string) *counter {
		created.Add(1)
		return &counter{id: id}
	})

	const workers = 50
	got := make([]*counter, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = r.Get("same")
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	for _, c := range got {
		assert.Same(t, got[0], c)
	}

	other := r.Get("other")
	assert.NotSame(t, got[0], other)
	assert.Equal(t, 2, r.Len())
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	r := NewRegistry(Config{TTL: 30 * time.Minute}, func(id string) *counter { return &counter{id: id} })
	r.now = clock.Now

	first := r.Get("a")
	r.Get("b")
	clock.Advance(20 * time.Minute)
	r.Get("a")
	clock.Advance(15 * time.Minute)

	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
	assert.Same(t, first, r.Get("a"))

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.NotSame(t, first, r.Get("a"))
}

func TestSweepNotifiesEvictedSessions(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	var evicted []string
	r := NewRegistry(Config{TTL: time.Minute}, func(id string) *counter { return &counter{id: id} },
		WithOnEvict(func(id string, c *counter) {
			assert.Equal(t, id, c.id)
			evicted = append(evicted, id)
		}))
	r.now = clock.Now

	r.Get("idle")
	clock.Advance(2 * time.Minute)
	r.Get("active")

	require.Equal(t, 1, r.Sweep())
	assert.Equal(t, []string{"idle"}, evicted)
	assert.Zero(t, r.Sweep())
	assert.Equal(t, []string{"idle"}, evicted)
}

func TestZeroTTLNeverEvicts(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(0, 0)}
	r := NewRegistry(Config{}, func(id string) *counter { return &counter{id: id} })
	r.now = clock.Now
	r.Get("a")
	clock.Advance(24 * time.Hour)
	assert.Zero(t, r.Sweep())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Run(ctx)
	assert.Equal(t, 1, r.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	r := NewRegistry(Config{TTL: time.Millisecond, SweepInterval: time.Millisecond}, func(id string) *counter { return &counter{id: id} })
	r.Get("a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
