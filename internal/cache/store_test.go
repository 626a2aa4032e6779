package cache

import (
	"context"
	"errors"
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
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStore_ExpiresWithClock(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(5*time.Minute, WithClock(clock))

	store.Set("k", "v", 0)

	v, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	clock.Advance(4*time.Minute + 59*time.Second)
	_, ok = store.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = store.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, store.size())
}

func TestStore_PerEntryTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	store := NewStore(time.Hour, WithClock(clock))

	store.Set("short", 1, time.Second)
	store.Set("long", 2, 0)

	clock.Advance(2 * time.Second)

	_, ok := store.Get("short")
	assert.False(t, ok)
	_, ok = store.Get("long")
	assert.True(t, ok)
}

func TestStore_DeletePrefix(t *testing.T) {
	store := NewStore(time.Minute)
	store.Set("https://euw1/a", 1, 0)
	store.Set("https://euw1/b", 2, 0)
	store.Set("https://europe/c", 3, 0)

	store.DeletePrefix("https://euw1/")

	assert.Equal(t, 1, store.size())
	_, ok := store.Get("https://europe/c")
	assert.True(t, ok)
}

func TestStore_GetOrLoad_CollapsesConcurrentLoads(t *testing.T) {
	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "same-key", 0, loader)
			assert.NoError(t, err)
			assert.Equal(t, "value", v)
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	store := NewStore(time.Minute)
	boom := errors.New("boom")

	_, err := store.GetOrLoad(context.Background(), "k", 0, func(context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	v, err := store.GetOrLoad(context.Background(), "k", 0, func(context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
