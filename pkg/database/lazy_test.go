package database

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

func TestLazyConcurrentFirstCallsBuildOnePool(t *testing.T) {
	pool, _ := newMockPool(t)

	var opens atomic.Int32
	lazy := NewLazy(func(ctx context.Context) (*Pool, error) {
		opens.Add(1)
		// widen the window in which callers race
		time.Sleep(20 * time.Millisecond)
		return pool, nil
	})

	const callers = 16
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make([]*Pool, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = lazy.Get(context.Background())
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), opens.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, pool, results[i])
	}
}

func TestLazyRetriesAfterFailure(t *testing.T) {
	pool, _ := newMockPool(t)

	var opens atomic.Int32
	lazy := NewLazy(func(ctx context.Context) (*Pool, error) {
		if opens.Add(1) == 1 {
			return nil, errors.New("database not reachable yet")
		}
		return pool, nil
	})

	_, err := lazy.Get(context.Background())
	require.Error(t, err)
	_, ok := lazy.Peek()
	assert.False(t, ok)

	got, err := lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, pool, got)

	got, err = lazy.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, pool, got)
	assert.Equal(t, int32(2), opens.Load())
}

func TestLazyRunsHooksOnce(t *testing.T) {
	pool, _ := newMockPool(t)

	var hooks atomic.Int32
	lazy := NewLazy(func(ctx context.Context) (*Pool, error) {
		return pool, nil
	}, func(p *Pool) {
		assert.Same(t, pool, p)
		hooks.Add(1)
	})

	for i := 0; i < 3; i++ {
		_, err := lazy.Get(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), hooks.Load())
}

func TestLazyPeekDoesNotBuild(t *testing.T) {
	lazy := NewLazy(func(ctx context.Context) (*Pool, error) {
		t.Fatal("Peek must not open the pool")
		return nil, nil
	})

	pool, ok := lazy.Peek()
	assert.Nil(t, pool)
	assert.False(t, ok)

	// closing an unopened pool is a no-op
	lazy.Close()
}

func TestLazyDoesNotRebuildAfterClose(t *testing.T) {
	pool, _ := newMockPool(t)

	var opens, hooks atomic.Int32
	lazy := NewLazy(func(ctx context.Context) (*Pool, error) {
		opens.Add(1)
		return pool, nil
	}, func(*Pool) { hooks.Add(1) })

	_, err := lazy.Get(context.Background())
	require.NoError(t, err)

	lazy.Close()

	got, err := lazy.Get(context.Background())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.Equal(t, int32(1), opens.Load())
	assert.Equal(t, int32(1), hooks.Load())

	_, ok := lazy.Peek()
	assert.False(t, ok)
}

func TestLazyCloseBeforeFirstUse(t *testing.T) {
	lazy := NewLazy(func(ctx context.Context) (*Pool, error) {
		t.Fatal("a closed pool must not be built")
		return nil, nil
	})

	lazy.Close()

	_, err := lazy.Get(context.Background())
	assert.ErrorIs(t, err, ErrPoolClosed)
}
