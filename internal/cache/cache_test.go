package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateProducesOnceAndCaches(t *testing.T) {
	c := New[string](0, 0)
	calls := 0

	v, hit, err := c.GetOrCreate(context.Background(), "fp1", func(context.Context) (string, error) {
		calls++
		return "content", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "content", v)

	v, hit, err = c.GetOrCreate(context.Background(), "fp1", func(context.Context) (string, error) {
		calls++
		return "other", nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "content", v)
	assert.Equal(t, 1, calls)
}

func TestGetOrCreateCollapsesConcurrentCallers(t *testing.T) {
	c := New[string](0, 0)
	var calls atomic.Int64
	release := make(chan struct{})

	const workers = 16
	var wg sync.WaitGroup
	results := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.GetOrCreate(context.Background(), "fp", func(context.Context) (string, error) {
				calls.Add(1)
				<-release
				return "shared", nil
			})
			results[i] = v
			errs[i] = err
		}(i)
	}

	// Give the goroutines time to pile onto the flight before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i])
	}
}

func TestProductionErrorReachesAllWaitersAndIsNotCached(t *testing.T) {
	c := New[string](0, 0)
	boom := errors.New("provider down")
	var calls atomic.Int64
	release := make(chan struct{})

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = c.GetOrCreate(context.Background(), "fp", func(context.Context) (string, error) {
				calls.Add(1)
				<-release
				return "", boom
			})
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for i := 0; i < workers; i++ {
		require.Error(t, errs[i])
		var prodErr *ProductionError
		require.True(t, errors.As(errs[i], &prodErr))
		assert.Equal(t, "fp", prodErr.Fingerprint)
		assert.ErrorIs(t, errs[i], boom)
	}

	// Failure left nothing behind; the next call produces again.
	assert.Equal(t, 0, c.Len())
	v, hit, err := c.GetOrCreate(context.Background(), "fp", func(context.Context) (string, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "recovered", v)
}

func TestGetOrCreateCanceledWaiterStopsWaiting(t *testing.T) {
	c := New[string](0, 0)
	release := make(chan struct{})
	started := make(chan struct{})

	// Occupy the flight with a production that does not finish yet.
	go func() {
		_, _, _ = c.GetOrCreate(context.Background(), "fp", func(context.Context) (string, error) {
			close(started)
			<-release
			return "content", nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrCreate(ctx, "fp", func(context.Context) (string, error) {
			return "", errors.New("should not run")
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("waiter kept blocking after its context was canceled")
	}

	// The flight was untouched by the abandoning waiter.
	close(release)
	v, hit, err := c.GetOrCreate(context.Background(), "fp", func(context.Context) (string, error) {
		return "", errors.New("should not run either")
	})
	require.NoError(t, err)
	assert.Equal(t, "content", v)
	assert.True(t, hit)
}

func TestGetOrCreateFirstCallerCancelDoesNotAbortFlight(t *testing.T) {
	c := New[string](0, 0)
	release := make(chan struct{})
	started := make(chan struct{})
	var produceCtxErr error

	ctx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, _, err := c.GetOrCreate(ctx, "fp", func(pctx context.Context) (string, error) {
			close(started)
			<-release
			produceCtxErr = pctx.Err()
			return "content", nil
		})
		firstDone <- err
	}()
	<-started

	// A second caller attaches to the in-flight production.
	secondDone := make(chan struct{})
	var secondVal string
	var secondErr error
	go func() {
		defer close(secondDone)
		secondVal, _, secondErr = c.GetOrCreate(context.Background(), "fp", func(context.Context) (string, error) {
			return "", errors.New("should not run")
		})
	}()

	// Canceling the caller that started the flight must not fail the
	// attached waiter.
	cancel()
	assert.ErrorIs(t, <-firstDone, context.Canceled)

	close(release)
	<-secondDone
	require.NoError(t, secondErr)
	assert.Equal(t, "content", secondVal)
	assert.NoError(t, produceCtxErr, "the flight should outlive the caller that started it")
}

func TestCapacityEvictionDropsLeastRecentlyUsed(t *testing.T) {
	c := New[string](2, 0)
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	produce := func(v string) func(context.Context) (string, error) {
		return func(context.Context) (string, error) { return v, nil }
	}

	_, _, err := c.GetOrCreate(context.Background(), "a", produce("A"))
	require.NoError(t, err)
	clock = clock.Add(time.Second)
	_, _, err = c.GetOrCreate(context.Background(), "b", produce("B"))
	require.NoError(t, err)

	// Touch "a" so "b" becomes the eviction candidate.
	clock = clock.Add(time.Second)
	_, hit := c.Get("a")
	assert.True(t, hit)

	clock = clock.Add(time.Second)
	_, _, err = c.GetOrCreate(context.Background(), "c", produce("C"))
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	_, hit = c.Get("a")
	assert.True(t, hit)
	_, hit = c.Get("b")
	assert.False(t, hit)
	_, hit = c.Get("c")
	assert.True(t, hit)
}

func TestAgeEviction(t *testing.T) {
	c := New[string](0, time.Minute)
	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }

	_, _, err := c.GetOrCreate(context.Background(), "fp", func(context.Context) (string, error) {
		return "content", nil
	})
	require.NoError(t, err)

	_, hit := c.Get("fp")
	assert.True(t, hit)

	clock = clock.Add(2 * time.Minute)
	_, hit = c.Get("fp")
	assert.False(t, hit)
	assert.Equal(t, 0, c.Len())
}

func TestStats(t *testing.T) {
	c := New[int](0, 0)
	for i := 0; i < 3; i++ {
		_, _, err := c.GetOrCreate(context.Background(), fmt.Sprintf("fp%d", i%2), func(context.Context) (int, error) {
			return i, nil
		})
		require.NoError(t, err)
	}

	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(2), misses)
}
