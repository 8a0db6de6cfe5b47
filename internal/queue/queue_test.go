package queue_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alromeros/meteoserver/internal/queue"
)

func notDraining() bool { return false }

func TestPopBlocksUntilPush(t *testing.T) {
	q := queue.New[int](notDraining)

	done := make(chan int, 1)
	go func() {
		v, ok := q.PopBlocking()
		if !ok {
			done <- -1
			return
		}
		done <- v
	}()

	time.Sleep(20 * time.Millisecond) // give the goroutine a chance to block
	q.Push(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("PopBlocking never returned after Push")
	}
}

// Strict FIFO order for a single consumer.
func TestFIFOOrder(t *testing.T) {
	q := queue.New[int](notDraining)
	for i := 0; i < 10; i++ {
		q.Push(i)
	}
	for i := 0; i < 10; i++ {
		v, ok := q.PopBlocking()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestLenTracksPushAndPop(t *testing.T) {
	q := queue.New[int](notDraining)
	assert.Equal(t, 0, q.Len())
	q.Push(1)
	q.Push(2)
	assert.Equal(t, 2, q.Len())
	_, _ = q.PopBlocking()
	assert.Equal(t, 1, q.Len())
}

// Shutdown liveness: once draining reports true and SignalDrain is called,
// every blocked waiter returns promptly even though the queue stays empty.
func TestDrainUnblocksAllWaiters(t *testing.T) {
	var draining atomic.Bool
	q := queue.New[int](draining.Load)

	const waiters = 8
	var wg sync.WaitGroup
	results := make([]bool, waiters)
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok := q.PopBlocking()
			results[i] = ok
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	draining.Store(true)
	q.SignalDrain()

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("not all waiters unblocked after SignalDrain")
	}

	for i, ok := range results {
		assert.False(t, ok, "waiter %d should have observed draining", i)
	}
}

// A pending element is still delivered even after draining is requested;
// draining only governs the empty-queue case.
func TestDrainDoesNotDiscardQueuedWork(t *testing.T) {
	var draining atomic.Bool
	q := queue.New[int](draining.Load)

	q.Push(7)
	draining.Store(true)
	q.SignalDrain()

	v, ok := q.PopBlocking()
	require.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = q.PopBlocking()
	assert.False(t, ok)
}
