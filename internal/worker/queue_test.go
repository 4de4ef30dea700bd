package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New("test", 0, nil)
	defer q.Shutdown(context.Background())

	var mu sync.Mutex
	var order []int
	for i := 1; i <= 50; i++ {
		require.True(t, q.Submit(func(context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, q.Flush(context.Background()))

	require.Len(t, order, 50)
	for i, v := range order {
		assert.Equal(t, i+1, v)
	}
}

func TestQueue_SubmitAfterShutdown(t *testing.T) {
	q := New("test", 1, nil)
	_, err := q.Shutdown(context.Background())
	require.NoError(t, err)

	assert.False(t, q.Submit(func(context.Context) {}))
	assert.ErrorIs(t, q.Flush(context.Background()), ErrClosed)
}

func TestQueue_ShutdownDropsPendingAndWaitsForRunning(t *testing.T) {
	q := New("test", 10, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var finished, ranLater atomic.Bool

	q.Submit(func(context.Context) {
		close(started)
		<-release
		finished.Store(true)
	})
	q.Submit(func(context.Context) { ranLater.Store(true) })
	q.Submit(func(context.Context) { ranLater.Store(true) })
	<-started

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	dropped, err := q.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dropped)
	assert.True(t, finished.Load(), "in-flight job should complete before Shutdown returns")
	assert.False(t, ranLater.Load(), "queued jobs should not run after Shutdown")
}

func TestQueue_ShutdownDeadlineCancelsRunningJob(t *testing.T) {
	q := New("test", 1, nil)

	started := make(chan struct{})
	var cancelled atomic.Bool
	q.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, cancelled.Load())
}

func TestQueue_SubmitBlocksWhenFull(t *testing.T) {
	q := New("test", 1, nil)
	defer q.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	q.Submit(func(context.Context) { close(started); <-release })
	<-started
	q.Submit(func(context.Context) {}) // fills the only slot

	submitted := make(chan struct{})
	go func() {
		q.Submit(func(context.Context) {})
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("Submit should block while the queue is full")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-submitted:
	case <-time.After(time.Second):
		t.Fatal("Submit should unblock once the worker drains")
	}
}

func TestQueue_PanicRecovered(t *testing.T) {
	q := New("test", 0, nil)
	defer q.Shutdown(context.Background())

	var ran atomic.Bool
	q.Submit(func(context.Context) { panic("boom") })
	q.Submit(func(context.Context) { ran.Store(true) })

	require.NoError(t, q.Flush(context.Background()))
	assert.True(t, ran.Load())
}
