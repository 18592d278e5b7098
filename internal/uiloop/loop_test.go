package uiloop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New()
	go l.Run()
	t.Cleanup(l.Close)
	return l
}

func TestDoReturnsResult(t *testing.T) {
	l := startLoop(t)

	sentinel := errors.New("boom")
	err := l.Do(context.Background(), func() error { return sentinel })
	assert.Equal(t, sentinel, err)

	assert.NoError(t, l.Do(context.Background(), func() error { return nil }))
}

func TestTasksRunInSubmissionOrder(t *testing.T) {
	l := startLoop(t)

	var order []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.Post(func() { order = append(order, i) }))
	}
	// Do is serialized behind the posts, so order is complete afterward.
	require.NoError(t, l.Do(context.Background(), func() error { return nil }))

	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestTasksRunOnSingleGoroutine(t *testing.T) {
	l := startLoop(t)

	// Mutate shared state from many submitters; the loop serializes all
	// access, so the final count is exact without any locking.
	counter := 0
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				l.Do(context.Background(), func() error {
					counter++
					return nil
				})
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	require.NoError(t, l.Do(context.Background(), func() error {
		assert.Equal(t, 1000, counter)
		return nil
	}))
}

func TestDoAfterClose(t *testing.T) {
	l := New()
	go l.Run()
	l.Close()

	err := l.Do(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, l.Post(func() {}))
}

func TestCloseDrainsQueuedTasks(t *testing.T) {
	l := New()

	ran := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		require.True(t, l.Post(func() { ran <- struct{}{} }))
	}

	go l.Run()
	l.Close()

	assert.Len(t, ran, 8)
}

func TestDoRespectsContext(t *testing.T) {
	l := startLoop(t)

	// Block the loop so the next Do cannot complete in time.
	release := make(chan struct{})
	l.Post(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l.Do(ctx, func() error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
