package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	err := q.Enqueue(Job{Type: "noop"})
	require.Error(t, err)
}

func TestEnqueueAssignsID(t *testing.T) {
	got := make(chan Job, 1)
	q := NewQueue("test", func(_ context.Context, j Job) error {
		got <- j
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "noop"}))

	select {
	case j := <-got:
		assert.NotEmpty(t, j.ID)
		assert.False(t, j.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestEnqueueCoalescesPendingKeys(t *testing.T) {
	var handled int64
	started := make(chan struct{}, 4)
	release := make(chan struct{})

	q := NewQueue("test", func(_ context.Context, j Job) error {
		atomic.AddInt64(&handled, 1)
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "regen", Key: "course:1"}))

	// Wait until the worker holds the first job; its key is released on
	// pickup, so the next enqueue for the same key must be accepted.
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first job never started")
	}

	require.NoError(t, q.Enqueue(Job{Type: "regen", Key: "course:1"}))
	// Third request arrives while the second is still waiting: coalesced.
	require.NoError(t, q.Enqueue(Job{Type: "regen", Key: "course:1"}))

	close(release)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("second job never started")
	}

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&handled) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
