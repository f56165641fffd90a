package jobs

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

func TestQueueProcessesJobs(t *testing.T) {
	var handled int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&handled, 1)
		return nil
	}, QueueConfig{Workers: 2})

	q.Start(context.Background())
	defer q.Stop()

	id, err := q.Enqueue(Job{Type: "recalculate"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = q.Enqueue(Job{ID: "fixed", Type: "recalculate"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&handled) == 2 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesUntilLimit(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts []int
		results  int32
	)
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		mu.Lock()
		attempts = append(attempts, job.Attempt)
		mu.Unlock()
		return errors.New("boom")
	}, QueueConfig{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnResult: func(job Job, err error, elapsed time.Duration) {
			assert.Error(t, err)
			atomic.AddInt32(&results, 1)
		},
	})

	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Type: "recalculate"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&results) == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2}, attempts)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	_, err := q.Enqueue(Job{})
	assert.Error(t, err)
}

func TestQueueBackoff(t *testing.T) {
	q := NewQueue("backoff", nil, QueueConfig{RetryDelay: time.Second})
	assert.Equal(t, time.Second, q.backoff(1))
	assert.Equal(t, 2*time.Second, q.backoff(2))
	assert.Equal(t, 4*time.Second, q.backoff(3))
	assert.Equal(t, 64*time.Second, q.backoff(20))
}
