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
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{}, 3)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.ID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2, BufferSize: 4})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, seen)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueSkipsSupersededJobs(t *testing.T) {
	release := make(chan struct{})
	ran := make(chan string, 4)
	q := NewQueue("coalesce", func(ctx context.Context, job Job) error {
		if job.ID == "blocker" {
			<-release
		}
		ran <- job.ID
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "blocker"}))
	// Give the single worker time to pick up the blocker so later jobs wait in the buffer.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "rev-1", Key: "warm"}))
	require.NoError(t, q.Enqueue(Job{ID: "rev-2", Key: "warm"}))
	close(release)

	var got []string
	for len(got) < 2 {
		select {
		case id := <-ran:
			got = append(got, id)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, ran %v", got)
		}
	}
	assert.Equal(t, []string{"blocker", "rev-2"}, got)
}

func TestQueueRejectsWhenStoppedOrFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	assert.True(t, errors.Is(q.Enqueue(Job{ID: "early"}), ErrQueueStopped))

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(Job{ID: "running"}))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(Job{ID: "buffered"}))
	assert.True(t, errors.Is(q.Enqueue(Job{ID: "overflow"}), ErrQueueFull))

	close(block)
	q.Stop()
	assert.True(t, errors.Is(q.Enqueue(Job{ID: "late"}), ErrQueueStopped))
}
