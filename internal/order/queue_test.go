package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueueFIFO(t *testing.T) {
	q := newJobQueue()
	q.push(&job{req: Request{ID: 1}})
	q.push(&job{req: Request{ID: 2}})
	q.push(&job{req: Request{ID: 3}})

	for want := int64(1); want <= 3; want++ {
		j, ok := q.pop(context.Background(), 100*time.Millisecond)
		require.True(t, ok)
		assert.Equal(t, want, j.req.ID)
		q.finish(j, false)
	}
	assert.True(t, q.drained())
}

func TestJobQueuePopTimesOut(t *testing.T) {
	q := newJobQueue()

	start := time.Now()
	j, ok := q.pop(context.Background(), 30*time.Millisecond)
	assert.False(t, ok)
	assert.Nil(t, j)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestJobQueuePopHonorsContext(t *testing.T) {
	q := newJobQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := q.pop(ctx, time.Second)
	assert.False(t, ok)
}

func TestJobQueuePopUnblocksOnPush(t *testing.T) {
	q := newJobQueue()

	done := make(chan *job, 1)
	go func() {
		j, ok := q.pop(context.Background(), 2*time.Second)
		if ok {
			done <- j
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.push(&job{req: Request{ID: 5}})

	select {
	case j := <-done:
		assert.Equal(t, int64(5), j.req.ID)
	case <-time.After(time.Second):
		t.Fatal("pop did not unblock on push")
	}
}

func TestJobQueueBurstWakesAllWaiters(t *testing.T) {
	q := newJobQueue()

	// Two waiters block on an empty queue, then two jobs arrive in a
	// burst. The single buffered signal must be passed on so the second
	// waiter does not sleep until its poll deadline.
	results := make(chan *job, 2)
	for i := 0; i < 2; i++ {
		go func() {
			j, ok := q.pop(context.Background(), 3*time.Second)
			if ok {
				results <- j
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.push(&job{req: Request{ID: 1}})
	q.push(&job{req: Request{ID: 2}})

	deadline := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case <-results:
		case <-deadline:
			t.Fatal("waiter did not wake for a pending job")
		}
	}
}

func TestJobQueueRequeueGoesToTail(t *testing.T) {
	q := newJobQueue()
	q.push(&job{req: Request{ID: 1}})
	q.push(&job{req: Request{ID: 2}})

	first, ok := q.pop(context.Background(), 100*time.Millisecond)
	require.True(t, ok)
	require.Equal(t, int64(1), first.req.ID)
	q.finish(first, true)

	next, ok := q.pop(context.Background(), 100*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, int64(2), next.req.ID)
}

func TestJobQueueDepthCountsInflight(t *testing.T) {
	q := newJobQueue()
	q.push(&job{req: Request{ID: 1}})
	assert.Equal(t, 1, q.depth())

	j, ok := q.pop(context.Background(), 100*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 0, q.pending())
	assert.Equal(t, 1, q.depth())
	assert.False(t, q.drained())

	q.finish(j, false)
	assert.True(t, q.drained())
}
