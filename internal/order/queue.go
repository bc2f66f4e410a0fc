package order

import (
	"context"
	"sync"
	"time"
)

// jobQueue is the FIFO queue shared by the workers. It tracks jobs that
// have been popped but not yet finished so that drain means "nothing
// pending and nothing in flight".
type jobQueue struct {
	mu       sync.Mutex
	items    []*job
	inflight int
	notify   chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		notify: make(chan struct{}, 1),
	}
}

func (q *jobQueue) push(j *job) {
	q.mu.Lock()
	q.items = append(q.items, j)
	q.mu.Unlock()
	q.signal()
}

// pop removes the head of the queue, waiting up to timeout for a job
// to arrive. The popped job counts as in flight until finish is called.
func (q *jobQueue) pop(ctx context.Context, timeout time.Duration) (*job, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			j := q.items[0]
			q.items = q.items[1:]
			q.inflight++
			remaining := len(q.items)
			q.mu.Unlock()
			// A burst of pushes can collapse into one buffered signal.
			// Pass it on so other waiters wake for the remaining jobs.
			if remaining > 0 {
				q.signal()
			}
			return j, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-deadline.C:
			return nil, false
		case <-q.notify:
		}
	}
}

// finish releases a popped job. With requeue the job goes back to the
// tail of the queue, so a failing job never blocks the head.
func (q *jobQueue) finish(j *job, requeue bool) {
	q.mu.Lock()
	q.inflight--
	if requeue {
		q.items = append(q.items, j)
	}
	q.mu.Unlock()
	if requeue {
		q.signal()
	}
}

func (q *jobQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// depth is pending plus in-flight jobs.
func (q *jobQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) + q.inflight
}

func (q *jobQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *jobQueue) drained() bool {
	return q.depth() == 0
}
