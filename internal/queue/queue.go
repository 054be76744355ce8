// Package queue feeds listing items to the extraction workers.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/Camillamonteiros/big-data/internal/models"
)

var ErrQueueClosed = errors.New("queue is closed")

// Task is one listing item waiting for detail extraction. Index is the
// item's position in the listing; results are keyed by it so concurrent
// completion cannot reorder the batch.
type Task struct {
	Index int
	Stub  models.ItemStub
}

// ItemQueue is an in-memory FIFO shared by the extraction workers. Pop
// blocks until a task arrives, the queue closes, or the context ends.
type ItemQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []Task
	closed bool
}

func NewItemQueue() *ItemQueue {
	q := &ItemQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *ItemQueue) Push(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.tasks = append(q.tasks, task)
	q.cond.Signal()
	return nil
}

func (q *ItemQueue) Pop(ctx context.Context) (Task, error) {
	// The callback takes the lock, so it cannot fire between the ctx check
	// below and the wait; a cancelled context always wakes this waiter.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}
		q.cond.Wait()
	}

	if len(q.tasks) == 0 {
		return Task{}, ErrQueueClosed
	}

	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, nil
}

func (q *ItemQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close wakes every blocked Pop; drained pops after close return
// ErrQueueClosed, which workers treat as end of input.
func (q *ItemQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}
