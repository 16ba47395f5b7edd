package clip

import (
	"context"
	"time"
)

const spacePollInterval = 100 * time.Millisecond

// Queue is a bounded FIFO of ready clips. Many producers, one consumer.
type Queue struct {
	ch chan Clip
}

// NewQueue creates a queue holding at most capacity clips (minimum 1).
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan Clip, capacity)}
}

// Push appends c, blocking while the queue is full.
func (q *Queue) Push(ctx context.Context, c Clip) error {
	select {
	case q.ch <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPop removes the oldest clip without blocking.
func (q *Queue) TryPop() (Clip, bool) {
	select {
	case c := <-q.ch:
		return c, true
	default:
		return Clip{}, false
	}
}

// WaitForSpace blocks until Len() < Cap() or ctx is done.
func (q *Queue) WaitForSpace(ctx context.Context) error {
	ticker := time.NewTicker(spacePollInterval)
	defer ticker.Stop()
	for q.Len() >= q.Cap() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// Drain empties the queue and returns what it held, oldest first.
func (q *Queue) Drain() []Clip {
	var out []Clip
	for {
		c, ok := q.TryPop()
		if !ok {
			return out
		}
		out = append(out, c)
	}
}

func (q *Queue) Len() int { return len(q.ch) }

func (q *Queue) Cap() int { return cap(q.ch) }
