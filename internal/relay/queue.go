package relay

import (
	"sync"

	"vending-storefront-backend/internal/metrics"
	"vending-storefront-backend/internal/protocol"
)

// Queue buffers commands issued while the upstream link is down. FIFO, no
// capacity bound, no deduplication. Draining happens only on the transition
// into Connected.
type Queue struct {
	mu    sync.Mutex
	items []protocol.Command
}

// NewQueue creates an empty command queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends one command to the tail.
func (q *Queue) Enqueue(cmd protocol.Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, cmd)
	metrics.CommandQueueDepth.Set(float64(len(q.items)))
}

// Drain removes and returns every buffered command in arrival order, leaving
// the queue empty. The removal is a single atomic flush; commands enqueued
// after Drain returns wait for the next flush.
func (q *Queue) Drain() []protocol.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	metrics.CommandQueueDepth.Set(0)
	return items
}

// Requeue reattaches an unsent tail at the head, preserving the original
// order for the next flush. Used when the link dies mid-drain.
func (q *Queue) Requeue(cmds []protocol.Command) {
	if len(cmds) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append([]protocol.Command{}, cmds...), q.items...)
	metrics.CommandQueueDepth.Set(float64(len(q.items)))
}

// Len reports the current depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
