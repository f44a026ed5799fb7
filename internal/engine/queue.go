package engine

import "sync"

// deliveryQueue is a thread-safe FIFO queue of deliveries.
//
// The queue is unbounded so producers never block on a slow list.
//
// Thread-safety is provided for external enqueuing while the engine's loop
// dequeues. The signal channel enables context-aware waiting in Run.
type deliveryQueue struct {
	mu         sync.Mutex
	deliveries []Delivery
	closed     bool
	signal     chan struct{} // buffered, size 1
}

func newDeliveryQueue() *deliveryQueue {
	return &deliveryQueue{
		deliveries: make([]Delivery, 0, 64),
		signal:     make(chan struct{}, 1),
	}
}

// Enqueue adds a delivery to the back of the queue.
// Returns false if the queue is closed.
func (q *deliveryQueue) Enqueue(d Delivery) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.deliveries = append(q.deliveries, d)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front delivery without blocking.
// Returns (Delivery{}, false) if the queue is empty.
func (q *deliveryQueue) TryDequeue() (Delivery, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.deliveries) == 0 {
		return Delivery{}, false
	}

	d := q.deliveries[0]
	// Clear the slot so the payload can be collected.
	q.deliveries[0] = Delivery{}

	if len(q.deliveries) == 1 {
		q.deliveries = q.deliveries[:0]
	} else {
		q.deliveries = q.deliveries[1:]
	}
	return d, true
}

// Wait returns a channel that signals when deliveries may be available.
// The channel is closed when the queue is closed.
func (q *deliveryQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *deliveryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.deliveries)
}

// Closed reports whether Close has been called.
func (q *deliveryQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more deliveries will be enqueued.
func (q *deliveryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
