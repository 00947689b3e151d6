package engine

import "sync"

// txQueue is an unbounded FIFO of submitted transactions. Producers may
// enqueue from any goroutine; the Run loop is the only consumer.
type txQueue struct {
	mu     sync.Mutex
	txs    []Tx
	closed bool
	signal chan struct{} // buffered, size 1; coalesces wakeups
}

func newTxQueue() *txQueue {
	return &txQueue{
		txs:    make([]Tx, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends tx. Returns false if the queue is closed.
func (q *txQueue) Enqueue(tx Tx) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.txs = append(q.txs, tx)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front transaction without blocking.
func (q *txQueue) TryDequeue() (Tx, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.txs) == 0 {
		return Tx{}, false
	}
	tx := q.txs[0]

	// Clear the slot so the message bytes can be collected.
	q.txs[0] = Tx{}
	if len(q.txs) == 1 {
		q.txs = q.txs[:0]
	} else {
		q.txs = q.txs[1:]
	}
	return tx, true
}

// Wait returns a channel that fires when transactions may be available
// and is closed once the queue is closed.
func (q *txQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *txQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.txs)
}

// Closed reports whether Close has been called.
func (q *txQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues and wakes the consumer. Already queued
// transactions can still be drained.
func (q *txQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
