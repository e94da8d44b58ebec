package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"agentpulse/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// ListingQueue is an in-memory queue of listing batches between the ingestion
// endpoint and the batch processor. Each batch is delivered to exactly one
// consumer reading from Batches.
type ListingQueue struct {
	items   chan []*models.PropertyRecord
	maxSize int
	closed  bool
	mu      sync.RWMutex
	logger  *logrus.Logger
}

// NewListingQueue creates a queue buffering up to bufferSize batches.
func NewListingQueue(bufferSize int, logger *logrus.Logger) *ListingQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &ListingQueue{
		items:   make(chan []*models.PropertyRecord, bufferSize),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds a batch of listings to the queue. It never blocks: a full buffer
// returns ErrQueueFull and the caller decides whether to retry or reject.
func (q *ListingQueue) Push(batch []*models.PropertyRecord) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- batch:
		q.logger.WithField("batch_size", len(batch)).Debug("Pushed batch to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Batches exposes the receive side of the queue. The channel closes after Close
// once the remaining buffered batches are drained.
func (q *ListingQueue) Batches() <-chan []*models.PropertyRecord {
	return q.items
}

// Close stops the queue and prevents new batches from being added. Batches
// already buffered stay readable until drained.
func (q *ListingQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.items)
	return nil
}

// Len returns the current number of batches in the queue
func (q *ListingQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *ListingQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
