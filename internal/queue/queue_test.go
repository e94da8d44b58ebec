package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"agentpulse/server/internal/models"
)

func TestNewListingQueue(t *testing.T) {
	logger := logrus.New()
	q := NewListingQueue(10, logger)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.maxSize)
	assert.False(t, q.IsClosed())
}

func TestListingQueue_Push(t *testing.T) {
	logger := logrus.New()
	q := NewListingQueue(2, logger)

	// Test successful push
	batch := []*models.PropertyRecord{{ID: "test1"}}
	err := q.Push(batch)
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Test queue full
	for i := 0; i < 2; i++ {
		batch := []*models.PropertyRecord{{ID: "test"}}
		_ = q.Push(batch)
	}
	err = q.Push(batch)
	assert.Equal(t, ErrQueueFull, err)
}

func TestListingQueue_PushAfterClose(t *testing.T) {
	logger := logrus.New()
	q := NewListingQueue(2, logger)

	q.Close()

	err := q.Push([]*models.PropertyRecord{{ID: "test"}})
	assert.Equal(t, ErrQueueClosed, err)
}

func TestListingQueue_Batches(t *testing.T) {
	logger := logrus.New()
	q := NewListingQueue(10, logger)

	var processed []*models.PropertyRecord
	var mu sync.Mutex
	done := make(chan struct{})

	// Single consumer draining the queue
	go func() {
		defer close(done)
		for batch := range q.Batches() {
			mu.Lock()
			processed = append(processed, batch...)
			mu.Unlock()
		}
	}()

	// Push items
	testBatch := []*models.PropertyRecord{{ID: "test1"}, {ID: "test2"}}
	err := q.Push(testBatch)
	assert.NoError(t, err)

	// Wait for processing
	time.Sleep(100 * time.Millisecond)

	// Verify processing
	mu.Lock()
	assert.Equal(t, 2, len(processed))
	assert.Equal(t, "test1", processed[0].ID)
	assert.Equal(t, "test2", processed[1].ID)
	mu.Unlock()

	// Closing ends the consumer loop
	q.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after close")
	}
}

func TestListingQueue_ExactlyOnceDelivery(t *testing.T) {
	logger := logrus.New()
	q := NewListingQueue(10, logger)

	var wg sync.WaitGroup
	deliveries := 0
	var mu sync.Mutex

	// Three competing consumers; each batch must land on exactly one
	for i := 0; i < 3; i++ {
		go func() {
			for range q.Batches() {
				mu.Lock()
				deliveries++
				mu.Unlock()
				wg.Done()
			}
		}()
	}

	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := q.Push([]*models.PropertyRecord{{ID: "test"}})
		assert.NoError(t, err)
	}

	wg.Wait()

	mu.Lock()
	assert.Equal(t, 5, deliveries)
	mu.Unlock()

	q.Close()
}

func TestListingQueue_Close(t *testing.T) {
	logger := logrus.New()
	q := NewListingQueue(10, logger)

	// Test first close
	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Test second close (should be no-op)
	err = q.Close()
	assert.NoError(t, err)
}

func TestListingQueue_DrainAfterClose(t *testing.T) {
	logger := logrus.New()
	q := NewListingQueue(10, logger)

	err := q.Push([]*models.PropertyRecord{{ID: "buffered"}})
	assert.NoError(t, err)

	q.Close()

	// The buffered batch stays readable, then the channel reports closed
	batch, ok := <-q.Batches()
	assert.True(t, ok)
	assert.Equal(t, "buffered", batch[0].ID)

	_, ok = <-q.Batches()
	assert.False(t, ok)
}
