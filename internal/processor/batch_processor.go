package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agentpulse/server/config"
	"agentpulse/server/internal/models"
	"agentpulse/server/internal/queue"
)

// ListingStore persists one ingestion batch atomically.
type ListingStore interface {
	SaveBatch(batch []*models.PropertyRecord) error
}

// BatchProcessor drains the listing queue and persists batches with retry. Each
// worker owns the batches it receives; a batch is never seen by two workers.
type BatchProcessor struct {
	store     ListingStore
	logger    *logrus.Logger
	config    *config.Config
	queue     *queue.ListingQueue
	waitGroup sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(store ListingStore, queue *queue.ListingQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		store:  store,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing batches from the queue
func (p *BatchProcessor) Start() {
	for i := 0; i < p.config.BatchProcessing.ProcessorCount; i++ {
		p.waitGroup.Add(1)
		go p.processLoop()
	}
}

// Stop gracefully shuts down the processor
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.waitGroup.Wait()
}

// processLoop handles the continuous processing of batches
func (p *BatchProcessor) processLoop() {
	defer p.waitGroup.Done()

	for {
		select {
		case <-p.ctx.Done():
			p.drainRemaining()
			return
		case batch, ok := <-p.queue.Batches():
			if !ok {
				return
			}
			if err := p.processBatch(batch); err != nil {
				p.logger.WithError(err).WithField("batch_size", len(batch)).Error("Dropping batch")
			}
		}
	}
}

// drainRemaining finishes the batches already buffered at shutdown so an accepted
// ingestion is not silently lost. It never blocks waiting for new work.
func (p *BatchProcessor) drainRemaining() {
	for {
		select {
		case batch, ok := <-p.queue.Batches():
			if !ok {
				return
			}
			if err := p.processBatch(batch); err != nil {
				p.logger.WithError(err).WithField("batch_size", len(batch)).Error("Dropping batch")
			}
		default:
			return
		}
	}
}

// processBatch persists a single batch with retry logic
func (p *BatchProcessor) processBatch(batch []*models.PropertyRecord) error {
	records := p.validRecords(batch)
	if len(records) == 0 {
		return nil
	}

	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying batch processing, attempt %d of %d", attempt, p.config.BatchProcessing.MaxRetries)
			time.Sleep(time.Duration(p.config.BatchProcessing.RetryDelay) * time.Second)
		}

		err = p.store.SaveBatch(records)
		if err == nil {
			p.logger.Infof("Successfully processed batch of %d listings", len(records))
			return nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", p.config.BatchProcessing.MaxRetries, err)
}

// validRecords drops records that cannot be stored. A listing without an id has no
// place to upsert to and would corrupt later CMA lookups.
func (p *BatchProcessor) validRecords(batch []*models.PropertyRecord) []*models.PropertyRecord {
	records := make([]*models.PropertyRecord, 0, len(batch))
	for _, rec := range batch {
		if rec == nil || rec.ID == "" {
			p.logger.Warn("Skipping listing without id")
			continue
		}
		records = append(records, rec)
	}
	return records
}
