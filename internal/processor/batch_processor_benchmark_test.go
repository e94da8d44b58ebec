package processor

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"agentpulse/server/config"
	"agentpulse/server/internal/models"
	"agentpulse/server/internal/queue"
)

// countingStore accepts every batch and tracks how many records it has seen.
type countingStore struct {
	saved int64
}

func (s *countingStore) SaveBatch(batch []*models.PropertyRecord) error {
	atomic.AddInt64(&s.saved, int64(len(batch)))
	return nil
}

func (s *countingStore) count() int64 {
	return atomic.LoadInt64(&s.saved)
}

func (s *countingStore) reset() {
	atomic.StoreInt64(&s.saved, 0)
}

func generateTestListings(count int) []*models.PropertyRecord {
	listings := make([]*models.PropertyRecord, count)
	for i := range listings {
		price := float64(400000 + i*1000)
		sqft := float64(1500 + i%500)
		listings[i] = &models.PropertyRecord{
			ID:      fmt.Sprintf("bench-%d", i),
			Address: fmt.Sprintf("%d Benchmark Ave", i),
			City:    "Austin",
			Price:   &price,
			Sqft:    &sqft,
		}
	}
	return listings
}

func splitIntoBatches(listings []*models.PropertyRecord, batchSize int) [][]*models.PropertyRecord {
	var batches [][]*models.PropertyRecord
	for start := 0; start < len(listings); start += batchSize {
		end := start + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		batches = append(batches, listings[start:end])
	}
	return batches
}

func waitForCount(b *testing.B, store *countingStore, want int64) {
	deadline := time.Now().Add(10 * time.Second)
	for store.count() < want {
		if time.Now().After(deadline) {
			b.Fatalf("timed out waiting for %d records, saw %d", want, store.count())
		}
		time.Sleep(time.Millisecond)
	}
}

func BenchmarkBatchProcessing(b *testing.B) {
	batchSizes := []int{10, 50, 100, 500}
	listingCounts := []int{1000, 5000, 10000}

	for _, batchSize := range batchSizes {
		for _, listingCount := range listingCounts {
			b.Run(fmt.Sprintf("BatchSize_%d_Listings_%d", batchSize, listingCount), func(b *testing.B) {
				cfg := &config.Config{}
				cfg.BatchProcessing.ProcessorCount = 4
				cfg.BatchProcessing.MaxRetries = 3
				cfg.BatchProcessing.MaxBatchSize = batchSize
				logger := logrus.New()
				logger.SetLevel(logrus.WarnLevel) // Reduce logging noise during benchmarks

				store := &countingStore{}
				listingQueue := queue.NewListingQueue(listingCount/batchSize+1, logger)
				processor := NewBatchProcessor(store, listingQueue, cfg, logger)

				batches := splitIntoBatches(generateTestListings(listingCount), batchSize)

				processor.Start()
				defer processor.Stop()

				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					b.StopTimer()
					store.reset()
					b.StartTimer()

					startTime := time.Now()
					for _, batch := range batches {
						require.NoError(b, listingQueue.Push(batch))
					}

					waitForCount(b, store, int64(listingCount))

					duration := time.Since(startTime)
					throughput := float64(listingCount) / duration.Seconds()
					b.ReportMetric(throughput, "listings/sec")
				}
			})
		}
	}
}

func BenchmarkConcurrentBatchProcessing(b *testing.B) {
	concurrencyLevels := []int{2, 4, 8}
	listingCount := 10000
	batchSize := 100

	for _, concurrency := range concurrencyLevels {
		b.Run(fmt.Sprintf("Concurrency_%d", concurrency), func(b *testing.B) {
			cfg := &config.Config{}
			cfg.BatchProcessing.ProcessorCount = concurrency
			cfg.BatchProcessing.MaxRetries = 3
			cfg.BatchProcessing.MaxBatchSize = batchSize
			logger := logrus.New()
			logger.SetLevel(logrus.WarnLevel)

			store := &countingStore{}
			listingQueue := queue.NewListingQueue(listingCount/batchSize+1, logger)
			processor := NewBatchProcessor(store, listingQueue, cfg, logger)

			batches := splitIntoBatches(generateTestListings(listingCount), batchSize)

			processor.Start()
			defer processor.Stop()

			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				b.StopTimer()
				store.reset()
				b.StartTimer()

				startTime := time.Now()
				batchesPerWorker := len(batches) / concurrency

				var wg sync.WaitGroup
				for w := 0; w < concurrency; w++ {
					wg.Add(1)
					go func(workerID int) {
						defer wg.Done()
						start := workerID * batchesPerWorker
						end := start + batchesPerWorker
						if workerID == concurrency-1 {
							end = len(batches)
						}
						for j := start; j < end; j++ {
							if err := listingQueue.Push(batches[j]); err != nil {
								b.Error(err)
								return
							}
						}
					}(w)
				}
				wg.Wait()

				waitForCount(b, store, int64(listingCount))

				duration := time.Since(startTime)
				throughput := float64(listingCount) / duration.Seconds()
				b.ReportMetric(throughput, "listings/sec")
			}
		})
	}
}
