package processor

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentpulse/server/internal/database"
	"agentpulse/server/internal/models"
	"agentpulse/server/internal/queue"
)

func setupTestDB(t *testing.T) (*database.Database, *database.ORM) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())

	orm, err := database.NewORM(db)
	require.NoError(t, err)

	return db, orm
}

func TestBatchProcessingIntegration(t *testing.T) {
	// Setup
	db, orm := setupTestDB(t)
	cfg := testConfig()

	listingQueue := queue.NewListingQueue(cfg.BatchProcessing.MaxBatchSize, quietLogger())
	processor := NewBatchProcessor(orm, listingQueue, cfg, quietLogger())

	processor.Start()
	defer processor.Stop()

	// Test
	testBatch := []*models.PropertyRecord{
		{
			ID:        "mls-100",
			Address:   "12 Elm St",
			City:      "Austin",
			Status:    "Closed",
			SoldPrice: ptr(400000),
			Sqft:      ptr(2000),
			Pool:      ptrBool(true),
		},
		{
			ID:      "mls-101",
			Address: "48 Oak Ave",
			City:    "Austin",
			Status:  "Active",
			Price:   ptr(450000),
			Sqft:    ptr(2200),
			Beds:    ptrInt(4),
		},
	}
	require.NoError(t, listingQueue.Push(testBatch))

	// Assert: both listings land in the database
	assert.Eventually(t, func() bool {
		count, err := db.CountListings()
		return err == nil && count == 2
	}, 5*time.Second, 20*time.Millisecond)

	stored, err := db.GetListing("mls-100")
	require.NoError(t, err)
	assert.Equal(t, "12 Elm St", stored.Address)
	assert.Equal(t, "Closed", stored.Status)
	require.NotNil(t, stored.SoldPrice)
	assert.Equal(t, 400000.0, *stored.SoldPrice)
	require.NotNil(t, stored.Pool)
	assert.True(t, *stored.Pool)
	assert.Nil(t, stored.Beds)

	stored, err = db.GetListing("mls-101")
	require.NoError(t, err)
	require.NotNil(t, stored.Beds)
	assert.Equal(t, 4, *stored.Beds)
	assert.Nil(t, stored.SoldPrice)
}

func TestBatchProcessingUpsertReplaces(t *testing.T) {
	// Setup
	db, orm := setupTestDB(t)
	cfg := testConfig()

	listingQueue := queue.NewListingQueue(10, quietLogger())
	processor := NewBatchProcessor(orm, listingQueue, cfg, quietLogger())

	processor.Start()
	defer processor.Stop()

	// The feed resends a listing when its price drops
	require.NoError(t, listingQueue.Push([]*models.PropertyRecord{
		{ID: "mls-200", Status: "Active", Price: ptr(500000)},
	}))
	require.NoError(t, listingQueue.Push([]*models.PropertyRecord{
		{ID: "mls-200", Status: "Active", Price: ptr(480000)},
	}))

	// Assert: one row, latest price
	assert.Eventually(t, func() bool {
		rec, err := db.GetListing("mls-200")
		return err == nil && rec.Price != nil && *rec.Price == 480000
	}, 5*time.Second, 20*time.Millisecond)

	count, err := db.CountListings()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestBatchProcessingWithConcurrency(t *testing.T) {
	// Setup
	db, orm := setupTestDB(t)
	cfg := testConfig()
	cfg.BatchProcessing.ProcessorCount = 4

	listingQueue := queue.NewListingQueue(50, quietLogger())
	processor := NewBatchProcessor(orm, listingQueue, cfg, quietLogger())

	processor.Start()
	defer processor.Stop()

	// Push batches concurrently
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(batchNum int) {
			defer wg.Done()
			batch := make([]*models.PropertyRecord, 20)
			for j := range batch {
				batch[j] = &models.PropertyRecord{
					ID:      fmt.Sprintf("mls-%d-%d", batchNum, j),
					Address: fmt.Sprintf("Test Address %d-%d", batchNum, j),
					City:    "Austin",
					Status:  "Active",
					Price:   ptr(float64(500000 + batchNum*100000 + j*1000)),
				}
			}
			require.NoError(t, listingQueue.Push(batch))
		}(i)
	}
	wg.Wait()

	// Assert: all 100 listings stored exactly once
	assert.Eventually(t, func() bool {
		count, err := db.CountListings()
		return err == nil && count == 100
	}, 10*time.Second, 50*time.Millisecond)
}

// Test helpers shared with the unit tests

func ptr(v float64) *float64 {
	return &v
}

func ptrInt(v int) *int {
	return &v
}

func ptrBool(v bool) *bool {
	return &v
}
