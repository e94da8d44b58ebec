package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentpulse/server/internal/models"
)

// storeListings writes records through the same gorm path the ingestion workers use,
// so these tests also guard the column mapping between the write and read layers.
func storeListings(t *testing.T, db *Database, records ...*models.PropertyRecord) {
	t.Helper()

	orm, err := NewORM(db)
	require.NoError(t, err)
	require.NoError(t, orm.SaveBatch(records))
}

func TestGetListing_RoundTrip(t *testing.T) {
	db := setupTestDatabase(t)

	want := &models.PropertyRecord{
		ID:            "mls-100",
		Price:         ptr(450000),
		ListPrice:     ptr(455000),
		OriginalPrice: ptr(460000),
		SoldPrice:     ptr(448000),
		Sqft:          ptr(2100),
		LivingArea:    ptr(2050),
		LotSize:       ptr(7500),
		LotSizeAcres:  ptr(0.17),
		Beds:          ptrInt(4),
		Baths:         ptr(2.5),
		GarageSpaces:  ptrInt(2),
		Garage:        ptrInt(2),
		YearBuilt:     ptrInt(1998),
		Pool:          ptrBool(true),
		Status:        "Closed",
		DaysOnMarket:  ptr(34),
		CDOM:          ptr(41),
		ListDate:      "2024-03-01",
		SoldDate:      "2024-04-04",
		PricePerSqft:  ptr(213.33),
		City:          "Austin",
		Address:       "100 Main St",
	}
	storeListings(t, db, want)

	got, err := db.GetListing("mls-100")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetListing_SparseRecord(t *testing.T) {
	db := setupTestDatabase(t)

	// Feeds routinely send little more than an id and a status
	storeListings(t, db, &models.PropertyRecord{ID: "mls-101", Status: "Active"})

	got, err := db.GetListing("mls-101")
	require.NoError(t, err)
	assert.Equal(t, "Active", got.Status)
	assert.Nil(t, got.Price)
	assert.Nil(t, got.SoldPrice)
	assert.Nil(t, got.Sqft)
	assert.Nil(t, got.Beds)
	assert.Nil(t, got.Baths)
	assert.Nil(t, got.Pool)
	assert.Nil(t, got.DaysOnMarket)
	assert.Empty(t, got.City)
	assert.Empty(t, got.SoldDate)
}

func TestGetListing_NotFound(t *testing.T) {
	db := setupTestDatabase(t)

	_, err := db.GetListing("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetListings_SkipsMissingIDs(t *testing.T) {
	db := setupTestDatabase(t)
	storeListings(t, db,
		&models.PropertyRecord{ID: "mls-1", Status: "Active"},
		&models.PropertyRecord{ID: "mls-2", Status: "Closed"},
		&models.PropertyRecord{ID: "mls-3", Status: "Pending"},
	)

	records, err := db.GetListings([]string{"mls-1", "nope", "mls-3"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.ElementsMatch(t, []string{"mls-1", "mls-3"}, []string{records[0].ID, records[1].ID})

	records, err = db.GetListings(nil)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestGetListingsInOrder(t *testing.T) {
	db := setupTestDatabase(t)
	storeListings(t, db,
		&models.PropertyRecord{ID: "mls-1", Status: "Active"},
		&models.PropertyRecord{ID: "mls-2", Status: "Closed"},
		&models.PropertyRecord{ID: "mls-3", Status: "Pending"},
	)

	// The caller's order survives, not the table's
	records, err := db.GetListingsInOrder([]string{"mls-3", "nope", "mls-1"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "mls-3", records[0].ID)
	assert.Equal(t, "mls-1", records[1].ID)
}

func TestListListings(t *testing.T) {
	db := setupTestDatabase(t)
	storeListings(t, db,
		&models.PropertyRecord{ID: "mls-1", City: "Austin", Status: "Active"},
		&models.PropertyRecord{ID: "mls-2", City: "Dallas", Status: "Active"},
		&models.PropertyRecord{ID: "mls-3", City: "Austin", Status: "Closed"},
	)

	records, err := db.ListListings("", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "mls-1", records[0].ID)
	assert.Equal(t, "mls-2", records[1].ID)
	assert.Equal(t, "mls-3", records[2].ID)

	// City matching ignores case
	records, err = db.ListListings("austin", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "mls-1", records[0].ID)
	assert.Equal(t, "mls-3", records[1].ID)

	records, err = db.ListListings("", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = db.ListListings("Chicago", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCountListings(t *testing.T) {
	db := setupTestDatabase(t)

	count, err := db.CountListings()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	storeListings(t, db,
		&models.PropertyRecord{ID: "mls-1", Status: "Active"},
		&models.PropertyRecord{ID: "mls-2", Status: "Closed"},
	)

	count, err = db.CountListings()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// Test helpers for pointer fields

func ptr(v float64) *float64 {
	return &v
}

func ptrInt(v int) *int {
	return &v
}

func ptrBool(v bool) *bool {
	return &v
}
