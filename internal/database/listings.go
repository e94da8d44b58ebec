package database

import (
	"database/sql"
	"fmt"
	"strings"

	"agentpulse/server/internal/models"
)

const listingColumns = `
            id,
            price,
            list_price,
            original_price,
            sold_price,
            sqft,
            living_area,
            lot_size,
            lot_size_acres,
            beds,
            baths,
            garage_spaces,
            garage,
            year_built,
            pool,
            COALESCE(status, '') as status,
            days_on_market,
            cdom,
            COALESCE(list_date, '') as list_date,
            COALESCE(sold_date, '') as sold_date,
            price_per_sqft,
            COALESCE(city, '') as city,
            COALESCE(address, '') as address`

// GetListing returns one listing by id, or ErrNotFound.
func (d *Database) GetListing(id string) (*models.PropertyRecord, error) {
	query := "SELECT " + listingColumns + " FROM listings WHERE id = ?"

	row := d.db.QueryRow(query, id)
	rec, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query listing: %w", err)
	}
	return rec, nil
}

// GetListings returns the listings matching the given ids. Missing ids are simply
// absent from the result; the caller decides whether that matters.
func (d *Database) GetListings(ids []string) ([]*models.PropertyRecord, error) {
	if len(ids) == 0 {
		return []*models.PropertyRecord{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	query := "SELECT " + listingColumns + " FROM listings WHERE id IN (" + placeholders + ")"

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var records []*models.PropertyRecord
	for rows.Next() {
		rec, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetListingsInOrder returns the listings for the given ids in the ids' order,
// skipping ids with no stored listing. CMA documents rely on the comparable order
// the agent arranged.
func (d *Database) GetListingsInOrder(ids []string) ([]*models.PropertyRecord, error) {
	records, err := d.GetListings(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.PropertyRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	ordered := make([]*models.PropertyRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := byID[id]; ok {
			ordered = append(ordered, rec)
		}
	}
	return ordered, nil
}

// ListListings returns stored listings, optionally filtered by city. Status category
// filtering happens in Go through the valuation classifier, never here; free-text
// source statuses cannot be matched reliably in SQL. Results are ordered by id so
// repeated calls page stably.
func (d *Database) ListListings(city string, limit int) ([]*models.PropertyRecord, error) {
	query := "SELECT " + listingColumns + ` FROM listings
        WHERE (? = '' OR LOWER(city) = LOWER(?))
        ORDER BY id
    `
	var args []interface{}
	args = append(args,
		city, city, // For city filter
	)

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var records []*models.PropertyRecord
	for rows.Next() {
		rec, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountListings returns the number of stored listings.
func (d *Database) CountListings() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM listings").Scan(&count)
	return count, err
}

// rowScanner lets one scan routine serve both QueryRow and Query results.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(row rowScanner) (*models.PropertyRecord, error) {
	var rec models.PropertyRecord
	var price, listPrice, originalPrice, soldPrice sql.NullFloat64
	var sqft, livingArea, lotSize, lotSizeAcres sql.NullFloat64
	var beds, garageSpaces, garage, yearBuilt sql.NullInt64
	var baths, daysOnMarket, cdom, pricePerSqft sql.NullFloat64
	var pool sql.NullBool

	err := row.Scan(
		&rec.ID,
		&price,
		&listPrice,
		&originalPrice,
		&soldPrice,
		&sqft,
		&livingArea,
		&lotSize,
		&lotSizeAcres,
		&beds,
		&baths,
		&garageSpaces,
		&garage,
		&yearBuilt,
		&pool,
		&rec.Status,
		&daysOnMarket,
		&cdom,
		&rec.ListDate,
		&rec.SoldDate,
		&pricePerSqft,
		&rec.City,
		&rec.Address,
	)
	if err != nil {
		return nil, err
	}

	// Nullable pricing fields
	if price.Valid {
		rec.Price = &price.Float64
	}
	if listPrice.Valid {
		rec.ListPrice = &listPrice.Float64
	}
	if originalPrice.Valid {
		rec.OriginalPrice = &originalPrice.Float64
	}
	if soldPrice.Valid {
		rec.SoldPrice = &soldPrice.Float64
	}

	// Nullable size fields
	if sqft.Valid {
		rec.Sqft = &sqft.Float64
	}
	if livingArea.Valid {
		rec.LivingArea = &livingArea.Float64
	}
	if lotSize.Valid {
		rec.LotSize = &lotSize.Float64
	}
	if lotSizeAcres.Valid {
		rec.LotSizeAcres = &lotSizeAcres.Float64
	}

	// Nullable physical features
	if beds.Valid {
		b := int(beds.Int64)
		rec.Beds = &b
	}
	if baths.Valid {
		rec.Baths = &baths.Float64
	}
	if garageSpaces.Valid {
		gs := int(garageSpaces.Int64)
		rec.GarageSpaces = &gs
	}
	if garage.Valid {
		g := int(garage.Int64)
		rec.Garage = &g
	}
	if yearBuilt.Valid {
		yb := int(yearBuilt.Int64)
		rec.YearBuilt = &yb
	}
	if pool.Valid {
		rec.Pool = &pool.Bool
	}

	// Nullable market fields
	if daysOnMarket.Valid {
		rec.DaysOnMarket = &daysOnMarket.Float64
	}
	if cdom.Valid {
		rec.CDOM = &cdom.Float64
	}
	if pricePerSqft.Valid {
		rec.PricePerSqft = &pricePerSqft.Float64
	}

	return &rec, nil
}
