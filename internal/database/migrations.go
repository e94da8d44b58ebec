package database

import "fmt"

func (d *Database) RunMigrations() error {
	// Listings land here from the ingestion queue; every source field is nullable
	// because feeds omit fields freely
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			price REAL,
			list_price REAL,
			original_price REAL,
			sold_price REAL,
			sqft REAL,
			living_area REAL,
			lot_size REAL,
			lot_size_acres REAL,
			beds INTEGER,
			baths REAL,
			garage_spaces INTEGER,
			garage INTEGER,
			year_built INTEGER,
			pool BOOLEAN,
			status TEXT,
			days_on_market REAL,
			cdom REAL,
			list_date TEXT,
			sold_date TEXT,
			price_per_sqft REAL,
			city TEXT,
			address TEXT
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create listings table: %w", err)
	}

	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS cma_documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			comparable_ids TEXT NOT NULL DEFAULT '[]',
			rates TEXT NOT NULL DEFAULT '{}',
			overrides TEXT NOT NULL DEFAULT '{}',
			status_filter TEXT NOT NULL DEFAULT 'all',
			suggested_price REAL,
			price_state TEXT NOT NULL DEFAULT 'computed',
			original_price REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create cma_documents table: %w", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_listings_city
		ON listings(city);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cma_documents_subject
		ON cma_documents(subject_id);
	`)
	if err != nil {
		return err
	}

	return nil
}
