package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"agentpulse/server/internal/models"
)

// ORM is the write path for ingested listings. It shares the Database's connection
// pool so the raw read path and the batch writer never fight over the sqlite file.
type ORM struct {
	db *gorm.DB
}

// NewORM wraps an open Database in a gorm session for batch upserts.
func NewORM(d *Database) (*ORM, error) {
	db, err := gorm.Open(&sqlite.Dialector{Conn: d.GetDB()}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm session: %w", err)
	}
	return &ORM{db: db}, nil
}

// SaveBatch upserts one ingestion batch inside a single transaction. A record that
// already exists is fully replaced; feeds resend listings on every change.
func (o *ORM) SaveBatch(batch []*models.PropertyRecord) error {
	if len(batch) == 0 {
		return nil
	}
	return o.db.Transaction(func(tx *gorm.DB) error {
		if err := UpsertListings(tx, batch); err != nil {
			return fmt.Errorf("failed to upsert listings batch: %w", err)
		}
		return nil
	})
}

// UpsertListings writes a batch of listings, replacing rows that share an id.
func UpsertListings(tx *gorm.DB, batch []*models.PropertyRecord) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&batch).Error
}
