package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"agentpulse/server/internal/models"
)

const cmaColumns = `
            id,
            name,
            subject_id,
            comparable_ids,
            rates,
            overrides,
            status_filter,
            suggested_price,
            price_state,
            original_price,
            COALESCE(created_at, CURRENT_TIMESTAMP) as created_at,
            COALESCE(updated_at, CURRENT_TIMESTAMP) as updated_at`

// CreateCMA stores a new document. The caller assigns the id and the price fields.
func (d *Database) CreateCMA(doc *models.CMADocument) error {
	comparableIDs, rates, overrides, err := marshalCMAFields(doc)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	_, err = d.db.Exec(`
		INSERT INTO cma_documents
		(id, name, subject_id, comparable_ids, rates, overrides, status_filter,
		 suggested_price, price_state, original_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		doc.ID,
		doc.Name,
		doc.SubjectID,
		comparableIDs,
		rates,
		overrides,
		doc.StatusFilter,
		doc.SuggestedPrice,
		doc.PriceState,
		doc.OriginalPrice,
		doc.CreatedAt.Format(time.RFC3339Nano),
		doc.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cma document: %w", err)
	}
	return nil
}

// GetCMA returns one document by id, or ErrNotFound.
func (d *Database) GetCMA(id string) (*models.CMADocument, error) {
	query := "SELECT " + cmaColumns + " FROM cma_documents WHERE id = ?"

	doc, err := scanCMA(d.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cma document: %w", err)
	}
	return doc, nil
}

// ListCMAs returns every stored document, most recently updated first.
func (d *Database) ListCMAs() ([]*models.CMADocument, error) {
	query := "SELECT " + cmaColumns + " FROM cma_documents ORDER BY updated_at DESC"

	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cma documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.CMADocument
	for rows.Next() {
		doc, err := scanCMA(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cma document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateCMA rewrites every mutable field of a document and bumps updated_at.
func (d *Database) UpdateCMA(doc *models.CMADocument) error {
	comparableIDs, rates, overrides, err := marshalCMAFields(doc)
	if err != nil {
		return err
	}

	doc.UpdatedAt = time.Now().UTC()

	result, err := d.db.Exec(`
		UPDATE cma_documents
		SET name = ?,
		    subject_id = ?,
		    comparable_ids = ?,
		    rates = ?,
		    overrides = ?,
		    status_filter = ?,
		    suggested_price = ?,
		    price_state = ?,
		    original_price = ?,
		    updated_at = ?
		WHERE id = ?
	`,
		doc.Name,
		doc.SubjectID,
		comparableIDs,
		rates,
		overrides,
		doc.StatusFilter,
		doc.SuggestedPrice,
		doc.PriceState,
		doc.OriginalPrice,
		doc.UpdatedAt.Format(time.RFC3339Nano),
		doc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cma document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SavePriceState persists only the suggested-price fields of a document. The price
// endpoints hit this on every edit, undo and recalculation.
func (d *Database) SavePriceState(id string, suggested *float64, state string, original *float64) error {
	result, err := d.db.Exec(`
		UPDATE cma_documents
		SET suggested_price = ?,
		    price_state = ?,
		    original_price = ?,
		    updated_at = ?
		WHERE id = ?
	`,
		suggested,
		state,
		original,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to save price state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCMA removes a document, or returns ErrNotFound.
func (d *Database) DeleteCMA(id string) error {
	result, err := d.db.Exec("DELETE FROM cma_documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete cma document: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalCMAFields(doc *models.CMADocument) (string, string, string, error) {
	ids := doc.ComparableIDs
	if ids == nil {
		ids = []string{}
	}
	comparableIDs, err := json.Marshal(ids)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal comparable ids: %w", err)
	}

	rates, err := json.Marshal(doc.Rates)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal rates: %w", err)
	}

	ov := doc.Overrides
	if ov == nil {
		ov = models.AdjustmentOverrides{}
	}
	overrides, err := json.Marshal(ov)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to marshal overrides: %w", err)
	}

	return string(comparableIDs), string(rates), string(overrides), nil
}

func scanCMA(row rowScanner) (*models.CMADocument, error) {
	var doc models.CMADocument
	var comparableIDs, rates, overrides string
	var suggestedPrice, originalPrice sql.NullFloat64
	var createdAt, updatedAt string

	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.SubjectID,
		&comparableIDs,
		&rates,
		&overrides,
		&doc.StatusFilter,
		&suggestedPrice,
		&doc.PriceState,
		&originalPrice,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(comparableIDs), &doc.ComparableIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal comparable ids: %w", err)
	}
	if err := json.Unmarshal([]byte(rates), &doc.Rates); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rates: %w", err)
	}
	if err := json.Unmarshal([]byte(overrides), &doc.Overrides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal overrides: %w", err)
	}

	if suggestedPrice.Valid {
		doc.SuggestedPrice = &suggestedPrice.Float64
	}
	if originalPrice.Valid {
		doc.OriginalPrice = &originalPrice.Float64
	}

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		doc.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		doc.UpdatedAt = t
	}

	return &doc, nil
}
