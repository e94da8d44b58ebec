package models

import "time"

// CMADocument is one comparative market analysis: a subject listing, the agent's chosen
// comparables, and the per-document pricing configuration. One edit session owns a
// document at a time; the handlers rebuild engine state from these fields per request.
type CMADocument struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	SubjectID     string   `json:"subject_id"`
	ComparableIDs []string `json:"comparable_ids"`

	Rates        AdjustmentRates     `json:"rates"`
	Overrides    AdjustmentOverrides `json:"overrides"`
	StatusFilter string              `json:"status_filter"`

	// Suggested-price state, persisted so an edit survives across requests.
	// PriceState is one of the valuation package's price states; empty means the
	// document has never been priced.
	SuggestedPrice *float64 `json:"suggested_price"`
	PriceState     string   `json:"price_state"`
	OriginalPrice  *float64 `json:"original_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCMARequest is the payload for creating a document. Rates are optional; absent
// rates fall back to the process defaults.
type CreateCMARequest struct {
	Name          string           `json:"name"`
	SubjectID     string           `json:"subject_id" binding:"required"`
	ComparableIDs []string         `json:"comparable_ids"`
	Rates         *AdjustmentRates `json:"rates"`
	StatusFilter  string           `json:"status_filter"`
}

// EditPriceRequest carries a manual suggested-price edit.
type EditPriceRequest struct {
	Value float64 `json:"value" binding:"required"`
}
