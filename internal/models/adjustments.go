package models

// AdjustmentRates holds the per-unit dollar values used to price feature differences
// between a comparable and the subject. Process-wide defaults come from config and are
// editable per CMA document; the engine treats whatever rates it is handed as
// authoritative (validation is the host's job before persisting).
type AdjustmentRates struct {
	SqftPerUnit      float64 `json:"sqft_per_unit"`
	BedroomValue     float64 `json:"bedroom_value"`
	BathroomValue    float64 `json:"bathroom_value"`
	PoolValue        float64 `json:"pool_value"`
	GaragePerSpace   float64 `json:"garage_per_space"`
	YearBuiltPerYear float64 `json:"year_built_per_year"`
	LotSizePerSqft   float64 `json:"lot_size_per_sqft"`
}

// CustomAdjustment is an arbitrary named line item an agent attaches to one comparable
// ("new roof", "backs to highway", ...). Value follows the same sign convention as
// computed adjustments.
type CustomAdjustment struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ComparableOverrides replaces computed per-feature adjustments for a single comparable.
// A nil field means "use the computed value"; a non-nil field wins verbatim, sign and all.
type ComparableOverrides struct {
	Sqft      *float64 `json:"sqft"`
	Beds      *float64 `json:"beds"`
	Baths     *float64 `json:"baths"`
	Garage    *float64 `json:"garage"`
	Pool      *float64 `json:"pool"`
	YearBuilt *float64 `json:"year_built"`
	LotSize   *float64 `json:"lot_size"`

	Custom []CustomAdjustment `json:"custom"`
}

// AdjustmentOverrides maps comparable ids to their overrides. Absent id means no
// overrides for that comparable.
type AdjustmentOverrides map[string]*ComparableOverrides
