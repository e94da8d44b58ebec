package models

// PropertyRecord is one listing as delivered by the upstream feed. Feeds disagree on
// field names and omit fields freely, so every source field is optional; pointers
// distinguish "absent" from a real zero. Canonical values (the price, the living area,
// days on market) are never read from these fields directly; the valuation package's
// resolvers own the alias precedence.
//
// The same struct doubles as the listings table row for the ingestion path, hence the
// gorm column tags.
type PropertyRecord struct {
	ID string `json:"id" gorm:"primaryKey;column:id"`

	// Pricing. A record may carry any subset of these.
	Price         *float64 `json:"price" gorm:"column:price"`
	ListPrice     *float64 `json:"listPrice" gorm:"column:list_price"`
	OriginalPrice *float64 `json:"originalPrice" gorm:"column:original_price"`
	SoldPrice     *float64 `json:"soldPrice" gorm:"column:sold_price"`

	// Size.
	Sqft         *float64 `json:"sqft" gorm:"column:sqft"`
	LivingArea   *float64 `json:"livingArea" gorm:"column:living_area"`
	LotSize      *float64 `json:"lotSize" gorm:"column:lot_size"`
	LotSizeAcres *float64 `json:"lotSizeAcres" gorm:"column:lot_size_acres"`

	// Physical features.
	Beds         *int     `json:"beds" gorm:"column:beds"`
	Baths        *float64 `json:"baths" gorm:"column:baths"`
	GarageSpaces *int     `json:"garageSpaces" gorm:"column:garage_spaces"`
	Garage       *int     `json:"garage" gorm:"column:garage"`
	YearBuilt    *int     `json:"yearBuilt" gorm:"column:year_built"`
	Pool         *bool    `json:"pool" gorm:"column:pool"`

	// Market.
	Status       string   `json:"status" gorm:"column:status"`
	DaysOnMarket *float64 `json:"daysOnMarket" gorm:"column:days_on_market"`
	CDOM         *float64 `json:"cdom" gorm:"column:cdom"`
	ListDate     string   `json:"listDate" gorm:"column:list_date"`
	SoldDate     string   `json:"soldDate" gorm:"column:sold_date"`

	// Precomputed by some feeds; may be stale or invalid and is verified independently.
	PricePerSqft *float64 `json:"pricePerSqft" gorm:"column:price_per_sqft"`

	City    string `json:"city" gorm:"column:city"`
	Address string `json:"address" gorm:"column:address"`
}

// TableName maps the record onto the listings table for the gorm ingestion path.
func (PropertyRecord) TableName() string {
	return "listings"
}
