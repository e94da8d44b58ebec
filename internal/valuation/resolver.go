package valuation

import (
	"math"
	"time"

	"agentpulse/server/internal/models"
)

// Feeds write dates in a handful of formats; anything else is treated as absent.
var dateLayouts = []string{"2006-01-02", time.RFC3339, "01/02/2006"}

const sqftPerAcre = 43560.0

// ResolvePrice returns the most meaningful current price of a record. The precedence is
// fixed for the whole application: sold price, then list price, then current asking
// price, then original price. The first strictly positive, finite candidate wins.
func ResolvePrice(rec *models.PropertyRecord) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	for _, candidate := range []*float64{rec.SoldPrice, rec.ListPrice, rec.Price, rec.OriginalPrice} {
		if v, ok := validPositive(candidate); ok {
			return v, true
		}
	}
	return 0, false
}

// ResolveLivingArea returns the living area in square feet, trying sqft first and the
// livingArea alias second.
func ResolveLivingArea(rec *models.PropertyRecord) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	for _, candidate := range []*float64{rec.Sqft, rec.LivingArea} {
		if v, ok := validPositive(candidate); ok {
			return v, true
		}
	}
	return 0, false
}

// ResolveLotSize returns the lot size in square feet. Feeds carry either a square-foot
// figure or acres; acres are converted so that lot adjustments work in one unit.
func ResolveLotSize(rec *models.PropertyRecord) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	if v, ok := validPositive(rec.LotSize); ok {
		return v, true
	}
	if v, ok := validPositive(rec.LotSizeAcres); ok {
		return v * sqftPerAcre, true
	}
	return 0, false
}

// ResolveGarageSpaces returns the garage capacity, preferring the explicit
// garageSpaces field over the bare garage count some feeds send.
func ResolveGarageSpaces(rec *models.PropertyRecord) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	for _, candidate := range []*int{rec.GarageSpaces, rec.Garage} {
		if candidate != nil && *candidate >= 0 {
			return float64(*candidate), true
		}
	}
	return 0, false
}

// ResolveDaysOnMarket returns days on market, valid when non-negative. Records without
// an explicit field fall back to the cumulative count, then to the listing/sale date
// difference when both dates parse.
func ResolveDaysOnMarket(rec *models.PropertyRecord) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	for _, candidate := range []*float64{rec.DaysOnMarket, rec.CDOM} {
		if v, ok := validNonNegative(candidate); ok {
			return v, true
		}
	}
	listed, lok := parseDate(rec.ListDate)
	sold, sok := parseDate(rec.SoldDate)
	if lok && sok && !sold.Before(listed) {
		return math.Floor(sold.Sub(listed).Hours() / 24), true
	}
	return 0, false
}

// ResolvePricePerSqft returns the price per square foot. A valid precomputed value from
// the feed is trusted; otherwise it is derived from the resolved price and area. The
// derived path cannot divide by zero because a resolved area is strictly positive.
func ResolvePricePerSqft(rec *models.PropertyRecord) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	if v, ok := validPositive(rec.PricePerSqft); ok {
		return v, true
	}
	price, pok := ResolvePrice(rec)
	area, aok := ResolveLivingArea(rec)
	if pok && aok {
		return price / area, true
	}
	return 0, false
}

// validPositive reports whether the field is present, finite and strictly positive.
func validPositive(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// validNonNegative reports whether the field is present, finite and zero or greater.
func validNonNegative(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return 0, false
	}
	return *v, true
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
