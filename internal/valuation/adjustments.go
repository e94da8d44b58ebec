package valuation

import (
	"agentpulse/server/internal/models"
)

// Feature identifies one adjustable property attribute.
type Feature string

const (
	FeatureSqft      Feature = "sqft"
	FeatureBeds      Feature = "beds"
	FeatureBaths     Feature = "baths"
	FeatureGarage    Feature = "garage"
	FeaturePool      Feature = "pool"
	FeatureYearBuilt Feature = "yearBuilt"
	FeatureLotSize   Feature = "lotSize"
)

// Features lists every adjustable feature in the order breakdowns are reported.
var Features = []Feature{
	FeatureSqft,
	FeatureBeds,
	FeatureBaths,
	FeatureGarage,
	FeaturePool,
	FeatureYearBuilt,
	FeatureLotSize,
}

// FeatureKind selects how a comparison indicator is computed for a feature.
type FeatureKind int

const (
	// KindCount compares whole units (beds, baths, garage spaces).
	KindCount FeatureKind = iota
	// KindContinuous compares by percentage difference (sqft, lot size).
	KindContinuous
)

// Direction is a neutral up/down marker; mapping a direction to a color or a
// favorable/unfavorable reading is the presentation layer's business.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Indicator is the qualitative comparison of one comparable feature against the
// subject. Magnitude is whole units for count features and absolute percent for
// continuous ones.
type Indicator struct {
	Direction Direction `json:"direction"`
	Magnitude float64   `json:"magnitude"`
}

// Percentage differences below this are display noise, not a real size difference.
const indicatorNoiseFloorPct = 0.5

// ComputeComparisonIndicator compares a comparable's feature value against the
// subject's. It returns nil when there is nothing meaningful to show: a missing value
// on either side, a zero subject (no basis for comparison), a zero count difference,
// or a continuous difference under the noise floor.
func ComputeComparisonIndicator(comp, subject Observation, kind FeatureKind) *Indicator {
	if !comp.Valid || !subject.Valid || subject.Value == 0 {
		return nil
	}

	if kind == KindCount {
		diff := int(comp.Value - subject.Value)
		if diff == 0 {
			return nil
		}
		ind := &Indicator{Direction: DirectionUp, Magnitude: float64(diff)}
		if diff < 0 {
			ind.Direction = DirectionDown
			ind.Magnitude = float64(-diff)
		}
		return ind
	}

	pct := (comp.Value - subject.Value) / subject.Value * 100
	if pct < indicatorNoiseFloorPct && pct > -indicatorNoiseFloorPct {
		return nil
	}
	if pct < 0 {
		return &Indicator{Direction: DirectionDown, Magnitude: -pct}
	}
	return &Indicator{Direction: DirectionUp, Magnitude: pct}
}

// ComputeFeatureAdjustment prices the difference between the subject and a comparable
// on one feature.
//
// Sign convention, fixed application-wide: the adjustment is the dollar amount added to
// the comparable's price to make it equivalent to the subject,
//
//	adjustment = (subject value − comparable value) × rate
//
// so a comparable 200 sqft larger than the subject at $50/sqft carries a −$10,000
// adjustment (its price is walked down to the subject's size). A non-nil override wins
// verbatim over any computed value. Missing feature data on either side yields no
// value; the pool flag is a presence bit, so an absent flag means "no pool", not "no
// data".
func ComputeFeatureAdjustment(subject, comp *models.PropertyRecord, feature Feature, rates models.AdjustmentRates, ov *models.ComparableOverrides) (float64, bool) {
	if o := overrideFor(ov, feature); o != nil {
		return *o, true
	}

	subjectVal, sok := featureValue(subject, feature)
	compVal, cok := featureValue(comp, feature)
	if !sok || !cok {
		return 0, false
	}

	return (subjectVal - compVal) * rateFor(rates, feature), true
}

// FeatureAdjustment is one line of a comparable's adjustment breakdown.
type FeatureAdjustment struct {
	Feature  Feature `json:"feature"`
	Amount   float64 `json:"amount"`
	Override bool    `json:"override"`
}

// ComparableAdjustments is the full breakdown for one comparable: computed or
// overridden feature lines, the agent's custom line items, and their sum. The total
// annotates the comparable for display and does not feed the suggested-price
// derivation.
type ComparableAdjustments struct {
	Features []FeatureAdjustment       `json:"features"`
	Custom   []models.CustomAdjustment `json:"custom"`
	Total    float64                   `json:"total"`
}

// FeatureAdjustmentsFor computes the adjustment breakdown of one comparable against the
// subject. Features with no value on either side are left out of the breakdown rather
// than reported as zero.
func FeatureAdjustmentsFor(subject, comp *models.PropertyRecord, rates models.AdjustmentRates, overrides models.AdjustmentOverrides) ComparableAdjustments {
	var ov *models.ComparableOverrides
	if comp != nil {
		ov = overrides[comp.ID]
	}

	breakdown := ComparableAdjustments{
		Features: make([]FeatureAdjustment, 0, len(Features)),
		Custom:   listCustom(ov),
	}

	for _, feature := range Features {
		amount, ok := ComputeFeatureAdjustment(subject, comp, feature, rates, ov)
		if !ok {
			continue
		}
		breakdown.Features = append(breakdown.Features, FeatureAdjustment{
			Feature:  feature,
			Amount:   amount,
			Override: overrideFor(ov, feature) != nil,
		})
		breakdown.Total += amount
	}

	for _, custom := range breakdown.Custom {
		breakdown.Total += custom.Value
	}

	return breakdown
}

// ListCustomAdjustments returns the custom line items recorded for a comparable, or an
// empty slice when there are none.
func ListCustomAdjustments(compID string, overrides models.AdjustmentOverrides) []models.CustomAdjustment {
	return listCustom(overrides[compID])
}

func listCustom(ov *models.ComparableOverrides) []models.CustomAdjustment {
	if ov == nil || len(ov.Custom) == 0 {
		return []models.CustomAdjustment{}
	}
	out := make([]models.CustomAdjustment, len(ov.Custom))
	copy(out, ov.Custom)
	return out
}

// featureValue extracts the numeric value of a feature from a record, going through
// the resolvers for aliased fields.
func featureValue(rec *models.PropertyRecord, feature Feature) (float64, bool) {
	if rec == nil {
		return 0, false
	}
	switch feature {
	case FeatureSqft:
		return ResolveLivingArea(rec)
	case FeatureBeds:
		if rec.Beds != nil && *rec.Beds >= 0 {
			return float64(*rec.Beds), true
		}
		return 0, false
	case FeatureBaths:
		return validNonNegative(rec.Baths)
	case FeatureGarage:
		return ResolveGarageSpaces(rec)
	case FeaturePool:
		if rec.Pool != nil && *rec.Pool {
			return 1, true
		}
		return 0, true
	case FeatureYearBuilt:
		if rec.YearBuilt != nil && *rec.YearBuilt > 0 {
			return float64(*rec.YearBuilt), true
		}
		return 0, false
	case FeatureLotSize:
		return ResolveLotSize(rec)
	default:
		return 0, false
	}
}

func rateFor(rates models.AdjustmentRates, feature Feature) float64 {
	switch feature {
	case FeatureSqft:
		return rates.SqftPerUnit
	case FeatureBeds:
		return rates.BedroomValue
	case FeatureBaths:
		return rates.BathroomValue
	case FeatureGarage:
		return rates.GaragePerSpace
	case FeaturePool:
		return rates.PoolValue
	case FeatureYearBuilt:
		return rates.YearBuiltPerYear
	case FeatureLotSize:
		return rates.LotSizePerSqft
	default:
		return 0
	}
}

func overrideFor(ov *models.ComparableOverrides, feature Feature) *float64 {
	if ov == nil {
		return nil
	}
	switch feature {
	case FeatureSqft:
		return ov.Sqft
	case FeatureBeds:
		return ov.Beds
	case FeatureBaths:
		return ov.Baths
	case FeatureGarage:
		return ov.Garage
	case FeaturePool:
		return ov.Pool
	case FeatureYearBuilt:
		return ov.YearBuilt
	case FeatureLotSize:
		return ov.LotSize
	default:
		return nil
	}
}
