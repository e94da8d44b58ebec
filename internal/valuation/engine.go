package valuation

import (
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"agentpulse/server/internal/models"
)

// Engine orchestrates field resolution, statistics, adjustments and price
// derivation into the summary a CMA presentation needs. It is stateless between
// calls; the only mutable valuation state lives in PriceSession.
type Engine struct {
	logger       *logrus.Logger
	defaultRates models.AdjustmentRates
}

// NewEngine creates a valuation engine. The default rates apply whenever a call
// does not carry document-specific rates.
func NewEngine(defaultRates models.AdjustmentRates, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Engine{
		logger:       logger,
		defaultRates: defaultRates,
	}
}

// Input is everything one summarization call needs, supplied as plain values.
type Input struct {
	Subject       *models.PropertyRecord
	Comparables   []*models.PropertyRecord
	Rates         *models.AdjustmentRates    // nil means engine defaults
	Overrides     models.AdjustmentOverrides // keyed by comparable id
	StatusFilter  StatusCategory             // empty means all
	ProvidedPrice *float64                   // authoritative upstream price, wins verbatim
}

// SummaryStats holds the per-metric statistics over the filtered comparable set.
// All three metrics are computed over the same set so they stay consistent with
// each other for a given status filter.
type SummaryStats struct {
	Price        StatMetric `json:"price"`
	PricePerSqft StatMetric `json:"pricePerSqft"`
	DaysOnMarket StatMetric `json:"daysOnMarket"`
}

// ComputeSummaryStats computes the three summary metrics over a listing set,
// resolving every field through the canonical resolvers. Days on market admits
// zero (listed and sold the same day); prices must be positive.
func ComputeSummaryStats(records []*models.PropertyRecord) SummaryStats {
	priceObs := make([]Observation, 0, len(records))
	ppsfObs := make([]Observation, 0, len(records))
	domObs := make([]Observation, 0, len(records))
	for _, rec := range records {
		priceObs = append(priceObs, Obs(ResolvePrice(rec)))
		ppsfObs = append(ppsfObs, Obs(ResolvePricePerSqft(rec)))
		domObs = append(domObs, Obs(ResolveDaysOnMarket(rec)))
	}

	return SummaryStats{
		Price:        ComputeMetric(priceObs, RequirePositive),
		PricePerSqft: ComputeMetric(ppsfObs, RequirePositive),
		DaysOnMarket: ComputeMetric(domObs, RequireNonNegative),
	}
}

// MarketDelta compares the subject against the comparable-set average for one
// metric. Purely informational, independent of the adjustment model.
type MarketDelta struct {
	Percent  float64 `json:"percent"`
	Absolute float64 `json:"absolute"`
}

// MarketDeltas carries the subject-vs-market comparison for the metrics where it
// is meaningful. Nil means there was no basis for comparison.
type MarketDeltas struct {
	Price        *MarketDelta `json:"price"`
	PricePerSqft *MarketDelta `json:"pricePerSqft"`
}

// ComparableSummary is the engine's output for one comparable: canonical resolved
// fields, qualitative indicators against the subject, and the adjustment
// breakdown. AdjustedPrice is the resolved price plus the adjustment total and is
// informational; it does not feed the suggested price.
type ComparableSummary struct {
	ID            string                 `json:"id"`
	Address       string                 `json:"address,omitempty"`
	Status        StatusCategory         `json:"status"`
	Price         *float64               `json:"price"`
	Sqft          *float64               `json:"sqft"`
	PricePerSqft  *float64               `json:"pricePerSqft"`
	DaysOnMarket  *float64               `json:"daysOnMarket"`
	Indicators    map[Feature]*Indicator `json:"indicators"`
	Adjustments   ComparableAdjustments  `json:"adjustments"`
	AdjustedPrice *float64               `json:"adjustedPrice"`
}

// Summary is the full output of one summarization call.
type Summary struct {
	SubjectID      string              `json:"subjectId,omitempty"`
	StatusFilter   StatusCategory      `json:"statusFilter"`
	Comparables    []ComparableSummary `json:"comparables"`
	Stats          SummaryStats        `json:"stats"`
	MarketDeltas   MarketDeltas        `json:"marketDeltas"`
	SuggestedPrice *float64            `json:"suggestedPrice"`
}

// Summarize produces the complete valuation picture for one subject and its
// comparable set: per-metric statistics, per-comparable summaries, market deltas
// and the computed suggested price, all over the status-filtered set.
func (e *Engine) Summarize(in Input) Summary {
	rates := e.defaultRates
	if in.Rates != nil {
		rates = *in.Rates
	}

	filter := in.StatusFilter
	if filter == "" {
		filter = StatusAll
	}
	comps := FilterByStatus(in.Comparables, filter)

	summary := Summary{
		StatusFilter: filter,
		Comparables:  make([]ComparableSummary, 0, len(comps)),
		Stats:        ComputeSummaryStats(comps),
	}
	if in.Subject != nil {
		summary.SubjectID = in.Subject.ID
	}

	for _, comp := range comps {
		if comp == nil {
			continue
		}
		summary.Comparables = append(summary.Comparables, summarizeComparable(in.Subject, comp, rates, in.Overrides))
	}

	summary.MarketDeltas = MarketDeltas{
		Price:        marketDelta(Obs(ResolvePrice(in.Subject)), summary.Stats.Price),
		PricePerSqft: marketDelta(Obs(ResolvePricePerSqft(in.Subject)), summary.Stats.PricePerSqft),
	}

	value, ok, path := derivePrice(in.Subject, comps, in.ProvidedPrice)
	if ok {
		summary.SuggestedPrice = &value
	}

	e.logger.WithFields(logrus.Fields{
		"subject_id":  summary.SubjectID,
		"comparables": len(summary.Comparables),
		"filter":      string(filter),
		"price_path":  string(path),
	}).Debug("Summarized comparable set")

	return summary
}

// DeriveComputedPrice derives the suggested list price for a subject from its
// comparable set:
//
//  1. a provided authoritative price wins unmodified;
//  2. no comparables means no value;
//  3. with a valid subject living area and at least one closed comparable
//     carrying a valid price per sqft, the price is the mean closed price per
//     sqft times the subject's area, rounded to the nearest integer;
//  4. otherwise the mean of all comparables' resolved prices, rounded;
//  5. with no valid comparable prices at all, no value.
func DeriveComputedPrice(subject *models.PropertyRecord, comps []*models.PropertyRecord, provided *float64) (float64, bool) {
	value, ok, _ := derivePrice(subject, comps, provided)
	return value, ok
}

// pricePath names which derivation branch produced a suggested price, for logging.
type pricePath string

const (
	pathProvided   pricePath = "provided"
	pathClosedArea pricePath = "closedPricePerSqft"
	pathMeanPrice  pricePath = "meanPrice"
	pathNone       pricePath = "none"
)

func derivePrice(subject *models.PropertyRecord, comps []*models.PropertyRecord, provided *float64) (float64, bool, pricePath) {
	if provided != nil {
		return *provided, true, pathProvided
	}
	if len(comps) == 0 {
		return 0, false, pathNone
	}

	if area, ok := ResolveLivingArea(subject); ok {
		var closedPpsf []float64
		for _, comp := range comps {
			if comp == nil || ClassifyStatus(comp.Status) != StatusClosed {
				continue
			}
			if ppsf, ok := ResolvePricePerSqft(comp); ok {
				closedPpsf = append(closedPpsf, ppsf)
			}
		}
		if len(closedPpsf) > 0 {
			return math.Round(mean(closedPpsf) * area), true, pathClosedArea
		}
	}

	var prices []float64
	for _, comp := range comps {
		if comp == nil {
			continue
		}
		if price, ok := ResolvePrice(comp); ok {
			prices = append(prices, price)
		}
	}
	if len(prices) == 0 {
		return 0, false, pathNone
	}
	return math.Round(mean(prices)), true, pathMeanPrice
}

func summarizeComparable(subject, comp *models.PropertyRecord, rates models.AdjustmentRates, overrides models.AdjustmentOverrides) ComparableSummary {
	cs := ComparableSummary{
		ID:           comp.ID,
		Address:      comp.Address,
		Status:       ClassifyStatus(comp.Status),
		Price:        obsPtr(ResolvePrice(comp)),
		Sqft:         obsPtr(ResolveLivingArea(comp)),
		PricePerSqft: obsPtr(ResolvePricePerSqft(comp)),
		DaysOnMarket: obsPtr(ResolveDaysOnMarket(comp)),
		Indicators:   make(map[Feature]*Indicator),
		Adjustments:  FeatureAdjustmentsFor(subject, comp, rates, overrides),
	}

	for _, feature := range Features {
		kind, comparable := indicatorKind(feature)
		if !comparable {
			continue
		}
		ind := ComputeComparisonIndicator(
			Obs(featureValue(comp, feature)),
			Obs(featureValue(subject, feature)),
			kind,
		)
		if ind != nil {
			cs.Indicators[feature] = ind
		}
	}

	if cs.Price != nil {
		adjusted := *cs.Price + cs.Adjustments.Total
		cs.AdjustedPrice = &adjusted
	}

	return cs
}

// indicatorKind maps a feature to its comparison mode. Pool and year built carry
// dollar adjustments but no up/down indicator.
func indicatorKind(feature Feature) (FeatureKind, bool) {
	switch feature {
	case FeatureSqft, FeatureLotSize:
		return KindContinuous, true
	case FeatureBeds, FeatureBaths, FeatureGarage:
		return KindCount, true
	default:
		return 0, false
	}
}

func marketDelta(subject Observation, metric StatMetric) *MarketDelta {
	if !subject.Valid || !metric.HasData() || metric.Average == 0 {
		return nil
	}
	return &MarketDelta{
		Percent:  (subject.Value - metric.Average) / metric.Average * 100,
		Absolute: subject.Value - metric.Average,
	}
}

func obsPtr(value float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &value
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
