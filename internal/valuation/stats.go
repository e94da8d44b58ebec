package valuation

import (
	"math"
	"sort"
)

// Observation is one per-comparable data point for a metric. Valid=false is the explicit
// "no value" produced when a resolver finds nothing usable; it mirrors sql.NullFloat64
// so collecting observations from resolvers or scanned rows reads the same way.
type Observation struct {
	Value float64
	Valid bool
}

// Obs builds an Observation straight from a resolver's return values.
func Obs(v float64, ok bool) Observation {
	return Observation{Value: v, Valid: ok}
}

// ValidityRule selects which numeric range counts as a real observation for a metric.
type ValidityRule int

const (
	// RequirePositive is the rule for price and area metrics: zero is not a price.
	RequirePositive ValidityRule = iota
	// RequireNonNegative is the rule for day counts: a same-day sale is zero days.
	RequireNonNegative
)

// MetricRange is the min/max spread of the valid observations.
type MetricRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// StatMetric aggregates one metric across the comparable set. When Count is zero every
// other field is zero; callers must treat that as "no data", never as a market of zero
// dollars.
type StatMetric struct {
	Range   MetricRange `json:"range"`
	Average float64     `json:"average"`
	Median  float64     `json:"median"`
	Count   int         `json:"count"`
}

// HasData reports whether the metric was computed from at least one valid observation.
func (m StatMetric) HasData() bool {
	return m.Count > 0
}

// ComputeMetric filters the observations by the validity rule and reduces the survivors
// to range, arithmetic mean and median. The reduction sorts its own copy, so the result
// is identical for any permutation of the same input and the caller's slice is left
// alone.
func ComputeMetric(obs []Observation, rule ValidityRule) StatMetric {
	values := make([]float64, 0, len(obs))
	for _, o := range obs {
		if !o.Valid || math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			continue
		}
		if rule == RequirePositive && o.Value <= 0 {
			continue
		}
		if rule == RequireNonNegative && o.Value < 0 {
			continue
		}
		values = append(values, o.Value)
	}

	if len(values) == 0 {
		return StatMetric{}
	}

	sort.Float64s(values)

	var sum float64
	for _, v := range values {
		sum += v
	}

	n := len(values)
	median := values[n/2]
	if n%2 == 0 {
		median = (values[n/2-1] + values[n/2]) / 2
	}

	return StatMetric{
		Range:   MetricRange{Min: values[0], Max: values[n-1]},
		Average: sum / float64(n),
		Median:  median,
		Count:   n,
	}
}
