// Package dataset implements the normalization and aggregation pipeline for
// club ride records: loading heterogeneous CSV/Excel tables into a canonical
// schema, expanding timestamps into period buckets, and computing grouped
// summaries.
package dataset

import "sort"

// Field is a canonical column name recognized by the pipeline.
type Field string

const (
	FieldTimestamp     Field = "timestamp"
	FieldRiderName     Field = "rider_name"
	FieldTeamName      Field = "team_name"
	FieldDistanceKm    Field = "distance_km"
	FieldDurationSec   Field = "duration_sec"
	FieldPowerWatts    Field = "power_watts"
	FieldHeartRateBpm  Field = "heart_rate_bpm"
	FieldElevationGain Field = "elevation_gain_m"

	// FieldSpeedKmh is derived from distance and duration during loading.
	FieldSpeedKmh Field = "speed_kmh"
)

// canonicalFields are the fields the loader maps source columns onto,
// in a fixed order so mapping resolution is deterministic.
var canonicalFields = []Field{
	FieldTimestamp,
	FieldRiderName,
	FieldTeamName,
	FieldDistanceKm,
	FieldDurationSec,
	FieldPowerWatts,
	FieldHeartRateBpm,
	FieldElevationGain,
}

// numericFields are coerced to floats during loading; unparseable cells
// become nulls, never errors.
var numericFields = []Field{
	FieldDistanceKm,
	FieldDurationSec,
	FieldPowerWatts,
	FieldHeartRateBpm,
	FieldElevationGain,
}

// CanonicalFields returns the mappable field vocabulary in fixed order.
func CanonicalFields() []Field {
	out := make([]Field, len(canonicalFields))
	copy(out, canonicalFields)
	return out
}

// Metrics lists the fields that may be aggregated.
func Metrics() []Field {
	return []Field{
		FieldDistanceKm,
		FieldDurationSec,
		FieldPowerWatts,
		FieldHeartRateBpm,
		FieldElevationGain,
		FieldSpeedKmh,
	}
}

// Period is a time-bucket granularity.
type Period string

const (
	PeriodHour    Period = "hour"
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Periods lists all supported granularities.
func Periods() []Period {
	return []Period{PeriodHour, PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear}
}

// ValidPeriod reports whether p is one of the six supported granularities.
func ValidPeriod(p Period) bool {
	switch p {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return true
	}
	return false
}

// AggFunc is an aggregation function applied to a metric within a group.
type AggFunc string

const (
	AggSum  AggFunc = "sum"
	AggMean AggFunc = "mean"
	AggMax  AggFunc = "max"
	AggMin  AggFunc = "min"
)

// ValidAggFunc reports whether fn is a supported aggregation function.
func ValidAggFunc(fn AggFunc) bool {
	switch fn {
	case AggSum, AggMean, AggMax, AggMin:
		return true
	}
	return false
}

// Schema is the capability descriptor of a loaded table: the set of
// canonical fields the source actually provided (plus derived fields).
// It is computed once after loading so callers check capabilities here
// instead of re-probing the frame's columns at every call site.
type Schema map[Field]bool

// Has reports whether the canonical field is available on the table.
func (s Schema) Has(f Field) bool {
	return s[f]
}

// Fields returns the available canonical fields in stable order.
func (s Schema) Fields() []Field {
	out := make([]Field, 0, len(s))
	for f, ok := range s {
		if ok {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
