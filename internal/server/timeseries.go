package server

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/dataset"
)

type timeSeriesResponse struct {
	Labels    []string  `json:"labels"`
	Distance  []float64 `json:"distance"`
	Power     []float64 `json:"power"`
	Teams     []string  `json:"teams"`
	TeamPower []float64 `json:"teamPower"`
}

// TimeSeries serves chart data for one bucket granularity: per-bucket
// distance totals and power averages, plus per-team power averages across
// the whole dataset. Unknown period values degrade to monthly so the
// dashboard never blanks on a bad selector.
func (s *Server) TimeSeries(w http.ResponseWriter, r *http.Request) {
	period := dataset.Period(chi.URLParam(r, "period"))
	if !dataset.ValidPeriod(period) {
		period = dataset.PeriodMonth
	}

	t, err := s.current()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	// speed_kmh is always on the table, so this fixes the bucket order even
	// when the charted metrics are absent.
	base, err := dataset.Aggregate(t, period, nil, dataset.FieldSpeedKmh, dataset.AggSum)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	buckets := make([]string, len(base.Rows))
	labels := make([]string, len(base.Rows))
	for i, row := range base.Rows {
		buckets[i] = row.Bucket
		labels[i] = dataset.FormatBucket(row.Bucket, period)
	}

	teams, teamPower := teamPowerSeries(t)
	respondJSON(w, http.StatusOK, timeSeriesResponse{
		Labels:    labels,
		Distance:  bucketSeries(t, period, dataset.FieldDistanceKm, dataset.AggSum, buckets),
		Power:     bucketSeries(t, period, dataset.FieldPowerWatts, dataset.AggMean, buckets),
		Teams:     teams,
		TeamPower: teamPower,
	})
}

// bucketSeries aggregates one metric per bucket and aligns the values with
// the given bucket order. Absent metrics and empty buckets yield zeros so
// every series has the same length as the labels.
func bucketSeries(t *dataset.Table, period dataset.Period, metric dataset.Field, fn dataset.AggFunc, buckets []string) []float64 {
	out := make([]float64, len(buckets))
	if !t.Schema().Has(metric) {
		return out
	}

	sum, err := dataset.Aggregate(t, period, nil, metric, fn)
	if err != nil {
		return out
	}

	byBucket := make(map[string]float64, len(sum.Rows))
	for _, row := range sum.Rows {
		byBucket[row.Bucket] = row.Value
	}
	for i, b := range buckets {
		out[i] = sanitize(byBucket[b])
	}
	return out
}

// teamPowerSeries averages power per team in first-seen order. Teams with
// no power data chart as zero.
func teamPowerSeries(t *dataset.Table) ([]string, []float64) {
	names := t.Strings(dataset.FieldTeamName)
	if names == nil {
		return []string{}, []float64{}
	}
	power := t.Floats(dataset.FieldPowerWatts)

	type acc struct {
		sum   float64
		count int
	}
	byTeam := make(map[string]*acc)
	order := make([]string, 0)

	for i, name := range names {
		a, ok := byTeam[name]
		if !ok {
			a = &acc{}
			byTeam[name] = a
			order = append(order, name)
		}
		if v := floatAt(power, i); !math.IsNaN(v) {
			a.sum += v
			a.count++
		}
	}

	values := make([]float64, len(order))
	for i, name := range order {
		a := byTeam[name]
		values[i] = safeMean(a.sum, a.count)
	}
	return order, values
}

// sanitize maps null to zero so values survive JSON encoding.
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
