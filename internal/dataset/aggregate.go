package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// SummaryRow is one aggregate record: the period bucket, the group-key
// values (aligned with the requested group keys), and the aggregated metric
// value. Value is NaN when the group held no usable metric values.
type SummaryRow struct {
	Bucket string
	Keys   []string
	Value  float64
}

// IsNull reports whether the aggregated value is null.
func (r SummaryRow) IsNull() bool { return math.IsNaN(r.Value) }

// Summary is the ordered result of a grouped aggregation.
type Summary struct {
	Period    Period
	GroupKeys []Field
	Metric    Field
	Fn        AggFunc
	Rows      []SummaryRow
}

// Frame renders the summary as a dataframe with one column per grouper plus
// the aggregated metric, preserving row order.
func (s *Summary) Frame() dataframe.DataFrame {
	n := len(s.Rows)
	buckets := make([]string, n)
	keys := make([][]string, len(s.GroupKeys))
	for k := range keys {
		keys[k] = make([]string, n)
	}
	values := make([]float64, n)

	for i, row := range s.Rows {
		buckets[i] = row.Bucket
		for k := range s.GroupKeys {
			keys[k][i] = row.Keys[k]
		}
		values[i] = row.Value
	}

	cols := make([]series.Series, 0, len(s.GroupKeys)+2)
	cols = append(cols, series.New(buckets, series.String, string(s.Period)))
	for k, f := range s.GroupKeys {
		cols = append(cols, series.New(keys[k], series.String, string(f)))
	}
	cols = append(cols, series.New(values, series.Float, string(s.Metric)))
	return dataframe.New(cols...)
}

// group accumulates metric values for one (bucket, keys...) combination.
type group struct {
	bucket string
	keys   []string
	sum    float64
	count  int
	max    float64
	min    float64
}

// Aggregate groups the table's rows by (period bucket, groupKeys...) and
// applies fn to the metric within each group. Null group-key values form
// their own group rather than being dropped. The result is sorted bucket
// ascending, then metric value descending (nulls last) within each bucket,
// so leaderboard consumers need no further sorting.
//
// If the period bucket column is not yet present the table is expanded
// first; expansion is idempotent, so already-expanded tables are safe.
func Aggregate(t *Table, period Period, groupKeys []Field, metric Field, fn AggFunc) (*Summary, error) {
	if !ValidPeriod(period) {
		return nil, &InvalidPeriodError{Period: period}
	}
	if !ValidAggFunc(fn) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAggFunc, fn)
	}

	if !hasColumn(t.df, string(period)) {
		t = Expand(t)
	}

	if !hasColumn(t.df, string(metric)) {
		return nil, &MissingColumnError{Column: metric}
	}
	for _, k := range groupKeys {
		if !hasColumn(t.df, string(k)) {
			return nil, &MissingColumnError{Column: k}
		}
	}

	buckets := t.df.Col(string(period)).Records()
	values := t.df.Col(string(metric)).Float()
	keyCols := make([][]string, len(groupKeys))
	for i, k := range groupKeys {
		keyCols[i] = t.df.Col(string(k)).Records()
	}

	groups := make(map[string]*group)
	order := make([]string, 0)

	for i := range buckets {
		keys := make([]string, len(groupKeys))
		for k := range groupKeys {
			keys[k] = keyCols[k][i]
		}
		id := buckets[i] + "\x1f" + strings.Join(keys, "\x1f")

		g, ok := groups[id]
		if !ok {
			g = &group{bucket: buckets[i], keys: keys, max: math.Inf(-1), min: math.Inf(1)}
			groups[id] = g
			order = append(order, id)
		}

		v := values[i]
		if math.IsNaN(v) {
			continue
		}
		g.sum += v
		g.count++
		if v > g.max {
			g.max = v
		}
		if v < g.min {
			g.min = v
		}
	}

	rows := make([]SummaryRow, 0, len(order))
	for _, id := range order {
		g := groups[id]
		rows = append(rows, SummaryRow{Bucket: g.bucket, Keys: g.keys, Value: g.apply(fn)})
	}

	// Bucket ascending, metric descending, nulls after real values.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Bucket != rows[j].Bucket {
			return rows[i].Bucket < rows[j].Bucket
		}
		return sortValue(rows[i].Value) > sortValue(rows[j].Value)
	})

	return &Summary{Period: period, GroupKeys: groupKeys, Metric: metric, Fn: fn, Rows: rows}, nil
}

// apply computes the aggregate over the accumulated values. An empty group
// sums to zero; the other functions yield null, mirroring the skip-nulls
// semantics the rest of the pipeline relies on.
func (g *group) apply(fn AggFunc) float64 {
	switch fn {
	case AggSum:
		return g.sum
	case AggMean:
		if g.count == 0 {
			return math.NaN()
		}
		return g.sum / float64(g.count)
	case AggMax:
		if g.count == 0 {
			return math.NaN()
		}
		return g.max
	case AggMin:
		if g.count == 0 {
			return math.NaN()
		}
		return g.min
	}
	return math.NaN()
}

func sortValue(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(-1)
	}
	return v
}
