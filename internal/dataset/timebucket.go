package dataset

import (
	"fmt"
	"time"

	"github.com/go-gota/gota/series"
)

// sentinelEpoch stands in for the timestamp when the source never mapped
// one, so bucketing and grouping stay total.
var sentinelEpoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// Expand adds the six period-bucket columns (hour, day, week, month,
// quarter, year) derived from each row's timestamp. It is total: tables
// without a timestamp column get the sentinel epoch injected for every row
// first. Calling it on an already-expanded table recomputes the buckets.
//
// Conventions, fixed as a contract: weeks are ISO weeks starting Monday;
// quarters are calendar quarters (Jan-Mar, Apr-Jun, Jul-Sep, Oct-Dec).
func Expand(t *Table) *Table {
	df := t.df
	schema := t.schema

	if !hasColumn(df, string(FieldTimestamp)) {
		stamps := make([]string, df.Nrow())
		for i := range stamps {
			stamps[i] = sentinelEpoch.Format(timeLayout)
		}
		df = df.Mutate(series.New(stamps, series.String, string(FieldTimestamp)))
	}

	records := df.Col(string(FieldTimestamp)).Records()
	buckets := map[Period][]string{
		PeriodHour:    make([]string, len(records)),
		PeriodDay:     make([]string, len(records)),
		PeriodWeek:    make([]string, len(records)),
		PeriodMonth:   make([]string, len(records)),
		PeriodQuarter: make([]string, len(records)),
		PeriodYear:    make([]string, len(records)),
	}

	for i, raw := range records {
		ts, ok := parseTimestamp(raw)
		if !ok {
			ts = sentinelEpoch
		}
		for _, p := range Periods() {
			buckets[p][i] = BucketStart(ts, p).Format(timeLayout)
		}
	}

	for _, p := range Periods() {
		df = df.Mutate(series.New(buckets[p], series.String, string(p)))
	}

	return &Table{df: df, schema: schema}
}

// BucketStart returns the start-of-bucket instant containing ts for the
// given granularity.
func BucketStart(ts time.Time, p Period) time.Time {
	y, m, d := ts.Date()
	switch p {
	case PeriodHour:
		return time.Date(y, m, d, ts.Hour(), 0, 0, 0, time.UTC)
	case PeriodDay:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case PeriodWeek:
		// Monday of the ISO week containing ts.
		offset := (int(ts.Weekday()) + 6) % 7
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
	case PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case PeriodQuarter:
		qm := time.Month((int(m)-1)/3*3 + 1)
		return time.Date(y, qm, 1, 0, 0, 0, 0, time.UTC)
	case PeriodYear:
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return ts
}

// FormatBucket renders a bucket string as a human label for its
// granularity: "2024-03-07 15:00" for hours, dates for days and weeks,
// "Mar 2024" for months, "Q1 2024" for quarters, "2024" for years.
// Unparseable input is returned as-is.
func FormatBucket(bucket string, p Period) string {
	ts, err := time.Parse(timeLayout, bucket)
	if err != nil {
		return bucket
	}
	switch p {
	case PeriodHour:
		return ts.Format("2006-01-02 15:00")
	case PeriodDay, PeriodWeek:
		return ts.Format("2006-01-02")
	case PeriodMonth:
		return ts.Format("Jan 2006")
	case PeriodQuarter:
		return fmt.Sprintf("Q%d %d", (int(ts.Month())-1)/3+1, ts.Year())
	case PeriodYear:
		return ts.Format("2006")
	}
	return bucket
}
