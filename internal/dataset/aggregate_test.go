package dataset

import (
	"errors"
	"math"
	"testing"
)

func TestAggregateOrdering(t *testing.T) {
	csv := "timestamp,rider,distance_km\n" +
		"2024-01-01 08:00:00,A,10\n" +
		"2024-01-01 09:00:00,B,20\n" +
		"2024-01-02 08:00:00,A,5\n"
	tbl := mustLoad(t, csv, nil)

	sum, err := Aggregate(tbl, PeriodDay, []Field{FieldRiderName}, FieldDistanceKm, AggSum)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	want := []struct {
		bucket string
		rider  string
		value  float64
	}{
		{"2024-01-01 00:00:00", "B", 20},
		{"2024-01-01 00:00:00", "A", 10},
		{"2024-01-02 00:00:00", "A", 5},
	}
	if len(sum.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(sum.Rows), len(want))
	}
	for i, w := range want {
		row := sum.Rows[i]
		if row.Bucket != w.bucket || row.Keys[0] != w.rider || row.Value != w.value {
			t.Errorf("row %d = (%s, %s, %v), want (%s, %s, %v)",
				i, row.Bucket, row.Keys[0], row.Value, w.bucket, w.rider, w.value)
		}
	}
}

func TestAggregateExpandsUnbucketedTable(t *testing.T) {
	// Aggregate must work on a table that was never explicitly expanded.
	tbl := mustLoad(t, "timestamp,distance_km\n2024-01-01 08:00:00,10\n", nil)

	sum, err := Aggregate(tbl, PeriodMonth, nil, FieldDistanceKm, AggSum)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(sum.Rows) != 1 || sum.Rows[0].Bucket != "2024-01-01 00:00:00" {
		t.Errorf("unexpected rows %+v", sum.Rows)
	}
}

func TestAggregateInvalidPeriod(t *testing.T) {
	tbl := mustLoad(t, "timestamp,distance_km\n2024-01-01,10\n", nil)

	_, err := Aggregate(tbl, Period("fortnight"), nil, FieldDistanceKm, AggSum)
	var perr *InvalidPeriodError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *InvalidPeriodError, got %v", err)
	}
	if perr.Period != "fortnight" {
		t.Errorf("error period = %q, want fortnight", perr.Period)
	}
}

func TestAggregateInvalidFunc(t *testing.T) {
	tbl := mustLoad(t, "timestamp,distance_km\n2024-01-01,10\n", nil)

	_, err := Aggregate(tbl, PeriodMonth, nil, FieldDistanceKm, AggFunc("median"))
	if !errors.Is(err, ErrInvalidAggFunc) {
		t.Fatalf("expected ErrInvalidAggFunc, got %v", err)
	}
}

func TestAggregateMissingColumn(t *testing.T) {
	tbl := mustLoad(t, "timestamp,distance_km\n2024-01-01,10\n", nil)

	_, err := Aggregate(tbl, PeriodMonth, nil, FieldPowerWatts, AggMean)
	var merr *MissingColumnError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *MissingColumnError, got %v", err)
	}
	if merr.Column != FieldPowerWatts {
		t.Errorf("error column = %q, want power_watts", merr.Column)
	}
}

func TestAggregateNullSkipping(t *testing.T) {
	csv := "timestamp,rider,power\n" +
		"2024-01-01 08:00:00,A,100\n" +
		"2024-01-01 09:00:00,A,N/A\n" +
		"2024-01-01 10:00:00,A,300\n"
	tbl := mustLoad(t, csv, nil)

	sum, err := Aggregate(tbl, PeriodDay, []Field{FieldRiderName}, FieldPowerWatts, AggMean)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if got := sum.Rows[0].Value; got != 200 {
		t.Errorf("mean = %v, want 200 (null skipped)", got)
	}
}

func TestAggregateEmptyGroupSemantics(t *testing.T) {
	csv := "timestamp,rider,power\n2024-01-01,A,N/A\n"
	tbl := mustLoad(t, csv, nil)

	sum, err := Aggregate(tbl, PeriodDay, nil, FieldPowerWatts, AggSum)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if got := sum.Rows[0].Value; got != 0 {
		t.Errorf("sum over all-null group = %v, want 0", got)
	}

	for _, fn := range []AggFunc{AggMean, AggMax, AggMin} {
		sum, err := Aggregate(tbl, PeriodDay, nil, FieldPowerWatts, fn)
		if err != nil {
			t.Fatalf("Aggregate(%s) failed: %v", fn, err)
		}
		if !sum.Rows[0].IsNull() {
			t.Errorf("%s over all-null group = %v, want null", fn, sum.Rows[0].Value)
		}
	}
}

func TestAggregateNullGroupKeys(t *testing.T) {
	// Empty rider cells form their own group rather than vanishing.
	csv := "timestamp,rider,distance_km\n" +
		"2024-01-01 08:00:00,A,10\n" +
		"2024-01-01 09:00:00,,7\n"
	tbl := mustLoad(t, csv, nil)

	sum, err := Aggregate(tbl, PeriodDay, []Field{FieldRiderName}, FieldDistanceKm, AggSum)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(sum.Rows) != 2 {
		t.Fatalf("got %d groups, want 2 (null key kept)", len(sum.Rows))
	}
	var found bool
	for _, row := range sum.Rows {
		if row.Keys[0] == "" && row.Value == 7 {
			found = true
		}
	}
	if !found {
		t.Error("null-keyed group missing from result")
	}
}

func TestAggregateNullsSortLast(t *testing.T) {
	csv := "timestamp,rider,power\n" +
		"2024-01-01 08:00:00,A,N/A\n" +
		"2024-01-01 09:00:00,B,150\n"
	tbl := mustLoad(t, csv, nil)

	sum, err := Aggregate(tbl, PeriodDay, []Field{FieldRiderName}, FieldPowerWatts, AggMean)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if sum.Rows[0].Keys[0] != "B" {
		t.Errorf("real value should sort before null, got %q first", sum.Rows[0].Keys[0])
	}
	if !sum.Rows[1].IsNull() {
		t.Errorf("expected null row last, got %v", sum.Rows[1].Value)
	}
}

func TestAggregateMinMax(t *testing.T) {
	csv := "timestamp,distance_km\n" +
		"2024-01-01 08:00:00,10\n" +
		"2024-01-01 09:00:00,25\n" +
		"2024-01-01 10:00:00,5\n"
	tbl := mustLoad(t, csv, nil)

	max, err := Aggregate(tbl, PeriodDay, nil, FieldDistanceKm, AggMax)
	if err != nil {
		t.Fatalf("Aggregate(max) failed: %v", err)
	}
	if max.Rows[0].Value != 25 {
		t.Errorf("max = %v, want 25", max.Rows[0].Value)
	}

	min, err := Aggregate(tbl, PeriodDay, nil, FieldDistanceKm, AggMin)
	if err != nil {
		t.Fatalf("Aggregate(min) failed: %v", err)
	}
	if min.Rows[0].Value != 5 {
		t.Errorf("min = %v, want 5", min.Rows[0].Value)
	}
}

func TestSummaryFrame(t *testing.T) {
	csv := "timestamp,rider,distance_km\n2024-01-01 08:00:00,A,10\n"
	tbl := mustLoad(t, csv, nil)

	sum, err := Aggregate(tbl, PeriodDay, []Field{FieldRiderName}, FieldDistanceKm, AggSum)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	frame := sum.Frame()
	names := frame.Names()
	want := []string{"day", "rider_name", "distance_km"}
	if len(names) != len(want) {
		t.Fatalf("frame columns %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, names[i], want[i])
		}
	}
	if frame.Nrow() != 1 {
		t.Errorf("frame rows = %d, want 1", frame.Nrow())
	}
}

func TestAggregateSentinelBucket(t *testing.T) {
	tbl := mustLoad(t, "rider,distance_km\nA,10\nB,20\n", nil)

	sum, err := Aggregate(tbl, PeriodYear, nil, FieldDistanceKm, AggSum)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(sum.Rows) != 1 {
		t.Fatalf("got %d buckets, want 1 sentinel bucket", len(sum.Rows))
	}
	if sum.Rows[0].Bucket != "1970-01-01 00:00:00" || sum.Rows[0].Value != 30 {
		t.Errorf("sentinel row = %+v", sum.Rows[0])
	}
}

func TestSummaryRowIsNull(t *testing.T) {
	if (SummaryRow{Value: 1}).IsNull() {
		t.Error("1 reported as null")
	}
	if !(SummaryRow{Value: math.NaN()}).IsNull() {
		t.Error("NaN not reported as null")
	}
}
