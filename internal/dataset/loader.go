package dataset

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// timeLayout is the canonical wall-clock rendering of timestamps and period
// buckets. Fixed-width, so lexicographic order equals chronological order.
const timeLayout = "2006-01-02 15:04:05"

// Table is a loaded, canonicalized set of ride records together with its
// capability schema.
type Table struct {
	df     dataframe.DataFrame
	schema Schema
}

// Frame returns the underlying dataframe.
func (t *Table) Frame() dataframe.DataFrame { return t.df }

// Schema returns the capability descriptor computed at load time.
func (t *Table) Schema() Schema { return t.schema }

// NumRows returns the number of ride records.
func (t *Table) NumRows() int { return t.df.Nrow() }

// Floats returns the field's values as floats with NaN for nulls, or nil
// when the field is not on the table.
func (t *Table) Floats(f Field) []float64 {
	if !t.schema.Has(f) {
		return nil
	}
	return t.df.Col(string(f)).Float()
}

// Strings returns the field's values as raw strings, or nil when the field
// is not on the table.
func (t *Table) Strings(f Field) []string {
	if !t.schema.Has(f) {
		return nil
	}
	return t.df.Col(string(f)).Records()
}

// excelMimes are the declared MIME types treated as spreadsheet uploads.
var excelMimes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel":                                          true,
}

func isExcelMime(mime string) bool {
	return excelMimes[mime] || strings.Contains(mime, "excel")
}

// Load parses raw uploaded bytes into a canonical Table. With an Excel MIME
// hint the bytes are parsed as a spreadsheet; otherwise delimited text is
// tried first with a spreadsheet fallback. Mapping overrides win over the
// automatic column guesses. Fails with *FormatError when neither format
// matches.
func Load(data []byte, mimeHint string, user Mapping) (*Table, error) {
	detected := mimeHint
	if detected == "" {
		detected = "unknown"
	}

	var df dataframe.DataFrame
	var err error
	if mimeHint != "" && isExcelMime(mimeHint) {
		df, err = parseSpreadsheet(data)
		if err != nil {
			return nil, &FormatError{Detected: detected}
		}
	} else {
		df, err = parseDelimited(data)
		if err != nil {
			df, err = parseSpreadsheet(data)
			if err != nil {
				return nil, &FormatError{Detected: detected}
			}
		}
	}
	return canonicalize(df, user)
}

// LoadFile parses a file into a canonical Table, dispatching purely on the
// file extension.
func LoadFile(path string, user Mapping) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	detected := ext
	if detected == "" {
		detected = "unknown"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var df dataframe.DataFrame
	switch ext {
	case ".xlsx", ".xls":
		df, err = parseSpreadsheet(data)
	default:
		df, err = parseDelimited(data)
	}
	if err != nil {
		return nil, &FormatError{Detected: detected}
	}
	return canonicalize(df, user)
}

// parseDelimited reads comma-separated text into a string-typed frame.
func parseDelimited(data []byte) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// parseSpreadsheet reads the first sheet of an xlsx workbook. excelize is
// tried first; tealeg/xlsx handles older workbooks excelize rejects.
func parseSpreadsheet(data []byte) (dataframe.DataFrame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return parseSpreadsheetLegacy(data)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataframe.DataFrame{}, errEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	return recordsToFrame(rows)
}

func parseSpreadsheetLegacy(data []byte) (dataframe.DataFrame, error) {
	wb, err := xlsx.OpenBinary(data)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(wb.Sheets) == 0 {
		return dataframe.DataFrame{}, errEmptyWorkbook
	}

	sheet := wb.Sheets[0]
	records := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.Value
		}
		records = append(records, cells)
	}
	return recordsToFrame(records)
}

var errEmptyWorkbook = &FormatError{Detected: "empty workbook"}

// recordsToFrame converts header+rows into a string-typed frame, padding
// ragged rows out to the header width.
func recordsToFrame(rows [][]string) (dataframe.DataFrame, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return dataframe.DataFrame{}, errEmptyWorkbook
	}

	width := len(rows[0])
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		rec := make([]string, width)
		copy(rec, row)
		records = append(records, rec)
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// canonicalize renames mapped columns, coerces types, applies identity
// defaults, filters unparseable timestamps, and derives speed_kmh.
func canonicalize(df dataframe.DataFrame, user Mapping) (*Table, error) {
	mapping := resolveMapping(df.Names(), user)

	schema := make(Schema)
	for f, src := range mapping {
		if !hasColumn(df, src) {
			continue
		}
		if src != string(f) {
			if hasColumn(df, string(f)) {
				// Renaming the mapped source onto an existing column would
				// duplicate the name and corrupt the frame; the column
				// already carrying the canonical name wins.
				continue
			}
			df = df.Rename(string(f), src)
			if df.Err != nil {
				return nil, df.Err
			}
		}
		schema[f] = true
	}

	// Columns already carrying a canonical name count even when no guess or
	// override mapped them.
	for _, f := range canonicalFields {
		if !schema.Has(f) && hasColumn(df, string(f)) {
			schema[f] = true
		}
	}

	// Timestamp: parse leniently, drop any zone, keep failures as "".
	if schema.Has(FieldTimestamp) {
		records := df.Col(string(FieldTimestamp)).Records()
		normalized := make([]string, len(records))
		for i, raw := range records {
			if ts, ok := parseTimestamp(raw); ok {
				normalized[i] = ts.Format(timeLayout)
			}
		}
		df = df.Mutate(series.New(normalized, series.String, string(FieldTimestamp)))
	}

	// Numeric coercion: unparseable cells become NaN, never an error.
	for _, f := range numericFields {
		if !schema.Has(f) {
			continue
		}
		records := df.Col(string(f)).Records()
		values := make([]float64, len(records))
		for i, raw := range records {
			values[i] = parseNumeric(raw)
		}
		df = df.Mutate(series.New(values, series.Float, string(f)))
	}

	// Identity defaults.
	for _, f := range []Field{FieldRiderName, FieldTeamName} {
		if schema.Has(f) {
			continue
		}
		unknown := make([]string, df.Nrow())
		for i := range unknown {
			unknown[i] = "Unknown"
		}
		df = df.Mutate(series.New(unknown, series.String, string(f)))
		schema[f] = true
	}

	// Rows without a parseable timestamp are dropped, but only when a
	// timestamp column was mapped at all.
	if schema.Has(FieldTimestamp) {
		df = df.Filter(dataframe.F{
			Colname:    string(FieldTimestamp),
			Comparator: series.Neq,
			Comparando: "",
		})
		if df.Err != nil {
			return nil, df.Err
		}
	}

	df = deriveSpeed(df, schema)
	schema[FieldSpeedKmh] = true

	return &Table{df: df, schema: schema}, nil
}

// deriveSpeed adds speed_kmh = distance_km / (duration_sec / 3600). The
// column always exists; cells are null when the sources are unmapped or the
// duration is not positive.
func deriveSpeed(df dataframe.DataFrame, schema Schema) dataframe.DataFrame {
	n := df.Nrow()
	speeds := make([]float64, n)
	for i := range speeds {
		speeds[i] = math.NaN()
	}

	if schema.Has(FieldDistanceKm) && schema.Has(FieldDurationSec) && n > 0 {
		dist := df.Col(string(FieldDistanceKm)).Float()
		dur := df.Col(string(FieldDurationSec)).Float()
		for i := 0; i < n; i++ {
			if dur[i] > 0 {
				speeds[i] = dist[i] / (dur[i] / 3600.0)
			}
		}
	}
	return df.Mutate(series.New(speeds, series.Float, string(FieldSpeedKmh)))
}

// timestampLayouts are tried in order when coercing source timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// parseTimestamp coerces a source cell to a wall-clock instant. Values
// carrying a zone are converted to UTC and the zone dropped; naive values
// are taken as already-UTC. Excel date serials are accepted too.
func parseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	// Excel stores dates as day serials. The 1899-12-30 base absorbs the
	// spurious 1900-02-29, so serials for real dates need no adjustment.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= 1 && serial < 300000 {
		days := int(serial)
		frac := serial - float64(days)
		t := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, days).
			Add(time.Duration(frac * 24 * float64(time.Hour)))
		return t, true
	}

	return time.Time{}, false
}

// parseNumeric coerces a source cell to a float, NaN on failure.
func parseNumeric(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}
