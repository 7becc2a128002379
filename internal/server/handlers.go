package server

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/dataset"
	"github.com/NdanyuzweGentil/cycling-dashboard/internal/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("encoding response", "error", err.Error())
	}
}

// summaryStats mirrors the dashboard's overview KPI block.
type summaryStats struct {
	TotalDistance  float64 `json:"totalDistance"`
	TotalDuration  float64 `json:"totalDuration"` // hours
	AvgPower       float64 `json:"avgPower"`
	AvgHeartRate   float64 `json:"avgHeartRate"`
	TotalElevation float64 `json:"totalElevation"`
}

// riderSummary is one rider's aggregate line on the riders view.
type riderSummary struct {
	Name      string  `json:"name"`
	Team      string  `json:"team"`
	Distance  float64 `json:"distance"`
	Duration  float64 `json:"duration"` // hours
	Power     float64 `json:"power"`
	HeartRate float64 `json:"hr"`
	Elevation float64 `json:"elevation"`
}

type uploadResponse struct {
	Success bool           `json:"success"`
	Stats   summaryStats   `json:"stats"`
	Riders  []riderSummary `json:"riders"`
	Message string         `json:"message"`
}

// Upload accepts a CSV/Excel ride file (multipart field "file") plus
// optional map_<field> column overrides, runs it through the pipeline, and
// replaces the current dataset. On a parse failure the previous dataset is
// kept and the error names the detected format.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondJSON(w, http.StatusRequestEntityTooLarge,
				errorResponse{Error: fmt.Sprintf("file too large (limit %d bytes)", maxErr.Limit)})
			return
		}
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "no file uploaded"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "no file uploaded"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "no file selected"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "reading upload: " + err.Error()})
		return
	}

	mapping := dataset.Mapping{}
	for _, f := range dataset.CanonicalFields() {
		if v := strings.TrimSpace(r.FormValue("map_" + string(f))); v != "" {
			mapping[f] = v
		}
	}
	if len(mapping) > 0 && logging.IsVerbose() {
		logging.Debug("applying mapping overrides", "filename", header.Filename, "mapping", logging.ToJSON(mapping))
	}

	t, err := dataset.Load(data, header.Header.Get("Content-Type"), mapping)
	if err != nil {
		logging.Warn("upload rejected", "filename", header.Filename, "error", err.Error())
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "error processing file: " + err.Error()})
		return
	}

	t = dataset.Expand(t)
	s.store.Replace(t)
	logging.Info("dataset replaced", "filename", header.Filename, "records", t.NumRows())

	respondJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Stats:   buildSummaryStats(t),
		Riders:  buildRiderSummaries(t),
		Message: fmt.Sprintf("Successfully uploaded %d records", t.NumRows()),
	})
}

// Stats returns overview totals and averages for the current dataset.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	t, err := s.current()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, buildSummaryStats(t))
}

// Riders returns per-rider summaries for the current dataset.
func (s *Server) Riders(w http.ResponseWriter, r *http.Request) {
	t, err := s.current()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, buildRiderSummaries(t))
}

// SchemaInfo exposes the capability descriptor: which canonical fields the
// current dataset actually provides.
func (s *Server) SchemaInfo(w http.ResponseWriter, r *http.Request) {
	t, err := s.current()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Fields []dataset.Field `json:"fields"`
	}{Fields: t.Schema().Fields()})
}

type newsItem struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date"`
	Excerpt  string `json:"excerpt"`
	Category string `json:"category"`
}

// News returns the static club news feed.
func (s *Server) News(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, []newsItem{
		{
			ID:       1,
			Title:    "Team Victory at Regional Championship",
			Date:     "2025-03-15",
			Excerpt:  "Our team secured first place in the regional cycling championship with outstanding performances from all riders.",
			Category: "Achievement",
		},
		{
			ID:       2,
			Title:    "New Training Program Launched",
			Date:     "2025-03-10",
			Excerpt:  "We've introduced a new high-intensity training program to improve our riders' performance metrics.",
			Category: "Training",
		},
		{
			ID:       3,
			Title:    "New Rider Joins Team",
			Date:     "2025-03-05",
			Excerpt:  "We're excited to welcome our newest team member who brings fresh energy and talent to our cycling squad.",
			Category: "Team",
		},
		{
			ID:       4,
			Title:    "Performance Analytics Update",
			Date:     "2025-02-28",
			Excerpt:  "Our new dashboard provides real-time insights into rider performance across all training sessions.",
			Category: "Technology",
		},
	})
}

// buildSummaryStats computes the overview KPIs, skipping null cells. Absent
// fields report zero so the payload shape is stable.
func buildSummaryStats(t *dataset.Table) summaryStats {
	return summaryStats{
		TotalDistance:  sumOf(t, dataset.FieldDistanceKm),
		TotalDuration:  sumOf(t, dataset.FieldDurationSec) / 3600.0,
		AvgPower:       meanOf(t, dataset.FieldPowerWatts),
		AvgHeartRate:   meanOf(t, dataset.FieldHeartRateBpm),
		TotalElevation: sumOf(t, dataset.FieldElevationGain),
	}
}

// buildRiderSummaries aggregates per rider in first-seen order.
func buildRiderSummaries(t *dataset.Table) []riderSummary {
	riders := t.Strings(dataset.FieldRiderName)
	if riders == nil {
		return []riderSummary{}
	}
	teams := t.Strings(dataset.FieldTeamName)
	distance := t.Floats(dataset.FieldDistanceKm)
	duration := t.Floats(dataset.FieldDurationSec)
	power := t.Floats(dataset.FieldPowerWatts)
	heartRate := t.Floats(dataset.FieldHeartRateBpm)
	elevation := t.Floats(dataset.FieldElevationGain)

	type acc struct {
		team              string
		dist, dur, elev   float64
		powSum, hrSum     float64
		powCount, hrCount int
	}
	byRider := make(map[string]*acc)
	order := make([]string, 0)

	for i, name := range riders {
		a, ok := byRider[name]
		if !ok {
			a = &acc{team: "Unknown"}
			if teams != nil {
				a.team = teams[i]
			}
			byRider[name] = a
			order = append(order, name)
		}
		a.dist += valueAt(distance, i)
		a.dur += valueAt(duration, i)
		a.elev += valueAt(elevation, i)
		if v := floatAt(power, i); !math.IsNaN(v) {
			a.powSum += v
			a.powCount++
		}
		if v := floatAt(heartRate, i); !math.IsNaN(v) {
			a.hrSum += v
			a.hrCount++
		}
	}

	out := make([]riderSummary, 0, len(order))
	for _, name := range order {
		a := byRider[name]
		out = append(out, riderSummary{
			Name:      name,
			Team:      a.team,
			Distance:  a.dist,
			Duration:  a.dur / 3600.0,
			Power:     safeMean(a.powSum, a.powCount),
			HeartRate: safeMean(a.hrSum, a.hrCount),
			Elevation: a.elev,
		})
	}
	return out
}

// sumOf totals a field, skipping nulls; zero when absent.
func sumOf(t *dataset.Table, f dataset.Field) float64 {
	var total float64
	for _, v := range t.Floats(f) {
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

// meanOf averages a field, skipping nulls; zero when absent or all-null.
func meanOf(t *dataset.Table, f dataset.Field) float64 {
	var total float64
	var count int
	for _, v := range t.Floats(f) {
		if !math.IsNaN(v) {
			total += v
			count++
		}
	}
	return safeMean(total, count)
}

func safeMean(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// floatAt indexes a possibly-nil column, NaN when absent.
func floatAt(col []float64, i int) float64 {
	if col == nil {
		return math.NaN()
	}
	return col[i]
}

// valueAt indexes a possibly-nil column, treating nulls as zero.
func valueAt(col []float64, i int) float64 {
	v := floatAt(col, i)
	if math.IsNaN(v) {
		return 0
	}
	return v
}
