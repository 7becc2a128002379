package server

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NdanyuzweGentil/cycling-dashboard/internal/dataset"
)

type leaderboardRider struct {
	Name     string  `json:"name"`
	Team     string  `json:"team"`
	Distance float64 `json:"distance"`
	Power    float64 `json:"power"`
	Rides    int     `json:"rides"`
}

type leaderboardTeam struct {
	Name       string  `json:"name"`
	Distance   float64 `json:"distance"`
	Power      float64 `json:"power"`
	RiderCount int     `json:"riderCount"`
}

type leaderboardResponse struct {
	Period string             `json:"period"`
	Riders []leaderboardRider `json:"riders"`
	Teams  []leaderboardTeam  `json:"teams"`
}

// Leaderboard ranks riders (top 10) and teams (top 5) by total distance
// within the latest bucket of the requested granularity. Unknown periods
// degrade to monthly.
func (s *Server) Leaderboard(w http.ResponseWriter, r *http.Request) {
	period := dataset.Period(chi.URLParam(r, "period"))
	if !dataset.ValidPeriod(period) {
		period = dataset.PeriodMonth
	}

	t, err := s.current()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	resp := leaderboardResponse{
		Period: string(period),
		Riders: []leaderboardRider{},
		Teams:  []leaderboardTeam{},
	}
	if !t.Schema().Has(dataset.FieldDistanceKm) || t.NumRows() == 0 {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	t = dataset.Expand(t)

	riderDist, err := dataset.Aggregate(t, period, []dataset.Field{dataset.FieldRiderName}, dataset.FieldDistanceKm, dataset.AggSum)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	if len(riderDist.Rows) == 0 {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	// Rows come back bucket ascending, so the final row carries the latest
	// bucket; its rows are already ordered distance descending.
	latest := riderDist.Rows[len(riderDist.Rows)-1].Bucket

	riderPower := latestGroupValues(t, period, dataset.FieldRiderName, dataset.FieldPowerWatts, latest)
	rides, teamOf := riderActivity(t, period, latest)

	for _, row := range riderDist.Rows {
		if row.Bucket != latest || len(resp.Riders) == 10 {
			continue
		}
		name := row.Keys[0]
		resp.Riders = append(resp.Riders, leaderboardRider{
			Name:     name,
			Team:     teamOf[name],
			Distance: sanitize(row.Value),
			Power:    sanitize(riderPower[name]),
			Rides:    rides[name],
		})
	}

	teamDist, err := dataset.Aggregate(t, period, []dataset.Field{dataset.FieldTeamName}, dataset.FieldDistanceKm, dataset.AggSum)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	teamPower := latestGroupValues(t, period, dataset.FieldTeamName, dataset.FieldPowerWatts, latest)
	riderCount := teamRiderCounts(t, period, latest)

	for _, row := range teamDist.Rows {
		if row.Bucket != latest || len(resp.Teams) == 5 {
			continue
		}
		name := row.Keys[0]
		resp.Teams = append(resp.Teams, leaderboardTeam{
			Name:       name,
			Distance:   sanitize(row.Value),
			Power:      sanitize(teamPower[name]),
			RiderCount: riderCount[name],
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// latestGroupValues returns the metric's mean per group key within the given
// bucket, empty when the metric is absent.
func latestGroupValues(t *dataset.Table, period dataset.Period, key dataset.Field, metric dataset.Field, bucket string) map[string]float64 {
	out := make(map[string]float64)
	if !t.Schema().Has(metric) {
		return out
	}
	sum, err := dataset.Aggregate(t, period, []dataset.Field{key}, metric, dataset.AggMean)
	if err != nil {
		return out
	}
	for _, row := range sum.Rows {
		if row.Bucket == bucket {
			out[row.Keys[0]] = row.Value
		}
	}
	return out
}

// riderActivity counts each rider's rides within the bucket and records the
// team they rode for.
func riderActivity(t *dataset.Table, period dataset.Period, bucket string) (map[string]int, map[string]string) {
	buckets := t.Frame().Col(string(period)).Records()
	riders := t.Strings(dataset.FieldRiderName)
	teams := t.Strings(dataset.FieldTeamName)

	rides := make(map[string]int)
	teamOf := make(map[string]string)
	for i, b := range buckets {
		if b != bucket {
			continue
		}
		rides[riders[i]]++
		if _, ok := teamOf[riders[i]]; !ok {
			teamOf[riders[i]] = teams[i]
		}
	}
	return rides, teamOf
}

// teamRiderCounts counts distinct riders per team within the bucket.
func teamRiderCounts(t *dataset.Table, period dataset.Period, bucket string) map[string]int {
	buckets := t.Frame().Col(string(period)).Records()
	riders := t.Strings(dataset.FieldRiderName)
	teams := t.Strings(dataset.FieldTeamName)

	seen := make(map[string]map[string]bool)
	for i, b := range buckets {
		if b != bucket {
			continue
		}
		if seen[teams[i]] == nil {
			seen[teams[i]] = make(map[string]bool)
		}
		seen[teams[i]][riders[i]] = true
	}

	out := make(map[string]int, len(seen))
	for team, members := range seen {
		out[team] = len(members)
	}
	return out
}

type teamMetrics struct {
	TotalDistance  float64 `json:"totalDistance"`
	AvgPower       float64 `json:"avgPower"`
	AvgHeartRate   float64 `json:"avgHeartRate"`
	TotalElevation float64 `json:"totalElevation"`
	RiderCount     int     `json:"riderCount"`
}

type teamComparisonResponse struct {
	Teams   []string               `json:"teams"`
	Metrics map[string]teamMetrics `json:"metrics"`
}

// TeamComparison aggregates the whole dataset per team: distance and
// elevation totals, power and heart-rate averages, and distinct rider
// counts.
func (s *Server) TeamComparison(w http.ResponseWriter, r *http.Request) {
	t, err := s.current()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	teams := t.Strings(dataset.FieldTeamName)
	resp := teamComparisonResponse{Teams: []string{}, Metrics: map[string]teamMetrics{}}
	if teams == nil {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	riders := t.Strings(dataset.FieldRiderName)
	distance := t.Floats(dataset.FieldDistanceKm)
	power := t.Floats(dataset.FieldPowerWatts)
	heartRate := t.Floats(dataset.FieldHeartRateBpm)
	elevation := t.Floats(dataset.FieldElevationGain)

	type acc struct {
		dist, elev        float64
		powSum, hrSum     float64
		powCount, hrCount int
		members           map[string]bool
	}
	byTeam := make(map[string]*acc)

	for i, name := range teams {
		a, ok := byTeam[name]
		if !ok {
			a = &acc{members: make(map[string]bool)}
			byTeam[name] = a
			resp.Teams = append(resp.Teams, name)
		}
		a.dist += valueAt(distance, i)
		a.elev += valueAt(elevation, i)
		if v := floatAt(power, i); !math.IsNaN(v) {
			a.powSum += v
			a.powCount++
		}
		if v := floatAt(heartRate, i); !math.IsNaN(v) {
			a.hrSum += v
			a.hrCount++
		}
		if riders != nil {
			a.members[riders[i]] = true
		}
	}

	for _, name := range resp.Teams {
		a := byTeam[name]
		resp.Metrics[name] = teamMetrics{
			TotalDistance:  a.dist,
			AvgPower:       safeMean(a.powSum, a.powCount),
			AvgHeartRate:   safeMean(a.hrSum, a.hrCount),
			TotalElevation: a.elev,
			RiderCount:     len(a.members),
		}
	}

	respondJSON(w, http.StatusOK, resp)
}
