package dataset

import "strings"

// Mapping associates canonical field names with the source table's actual
// header names. The loader builds one by merging automatic guesses with an
// explicit user-supplied override, where the override wins per field.
type Mapping map[Field]string

// fieldCandidates lists, per canonical field, the normalized header tokens
// accepted as an automatic match, in priority order.
var fieldCandidates = map[Field][]string{
	FieldTimestamp:     {"timestamp", "time", "date", "datetime", "start_time", "start"},
	FieldRiderName:     {"rider", "rider_name", "athlete", "athlete_name", "name"},
	FieldTeamName:      {"team", "team_name", "club"},
	FieldDistanceKm:    {"distance_km", "distance", "km"},
	FieldDurationSec:   {"duration_sec", "seconds", "time_s", "elapsed_time", "moving_time"},
	FieldPowerWatts:    {"power", "avg_power", "power_watts", "np", "normalized_power"},
	FieldHeartRateBpm:  {"hr", "bpm", "heart_rate", "heart_rate_bpm"},
	FieldElevationGain: {"elevation", "elevation_gain", "elev_gain_m", "ascent", "total_ascent"},
}

// normalizeHeader reduces a source header to a lowercase token of
// alphanumerics and underscores: runs of other characters collapse to a
// single underscore, leading/trailing underscores are trimmed.
func normalizeHeader(h string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// guessMapping computes the automatic best-guess mapping for a header set.
// For each canonical field the first candidate token that matches a
// normalized header wins; fields with no match are omitted. Headers that
// normalize to the same token resolve last-wins, so a literal canonical
// header beats a messy twin appearing before it.
func guessMapping(headers []string) Mapping {
	byToken := make(map[string]string, len(headers))
	for _, h := range headers {
		byToken[normalizeHeader(h)] = h
	}

	guesses := make(Mapping)
	for _, f := range canonicalFields {
		for _, cand := range fieldCandidates[f] {
			if original, ok := byToken[cand]; ok {
				guesses[f] = original
				break
			}
		}
	}
	return guesses
}

// resolveMapping merges the automatic guesses with the user override.
// Blank override entries are ignored; non-blank entries always win.
func resolveMapping(headers []string, user Mapping) Mapping {
	mapping := guessMapping(headers)
	for f, col := range user {
		if strings.TrimSpace(col) == "" {
			continue
		}
		mapping[f] = col
	}
	return mapping
}
