// Package predict serves the two-stage prediction pipeline: baseline
// per-stat projections, absence-driven deltas, and the ripple-effect
// aggregation across a roster.
package predict

// StatNames lists the eight predicted stats in canonical order. Each has
// its own independently trained and loaded regressor.
var StatNames = []string{"pts", "ast", "reb", "stl", "blk", "fg_pct", "ft_pct", "minutes"}

// StatPrediction maps stat name to projection, with serving metadata.
// Stats whose model artifact failed to load appear in MissingStats
// instead of Values; the request still succeeds for the rest.
type StatPrediction struct {
	Values       map[string]float64 `json:"values"`
	MissingStats []string           `json:"missing_stats,omitempty"`

	// LowConfidence marks predictions made from an entirely unknown
	// feature vector (a player with no prior history). The model still
	// answers; the caller decides how to present it.
	LowConfidence bool `json:"low_confidence,omitempty"`

	// MatchupDataUnavailable marks predictions where no history against
	// the requested opponent existed and the matchup features stayed
	// unknown.
	MatchupDataUnavailable bool `json:"matchup_data_unavailable,omitempty"`
}

// Clone returns a deep copy of the prediction.
func (p StatPrediction) Clone() StatPrediction {
	out := p
	out.Values = make(map[string]float64, len(p.Values))
	for k, v := range p.Values {
		out.Values[k] = v
	}
	out.MissingStats = append([]string(nil), p.MissingStats...)
	return out
}
