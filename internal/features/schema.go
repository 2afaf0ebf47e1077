// Package features derives the per-player-game feature vectors consumed
// by the baseline and ripple models. The same construction path serves
// training-set building and single-game inference, so the two can never
// drift apart.
package features

import "math"

// Baseline holds the 37 baseline columns. NaN marks an unknown value;
// the regressors tolerate missingness natively, so nothing is imputed.
type Baseline struct {
	SeasonAvgPts       float64
	SeasonAvgAst       float64
	SeasonAvgReb       float64
	SeasonAvgStl       float64
	SeasonAvgBlk       float64
	SeasonAvgTov       float64
	SeasonAvgFGPct     float64
	SeasonAvgFTPct     float64
	SeasonAvgFG3Pct    float64
	SeasonAvgPlusMinus float64
	SeasonAvgMinutes   float64

	Last5AvgPts       float64
	Last5AvgAst       float64
	Last5AvgReb       float64
	Last5AvgMinutes   float64
	Last5AvgFGPct     float64
	Last5AvgPlusMinus float64

	Last10AvgPts       float64
	Last10AvgAst       float64
	Last10AvgReb       float64
	Last10AvgMinutes   float64
	Last10AvgFGPct     float64
	Last10AvgPlusMinus float64

	HomeAvgPts      float64
	AwayAvgPts      float64
	HomeAwayPtsDiff float64

	VsOppAvgPts float64
	VsOppAvgReb float64
	VsOppAvgAst float64

	MinutesTrend      float64
	GamesPlayedSeason float64
	Age               float64
	Experience        float64

	IsHome float64
	PosG   float64
	PosF   float64
	PosC   float64
}

// Injury holds the 17 injury-context columns. Unlike the baseline block
// these are always fully defined: missing roster data contributes 0.
type Injury struct {
	NStartersOut float64
	Starter1Out  float64
	Starter2Out  float64
	Starter3Out  float64
	Starter4Out  float64
	Starter5Out  float64

	BallHandlerOut      float64
	PrimaryScorerOut    float64
	PrimaryRebounderOut float64
	PrimaryDefenderOut  float64
	SixthManOut         float64
	NRotationPlayersOut float64

	TotalPtsLost     float64
	TotalAstLost     float64
	TotalRebLost     float64
	TotalMinutesLost float64

	GamesWithThisConfig float64
}

// Row is the full 54-column ripple feature row.
type Row struct {
	Baseline
	Injury
}

// The schema tables below are the single specification of column order.
// Both the name lists and the vectorizers derive from them, so a field
// added here flows to training and serving identically.

type baselineField struct {
	name string
	get  func(*Baseline) float64
}

type injuryField struct {
	name string
	get  func(*Injury) float64
}

var baselineSchema = []baselineField{
	{"season_avg_pts", func(b *Baseline) float64 { return b.SeasonAvgPts }},
	{"season_avg_ast", func(b *Baseline) float64 { return b.SeasonAvgAst }},
	{"season_avg_reb", func(b *Baseline) float64 { return b.SeasonAvgReb }},
	{"season_avg_stl", func(b *Baseline) float64 { return b.SeasonAvgStl }},
	{"season_avg_blk", func(b *Baseline) float64 { return b.SeasonAvgBlk }},
	{"season_avg_tov", func(b *Baseline) float64 { return b.SeasonAvgTov }},
	{"season_avg_fg_pct", func(b *Baseline) float64 { return b.SeasonAvgFGPct }},
	{"season_avg_ft_pct", func(b *Baseline) float64 { return b.SeasonAvgFTPct }},
	{"season_avg_fg3_pct", func(b *Baseline) float64 { return b.SeasonAvgFG3Pct }},
	{"season_avg_plus_minus", func(b *Baseline) float64 { return b.SeasonAvgPlusMinus }},
	{"season_avg_minutes", func(b *Baseline) float64 { return b.SeasonAvgMinutes }},
	{"last5_avg_pts", func(b *Baseline) float64 { return b.Last5AvgPts }},
	{"last5_avg_ast", func(b *Baseline) float64 { return b.Last5AvgAst }},
	{"last5_avg_reb", func(b *Baseline) float64 { return b.Last5AvgReb }},
	{"last5_avg_minutes", func(b *Baseline) float64 { return b.Last5AvgMinutes }},
	{"last5_avg_fg_pct", func(b *Baseline) float64 { return b.Last5AvgFGPct }},
	{"last5_avg_plus_minus", func(b *Baseline) float64 { return b.Last5AvgPlusMinus }},
	{"last10_avg_pts", func(b *Baseline) float64 { return b.Last10AvgPts }},
	{"last10_avg_ast", func(b *Baseline) float64 { return b.Last10AvgAst }},
	{"last10_avg_reb", func(b *Baseline) float64 { return b.Last10AvgReb }},
	{"last10_avg_minutes", func(b *Baseline) float64 { return b.Last10AvgMinutes }},
	{"last10_avg_fg_pct", func(b *Baseline) float64 { return b.Last10AvgFGPct }},
	{"last10_avg_plus_minus", func(b *Baseline) float64 { return b.Last10AvgPlusMinus }},
	{"home_avg_pts", func(b *Baseline) float64 { return b.HomeAvgPts }},
	{"away_avg_pts", func(b *Baseline) float64 { return b.AwayAvgPts }},
	{"home_away_pts_diff", func(b *Baseline) float64 { return b.HomeAwayPtsDiff }},
	{"vs_opp_avg_pts", func(b *Baseline) float64 { return b.VsOppAvgPts }},
	{"vs_opp_avg_reb", func(b *Baseline) float64 { return b.VsOppAvgReb }},
	{"vs_opp_avg_ast", func(b *Baseline) float64 { return b.VsOppAvgAst }},
	{"minutes_trend", func(b *Baseline) float64 { return b.MinutesTrend }},
	{"games_played_season", func(b *Baseline) float64 { return b.GamesPlayedSeason }},
	{"age", func(b *Baseline) float64 { return b.Age }},
	{"experience", func(b *Baseline) float64 { return b.Experience }},
	{"is_home", func(b *Baseline) float64 { return b.IsHome }},
	{"pos_G", func(b *Baseline) float64 { return b.PosG }},
	{"pos_F", func(b *Baseline) float64 { return b.PosF }},
	{"pos_C", func(b *Baseline) float64 { return b.PosC }},
}

var injurySchema = []injuryField{
	{"n_starters_out", func(i *Injury) float64 { return i.NStartersOut }},
	{"starter_1_out", func(i *Injury) float64 { return i.Starter1Out }},
	{"starter_2_out", func(i *Injury) float64 { return i.Starter2Out }},
	{"starter_3_out", func(i *Injury) float64 { return i.Starter3Out }},
	{"starter_4_out", func(i *Injury) float64 { return i.Starter4Out }},
	{"starter_5_out", func(i *Injury) float64 { return i.Starter5Out }},
	{"ball_handler_out", func(i *Injury) float64 { return i.BallHandlerOut }},
	{"primary_scorer_out", func(i *Injury) float64 { return i.PrimaryScorerOut }},
	{"primary_rebounder_out", func(i *Injury) float64 { return i.PrimaryRebounderOut }},
	{"primary_defender_out", func(i *Injury) float64 { return i.PrimaryDefenderOut }},
	{"sixth_man_out", func(i *Injury) float64 { return i.SixthManOut }},
	{"n_rotation_players_out", func(i *Injury) float64 { return i.NRotationPlayersOut }},
	{"total_pts_lost", func(i *Injury) float64 { return i.TotalPtsLost }},
	{"total_ast_lost", func(i *Injury) float64 { return i.TotalAstLost }},
	{"total_reb_lost", func(i *Injury) float64 { return i.TotalRebLost }},
	{"total_minutes_lost", func(i *Injury) float64 { return i.TotalMinutesLost }},
	{"games_with_this_config", func(i *Injury) float64 { return i.GamesWithThisConfig }},
}

// BaselineNames returns the 37 baseline column names in model order.
func BaselineNames() []string {
	names := make([]string, len(baselineSchema))
	for i, f := range baselineSchema {
		names[i] = f.name
	}
	return names
}

// InjuryNames returns the 17 injury column names in model order.
func InjuryNames() []string {
	names := make([]string, len(injurySchema))
	for i, f := range injurySchema {
		names[i] = f.name
	}
	return names
}

// RippleNames returns the combined 54-column name list.
func RippleNames() []string {
	return append(BaselineNames(), InjuryNames()...)
}

// NewBaseline returns a baseline block with every column unknown.
func NewBaseline() Baseline {
	var b Baseline
	nan := math.NaN()
	b.SeasonAvgPts, b.SeasonAvgAst, b.SeasonAvgReb = nan, nan, nan
	b.SeasonAvgStl, b.SeasonAvgBlk, b.SeasonAvgTov = nan, nan, nan
	b.SeasonAvgFGPct, b.SeasonAvgFTPct, b.SeasonAvgFG3Pct = nan, nan, nan
	b.SeasonAvgPlusMinus, b.SeasonAvgMinutes = nan, nan
	b.Last5AvgPts, b.Last5AvgAst, b.Last5AvgReb = nan, nan, nan
	b.Last5AvgMinutes, b.Last5AvgFGPct, b.Last5AvgPlusMinus = nan, nan, nan
	b.Last10AvgPts, b.Last10AvgAst, b.Last10AvgReb = nan, nan, nan
	b.Last10AvgMinutes, b.Last10AvgFGPct, b.Last10AvgPlusMinus = nan, nan, nan
	b.HomeAvgPts, b.AwayAvgPts, b.HomeAwayPtsDiff = nan, nan, nan
	b.VsOppAvgPts, b.VsOppAvgReb, b.VsOppAvgAst = nan, nan, nan
	b.MinutesTrend, b.Age, b.Experience = nan, nan, nan
	return b
}

// Vector returns the baseline block as a 37-element slice in model order.
func (b *Baseline) Vector() []float64 {
	v := make([]float64, len(baselineSchema))
	for i, f := range baselineSchema {
		v[i] = f.get(b)
	}
	return v
}

// Vector returns the injury block as a 17-element slice in model order.
func (inj *Injury) Vector() []float64 {
	v := make([]float64, len(injurySchema))
	for i, f := range injurySchema {
		v[i] = f.get(inj)
	}
	return v
}

// RippleVector returns the full 54-element row in model order.
func (r *Row) RippleVector() []float64 {
	return append(r.Baseline.Vector(), r.Injury.Vector()...)
}

// Unknown reports whether every baseline column that can be unknown is
// unknown — the all-missing state of a player with no history.
func (b *Baseline) Unknown() bool {
	for _, f := range baselineSchema {
		switch f.name {
		case "is_home", "pos_G", "pos_F", "pos_C", "games_played_season":
			continue
		}
		if !math.IsNaN(f.get(b)) {
			return false
		}
	}
	return true
}
