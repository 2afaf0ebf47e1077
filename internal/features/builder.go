package features

import (
	"strings"
	"time"

	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/stats"
)

// GameContext is the target game a feature row is built for.
type GameContext struct {
	Date       time.Time
	Season     string
	Opponent   string
	Home       bool
	Position   string
	Age        float64
	Experience float64
}

// EncodePosition sets the multi-label position flags. A player listed as
// "G-F" is both a guard and a forward.
func EncodePosition(position string) (g, f, c float64) {
	p := strings.ToUpper(position)
	if strings.Contains(p, "G") {
		g = 1
	}
	if strings.Contains(p, "F") {
		f = 1
	}
	if strings.Contains(p, "C") {
		c = 1
	}
	return g, f, c
}

// Series is one player's cleaned, date-ordered game history. All rolling
// and expanding statistics are derived against it.
type Series struct {
	records []gamelog.Record
}

// NewSeries sorts and deduplicates the records. Duplicates with
// conflicting stats fail with a DuplicateRecordError — the builder never
// guesses which copy is real.
func NewSeries(records []gamelog.Record) (*Series, error) {
	cleaned, err := gamelog.Clean(records)
	if err != nil {
		return nil, err
	}
	return &Series{records: cleaned}, nil
}

// Records returns the cleaned series in date order.
func (s *Series) Records() []gamelog.Record { return s.records }

// Len returns the number of games in the series.
func (s *Series) Len() int { return len(s.records) }

// prior returns the games strictly before date. Records is date-ordered,
// so this is a prefix.
func (s *Series) prior(date time.Time) []gamelog.Record {
	n := 0
	for n < len(s.records) && s.records[n].GameDate.Before(date) {
		n++
	}
	return s.records[:n]
}

func column(records []gamelog.Record, get func(gamelog.Record) float64) []float64 {
	vals := make([]float64, len(records))
	for i, r := range records {
		vals[i] = get(r)
	}
	return vals
}

func tail(records []gamelog.Record, n int) []gamelog.Record {
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

var (
	getPts       = func(r gamelog.Record) float64 { return r.Points }
	getAst       = func(r gamelog.Record) float64 { return r.Assists }
	getReb       = func(r gamelog.Record) float64 { return r.Rebounds }
	getStl       = func(r gamelog.Record) float64 { return r.Steals }
	getBlk       = func(r gamelog.Record) float64 { return r.Blocks }
	getTov       = func(r gamelog.Record) float64 { return r.Turnovers }
	getFGPct     = func(r gamelog.Record) float64 { return r.FGPct }
	getFTPct     = func(r gamelog.Record) float64 { return r.FTPct }
	getFG3Pct    = func(r gamelog.Record) float64 { return r.FG3Pct }
	getPlusMinus = func(r gamelog.Record) float64 { return r.PlusMinus }
	getMinutes   = func(r gamelog.Record) float64 { return r.Minutes }
)

// Baseline derives the 37-column block for a target game, using only
// games strictly before it. A player's first game of a season yields
// unknown season averages, never zero.
func (s *Series) Baseline(gctx GameContext) Baseline {
	b := NewBaseline()

	prior := s.prior(gctx.Date)

	var season []gamelog.Record
	for _, r := range prior {
		if r.Season == gctx.Season {
			season = append(season, r)
		}
	}

	// Expanding season averages over all prior games this season.
	b.SeasonAvgPts = stats.Mean(column(season, getPts))
	b.SeasonAvgAst = stats.Mean(column(season, getAst))
	b.SeasonAvgReb = stats.Mean(column(season, getReb))
	b.SeasonAvgStl = stats.Mean(column(season, getStl))
	b.SeasonAvgBlk = stats.Mean(column(season, getBlk))
	b.SeasonAvgTov = stats.Mean(column(season, getTov))
	b.SeasonAvgFGPct = stats.Mean(column(season, getFGPct))
	b.SeasonAvgFTPct = stats.Mean(column(season, getFTPct))
	b.SeasonAvgFG3Pct = stats.Mean(column(season, getFG3Pct))
	b.SeasonAvgPlusMinus = stats.Mean(column(season, getPlusMinus))
	b.SeasonAvgMinutes = stats.Mean(column(season, getMinutes))

	// Rolling windows shrink early in the season rather than going unknown.
	last5 := tail(season, 5)
	b.Last5AvgPts = stats.Mean(column(last5, getPts))
	b.Last5AvgAst = stats.Mean(column(last5, getAst))
	b.Last5AvgReb = stats.Mean(column(last5, getReb))
	b.Last5AvgMinutes = stats.Mean(column(last5, getMinutes))
	b.Last5AvgFGPct = stats.Mean(column(last5, getFGPct))
	b.Last5AvgPlusMinus = stats.Mean(column(last5, getPlusMinus))

	last10 := tail(season, 10)
	b.Last10AvgPts = stats.Mean(column(last10, getPts))
	b.Last10AvgAst = stats.Mean(column(last10, getAst))
	b.Last10AvgReb = stats.Mean(column(last10, getReb))
	b.Last10AvgMinutes = stats.Mean(column(last10, getMinutes))
	b.Last10AvgFGPct = stats.Mean(column(last10, getFGPct))
	b.Last10AvgPlusMinus = stats.Mean(column(last10, getPlusMinus))

	// Home/away split: expanding averages restricted by venue. The
	// difference propagates NaN if either side is undefined.
	var homePts, awayPts []float64
	for _, r := range season {
		if r.Home {
			homePts = append(homePts, r.Points)
		} else {
			awayPts = append(awayPts, r.Points)
		}
	}
	b.HomeAvgPts = stats.Mean(homePts)
	b.AwayAvgPts = stats.Mean(awayPts)
	b.HomeAwayPtsDiff = b.HomeAvgPts - b.AwayAvgPts

	// Per-opponent averages are career-scoped, not season-scoped.
	var vsOpp []gamelog.Record
	for _, r := range prior {
		if r.Opponent == gctx.Opponent {
			vsOpp = append(vsOpp, r)
		}
	}
	b.VsOppAvgPts = stats.Mean(column(vsOpp, getPts))
	b.VsOppAvgReb = stats.Mean(column(vsOpp, getReb))
	b.VsOppAvgAst = stats.Mean(column(vsOpp, getAst))

	// Minutes trend: slope over the last 10 prior games; a trend needs
	// at least two points to exist.
	b.MinutesTrend = stats.Slope(column(tail(season, 10), getMinutes))

	b.GamesPlayedSeason = float64(len(season))
	b.Age = gctx.Age
	b.Experience = gctx.Experience

	if gctx.Home {
		b.IsHome = 1
	}
	b.PosG, b.PosF, b.PosC = EncodePosition(gctx.Position)

	return b
}

// SeasonAverages is the compact per-player stat summary the roster
// resolver ranks by. Missing history yields zeros here, not NaN: the
// talent-loss sums must stay fully defined on sparse data.
type SeasonAverages struct {
	Points  float64
	Assists float64
	Rebs    float64
	Steals  float64
	Blocks  float64
	Minutes float64
	Games   int
}

// SeasonAveragesBefore summarizes the player's season play strictly
// before date.
func (s *Series) SeasonAveragesBefore(season string, date time.Time) SeasonAverages {
	var games []gamelog.Record
	for _, r := range s.prior(date) {
		if r.Season == season {
			games = append(games, r)
		}
	}
	if len(games) == 0 {
		return SeasonAverages{}
	}
	return SeasonAverages{
		Points:  stats.Mean(column(games, getPts)),
		Assists: stats.Mean(column(games, getAst)),
		Rebs:    stats.Mean(column(games, getReb)),
		Steals:  stats.Mean(column(games, getStl)),
		Blocks:  stats.Mean(column(games, getBlk)),
		Minutes: stats.Mean(column(games, getMinutes)),
		Games:   len(games),
	}
}

// LatestSeason returns the season label of the most recent game, or "".
func (s *Series) LatestSeason() string {
	if len(s.records) == 0 {
		return ""
	}
	return s.records[len(s.records)-1].Season
}
