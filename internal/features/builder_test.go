package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/ripple/internal/gamelog"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func game(d int, opp string, home bool, pts, minutes float64) gamelog.Record {
	return gamelog.Record{
		PlayerID: 1,
		TeamID:   10,
		TeamAbbr: "BOS",
		GameID:   day(d).Format("g20060102"),
		GameDate: day(d),
		Season:   "2023-24",
		Opponent: opp,
		Home:     home,
		Points:   pts,
		Assists:  pts / 4,
		Rebounds: pts / 3,
		Minutes:  minutes,
	}
}

func ctxFor(d int, opp string, home bool) GameContext {
	return GameContext{
		Date:     day(d),
		Season:   "2023-24",
		Opponent: opp,
		Home:     home,
		Position: "G",
		Age:      26,
	}
}

func TestFirstGameOfSeasonIsUnknown(t *testing.T) {
	s, err := NewSeries([]gamelog.Record{game(5, "NYK", true, 20, 30)})
	require.NoError(t, err)

	b := s.Baseline(ctxFor(5, "NYK", true))
	assert.True(t, math.IsNaN(b.SeasonAvgPts), "no prior games means unknown, not zero")
	assert.True(t, math.IsNaN(b.Last5AvgPts))
	assert.Equal(t, 0.0, b.GamesPlayedSeason)
	assert.Equal(t, 1.0, b.IsHome)
	assert.Equal(t, 1.0, b.PosG)
}

func TestFeaturesUseOnlyStrictlyPriorGames(t *testing.T) {
	s, err := NewSeries([]gamelog.Record{
		game(1, "NYK", true, 10, 30),
		game(3, "MIA", false, 20, 32),
		game(5, "NYK", true, 30, 34),
	})
	require.NoError(t, err)

	b := s.Baseline(ctxFor(5, "NYK", true))
	// The day-5 game itself must not leak into its own features.
	assert.InDelta(t, 15.0, b.SeasonAvgPts, 1e-9)
	assert.Equal(t, 2.0, b.GamesPlayedSeason)
}

func TestNoLeakageFromLaterGames(t *testing.T) {
	base := []gamelog.Record{
		game(1, "NYK", true, 10, 30),
		game(3, "MIA", false, 20, 32),
	}
	s1, err := NewSeries(base)
	require.NoError(t, err)
	before := s1.Baseline(ctxFor(4, "NYK", true))

	// Append games after the target date and rebuild.
	extended := append(append([]gamelog.Record{}, base...),
		game(6, "NYK", true, 50, 40),
		game(8, "MIA", false, 45, 38),
	)
	s2, err := NewSeries(extended)
	require.NoError(t, err)
	after := s2.Baseline(ctxFor(4, "NYK", true))

	assert.Equal(t, before.Vector(), after.Vector())
}

func TestRollingWindowsShrinkEarly(t *testing.T) {
	s, err := NewSeries([]gamelog.Record{
		game(1, "NYK", true, 10, 30),
		game(2, "MIA", false, 30, 30),
	})
	require.NoError(t, err)

	b := s.Baseline(ctxFor(3, "CHI", true))
	// Two prior games: the "last 5" window is just those two.
	assert.InDelta(t, 20.0, b.Last5AvgPts, 1e-9)
	assert.InDelta(t, 20.0, b.Last10AvgPts, 1e-9)
}

func TestHomeAwaySplitPropagatesUnknown(t *testing.T) {
	s, err := NewSeries([]gamelog.Record{
		game(1, "NYK", true, 20, 30),
		game(2, "MIA", true, 24, 30),
	})
	require.NoError(t, err)

	b := s.Baseline(ctxFor(3, "CHI", false))
	assert.InDelta(t, 22.0, b.HomeAvgPts, 1e-9)
	assert.True(t, math.IsNaN(b.AwayAvgPts), "no away games yet")
	assert.True(t, math.IsNaN(b.HomeAwayPtsDiff), "difference with an unknown side is unknown")
}

func TestVsOpponentIsCareerScoped(t *testing.T) {
	lastSeason := game(1, "NYK", true, 40, 36)
	lastSeason.Season = "2022-23"
	lastSeason.GameDate = time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	lastSeason.GameID = "old1"

	s, err := NewSeries([]gamelog.Record{
		lastSeason,
		game(1, "MIA", true, 10, 30),
	})
	require.NoError(t, err)

	b := s.Baseline(ctxFor(3, "NYK", true))
	// Season averages exclude last season, opponent history does not.
	assert.InDelta(t, 10.0, b.SeasonAvgPts, 1e-9)
	assert.InDelta(t, 40.0, b.VsOppAvgPts, 1e-9)
}

func TestMinutesTrendNeedsTwoPriorGames(t *testing.T) {
	s, err := NewSeries([]gamelog.Record{game(1, "NYK", true, 20, 30)})
	require.NoError(t, err)
	b := s.Baseline(ctxFor(2, "MIA", true))
	assert.True(t, math.IsNaN(b.MinutesTrend))

	s, err = NewSeries([]gamelog.Record{
		game(1, "NYK", true, 20, 30),
		game(2, "MIA", true, 20, 34),
	})
	require.NoError(t, err)
	b = s.Baseline(ctxFor(3, "CHI", true))
	assert.InDelta(t, 4.0, b.MinutesTrend, 1e-9)
}

func TestSeriesRejectsConflictingDuplicates(t *testing.T) {
	a := game(1, "NYK", true, 20, 30)
	b := game(1, "NYK", true, 25, 30)
	_, err := NewSeries([]gamelog.Record{a, b})
	assert.ErrorIs(t, err, gamelog.ErrDuplicateRecord)
}

func TestSeasonAveragesBefore(t *testing.T) {
	s, err := NewSeries([]gamelog.Record{
		game(1, "NYK", true, 10, 28),
		game(3, "MIA", false, 20, 32),
		game(5, "CHI", true, 30, 36),
	})
	require.NoError(t, err)

	avgs := s.SeasonAveragesBefore("2023-24", day(5))
	assert.Equal(t, 2, avgs.Games)
	assert.InDelta(t, 15.0, avgs.Points, 1e-9)
	assert.InDelta(t, 30.0, avgs.Minutes, 1e-9)

	empty := s.SeasonAveragesBefore("2023-24", day(1))
	assert.Equal(t, 0, empty.Games)
	assert.Equal(t, 0.0, empty.Points)
}
