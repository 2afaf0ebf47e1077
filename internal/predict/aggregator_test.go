package predict

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/regress"
	"github.com/hoopsight/ripple/internal/roster"
)

// teamLog builds a 10-man roster with a clear minutes hierarchy, three
// games of history each.
func teamLog(t *testing.T) *gamelog.Log {
	t.Helper()
	minutes := []float64{36, 34, 32, 28, 22, 18, 15, 12, 8, 5}

	var records []gamelog.Record
	for g := 1; g <= 3; g++ {
		for i, mins := range minutes {
			id := i + 1
			records = append(records, gamelog.Record{
				PlayerID:   id,
				PlayerName: fmt.Sprintf("Player %d", id),
				TeamID:     10,
				TeamAbbr:   "BOS",
				GameID:     fmt.Sprintf("g%d", g),
				GameDate:   time.Date(2024, 1, g, 0, 0, 0, 0, time.UTC),
				Season:     "2023-24",
				Opponent:   "NYK",
				Home:       true,
				Points:     mins * 0.8,
				Assists:    mins * 0.2,
				Rebounds:   mins * 0.25,
				Minutes:    mins,
			})
		}
	}
	log, err := gamelog.NewLog(records, nil, nil)
	require.NoError(t, err)
	return log
}

func newTestAggregator(t *testing.T, log *gamelog.Log) *Aggregator {
	t.Helper()
	dir := t.TempDir()
	for i, stat := range StatNames {
		saveConstantModel(t, dir, regress.KindBaseline, stat, float64(10+i), 37)
		saveConstantModel(t, dir, regress.KindRipple, stat, 1.0, 17)
	}
	registry := NewRegistry(dir)
	return NewAggregator(
		log,
		NewBaselinePredictor(registry, log),
		NewRipplePredictor(registry, StrategyDelta),
		roster.BuildConfigHistory(log),
		2,
	)
}

func TestRippleEffectEndToEnd(t *testing.T) {
	log := teamLog(t)
	agg := newTestAggregator(t, log)

	report, err := agg.RippleEffect(context.Background(), Request{
		Team:     "BOS",
		Absences: []int{1},
		Opponent: "NYK",
		Home:     true,
		Date:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, "1", report.ConfigKey)
	require.Len(t, report.AbsentPlayers, 1)
	assert.Equal(t, "Player 1", report.AbsentPlayers[0].Name)
	assert.Empty(t, report.Warnings)

	// The top-minutes player is starter 1 and, with points tracking
	// minutes, also the primary scorer.
	assert.Equal(t, 1.0, report.InjuryContext.NStartersOut)
	assert.Equal(t, 1.0, report.InjuryContext.Starter1Out)
	assert.Equal(t, 1.0, report.InjuryContext.PrimaryScorerOut)
	assert.InDelta(t, 36.0, report.InjuryContext.TotalMinutesLost, 1e-9)

	// Nine remaining players, the absentee excluded.
	require.Len(t, report.Players, 9)
	for _, p := range report.Players {
		assert.NotEqual(t, 1, p.PlayerID)

		for _, stat := range StatNames {
			base, ok := p.Baseline.Values[stat]
			require.True(t, ok, "stat %s", stat)
			adj, ok := p.WithInjuries.Values[stat]
			require.True(t, ok, "stat %s", stat)
			assert.InDelta(t, base+p.RippleEffect[stat], adj, 1e-6)
		}
		assert.Equal(t, 1.0, p.RippleEffect["pts"])
	}

	// Equal |pts| impact everywhere, so ranking falls to player ID.
	for i := 1; i < len(report.Players); i++ {
		assert.Greater(t, report.Players[i].PlayerID, report.Players[i-1].PlayerID)
	}
}

func TestRippleEffectHealthyRosterIsBaseline(t *testing.T) {
	agg := newTestAggregator(t, teamLog(t))

	report, err := agg.RippleEffect(context.Background(), Request{
		Team: "BOS",
		Home: true,
		Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, roster.HealthyKey, report.ConfigKey)
	assert.Empty(t, report.AbsentPlayers)
	require.Len(t, report.Players, 10)

	for _, p := range report.Players {
		for _, stat := range StatNames {
			assert.Equal(t, 0.0, p.RippleEffect[stat])
			// Exact equality: no inference happened for the deltas.
			assert.Equal(t, p.Baseline.Values[stat], p.WithInjuries.Values[stat])
		}
	}
}

func TestRippleEffectUnknownAbsentPlayer(t *testing.T) {
	agg := newTestAggregator(t, teamLog(t))

	report, err := agg.RippleEffect(context.Background(), Request{
		Team:     "BOS",
		Absences: []int{1, 999},
		Home:     true,
		Date:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "999")
	// The known absentee still shapes the injury context.
	assert.Equal(t, 1.0, report.InjuryContext.NStartersOut)
}

func TestRippleEffectAbsenceOrderIrrelevant(t *testing.T) {
	agg := newTestAggregator(t, teamLog(t))
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	a, err := agg.RippleEffect(context.Background(), Request{Team: "BOS", Absences: []int{2, 1}, Date: date})
	require.NoError(t, err)
	b, err := agg.RippleEffect(context.Background(), Request{Team: "BOS", Absences: []int{1, 2, 2}, Date: date})
	require.NoError(t, err)

	assert.Equal(t, a.ConfigKey, b.ConfigKey)
	assert.Equal(t, a.InjuryContext, b.InjuryContext)
	assert.Equal(t, len(a.Players), len(b.Players))
}

func TestRippleEffectUnknownTeam(t *testing.T) {
	agg := newTestAggregator(t, teamLog(t))
	_, err := agg.RippleEffect(context.Background(), Request{Team: "???", Date: time.Now()})
	assert.Error(t, err)
}

func TestSimulateHonorsCancellation(t *testing.T) {
	agg := newTestAggregator(t, teamLog(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agg.Simulate(ctx, "BOS", []int{1}, "NYK", true, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
