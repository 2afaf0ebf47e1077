package train

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/ripple/internal/features"
	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/roster"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// fixtureLog builds four team-games for a three-man roster. Player 1
// misses games 3 and 4.
func fixtureLog(t *testing.T) *gamelog.Log {
	t.Helper()
	var records []gamelog.Record
	var absences []gamelog.Absence
	for g := 1; g <= 4; g++ {
		for id := 1; id <= 3; id++ {
			if id == 1 && g >= 3 {
				continue
			}
			records = append(records, gamelog.Record{
				PlayerID:   id,
				PlayerName: fmt.Sprintf("Player %d", id),
				TeamID:     10,
				TeamAbbr:   "BOS",
				GameID:     fmt.Sprintf("g%d", g),
				GameDate:   day(g),
				Season:     "2023-24",
				Opponent:   "NYK",
				Home:       g%2 == 1,
				Points:     float64(10 + id),
				Minutes:    float64(40 - 5*id),
			})
		}
		if g >= 3 {
			absences = append(absences, gamelog.Absence{
				PlayerID: 1, TeamID: 10, GameID: fmt.Sprintf("g%d", g), GameDate: day(g),
			})
		}
	}
	log, err := gamelog.NewLog(records, nil, absences)
	require.NoError(t, err)
	return log
}

func TestBuildDatasetOneExamplePerPlayerGame(t *testing.T) {
	log := fixtureLog(t)
	examples, _, err := BuildDataset(context.Background(), log, 1, 2)
	require.NoError(t, err)
	assert.Len(t, examples, len(log.Records()))
}

func TestBuildDatasetAbsenceContext(t *testing.T) {
	examples, counter, err := BuildDataset(context.Background(), fixtureLog(t), 1, 2)
	require.NoError(t, err)

	byGame := make(map[string][]Example)
	for _, ex := range examples {
		byGame[ex.GameDate.Format("02")] = append(byGame[ex.GameDate.Format("02")], ex)
	}

	// Healthy games carry the zero injury block.
	for _, ex := range byGame["01"] {
		assert.False(t, ex.Absences)
		assert.Equal(t, features.Injury{}, ex.Row.Injury)
	}

	// Game 3 is the first occurrence of the config, game 4 the second.
	for _, ex := range byGame["03"] {
		assert.True(t, ex.Absences)
		assert.Equal(t, 0.0, ex.Row.Injury.GamesWithThisConfig)
		assert.Equal(t, 1.0, ex.Row.Injury.NStartersOut)
	}
	for _, ex := range byGame["04"] {
		assert.Equal(t, 1.0, ex.Row.Injury.GamesWithThisConfig)
	}

	// The counter ends up with the fully replayed history.
	assert.Equal(t, 2, counter.GamesWithConfig("BOS", roster.NewAbsenceConfig(1)))
}

func TestBuildDatasetDeterministic(t *testing.T) {
	log := fixtureLog(t)
	a, _, err := BuildDataset(context.Background(), log, 1, 4)
	require.NoError(t, err)
	b, _, err := BuildDataset(context.Background(), log, 1, 1)
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].PlayerID, b[i].PlayerID)
		assert.Equal(t, a[i].Row.RippleVector(), b[i].Row.RippleVector())
	}
}

func TestBuildDatasetHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := BuildDataset(ctx, fixtureLog(t), 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitByDate(t *testing.T) {
	examples, _, err := BuildDataset(context.Background(), fixtureLog(t), 1, 2)
	require.NoError(t, err)

	trainSet, testSet := Split(examples, day(3))
	assert.Len(t, trainSet, 6)
	assert.Len(t, testSet, 4)
	for _, ex := range trainSet {
		assert.True(t, ex.GameDate.Before(day(3)))
	}
	for _, ex := range testSet {
		assert.False(t, ex.GameDate.Before(day(3)))
	}
}

func TestSeasonAverageMapping(t *testing.T) {
	b := features.NewBaseline()
	b.SeasonAvgPts = 22
	b.SeasonAvgMinutes = 33

	assert.Equal(t, 22.0, seasonAverage(&b, "pts"))
	assert.Equal(t, 33.0, seasonAverage(&b, "minutes"))
	assert.True(t, math.IsNaN(seasonAverage(&b, "ast")))
	assert.True(t, math.IsNaN(seasonAverage(&b, "bogus")))
}

func TestDeltaRowsSkipUnknownAverages(t *testing.T) {
	examples, _, err := BuildDataset(context.Background(), fixtureLog(t), 1, 2)
	require.NoError(t, err)

	X, y := deltaRows(examples, "pts")
	// Each player's first game has no season average yet.
	assert.Len(t, X, len(examples)-3)
	assert.Len(t, y, len(X))
	for _, row := range X {
		assert.Len(t, row, 17)
	}
}
