// Package train builds the leakage-free training set and runs the full
// training pipeline: model fitting, strategy selection, and artifact
// persistence.
package train

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hoopsight/ripple/internal/features"
	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/roster"
	"github.com/hoopsight/ripple/pkg/logger"
)

// Example is one player-game training row: the full feature row, the
// actual stat line of the game, and whether the team had any reported
// absences that night.
type Example struct {
	PlayerID int
	GameDate time.Time
	Row      features.Row
	Actuals  map[string]float64
	Absences bool
}

type gameKey struct {
	gameID string
	teamID int
}

type teamGame struct {
	gameID   string
	teamID   int
	teamAbbr string
	season   string
	date     time.Time
}

type injuryContext struct {
	injury   features.Injury
	absences bool
}

// actualsFrom extracts the eight target values from a game record.
func actualsFrom(r gamelog.Record) map[string]float64 {
	return map[string]float64{
		"pts":     r.Points,
		"ast":     r.Assists,
		"reb":     r.Rebounds,
		"stl":     r.Steals,
		"blk":     r.Blocks,
		"fg_pct":  r.FGPct,
		"ft_pct":  r.FTPct,
		"minutes": r.Minutes,
	}
}

// seasonAverage picks the season-average column matching a target stat.
// Delta targets are deviations from it; NaN (no prior games) disqualifies
// the row from delta training.
func seasonAverage(b *features.Baseline, stat string) float64 {
	switch stat {
	case "pts":
		return b.SeasonAvgPts
	case "ast":
		return b.SeasonAvgAst
	case "reb":
		return b.SeasonAvgReb
	case "stl":
		return b.SeasonAvgStl
	case "blk":
		return b.SeasonAvgBlk
	case "fg_pct":
		return b.SeasonAvgFGPct
	case "ft_pct":
		return b.SeasonAvgFTPct
	case "minutes":
		return b.SeasonAvgMinutes
	default:
		return math.NaN()
	}
}

// teamGames lists each distinct team appearance per game, in
// chronological order (ties by game ID, then team ID) so config counts
// replay deterministically.
func teamGames(log *gamelog.Log) []teamGame {
	seen := make(map[gameKey]bool)
	var games []teamGame
	for _, r := range log.Records() {
		k := gameKey{r.GameID, r.TeamID}
		if seen[k] {
			continue
		}
		seen[k] = true
		games = append(games, teamGame{
			gameID:   r.GameID,
			teamID:   r.TeamID,
			teamAbbr: r.TeamAbbr,
			season:   r.Season,
			date:     r.GameDate,
		})
	}
	sort.Slice(games, func(i, j int) bool {
		if !games[i].date.Equal(games[j].date) {
			return games[i].date.Before(games[j].date)
		}
		if games[i].gameID != games[j].gameID {
			return games[i].gameID < games[j].gameID
		}
		return games[i].teamID < games[j].teamID
	})
	return games
}

// buildInjuryIndex replays every team-game chronologically, resolving
// its absence configuration against the roster as it stood before that
// game. The returned counter holds the final per-config game counts for
// reuse at serving time.
func buildInjuryIndex(log *gamelog.Log, minGamesForRole int) (map[gameKey]injuryContext, *roster.ConfigCounter) {
	// Per (team, season): the players who appeared and their shared
	// series, so historical snapshots see rosters as of the game date.
	type teamSeasonKey struct {
		teamID int
		season string
	}
	members := make(map[teamSeasonKey]map[int]struct{})
	series := make(map[int]*features.Series)
	for _, id := range log.PlayerIDs() {
		// Per-player records come out of the log already cleaned, so
		// series construction cannot fail here.
		s, err := features.NewSeries(log.Player(id))
		if err != nil {
			continue
		}
		series[id] = s
		for _, r := range s.Records() {
			k := teamSeasonKey{r.TeamID, r.Season}
			if members[k] == nil {
				members[k] = make(map[int]struct{})
			}
			members[k][id] = struct{}{}
		}
	}

	external := func(date time.Time) func(id int) (features.SeasonAverages, bool) {
		return func(id int) (features.SeasonAverages, bool) {
			s, ok := series[id]
			if !ok {
				return features.SeasonAverages{}, false
			}
			avgs := s.SeasonAveragesBefore(s.LatestSeason(), date)
			return avgs, avgs.Games > 0
		}
	}

	counter := roster.NewConfigCounter()
	index := make(map[gameKey]injuryContext)

	for _, g := range teamGames(log) {
		var absent []int
		for id := range log.AbsentPlayers(g.gameID, g.teamID) {
			absent = append(absent, id)
		}
		cfg := roster.NewAbsenceConfig(absent...)

		var players, qualified []roster.Player
		for id := range members[teamSeasonKey{g.teamID, g.season}] {
			avgs := series[id].SeasonAveragesBefore(g.season, g.date)
			p := roster.Player{ID: id, Name: log.PlayerName(id), Averages: avgs}
			players = append(players, p)
			if avgs.Games >= minGamesForRole {
				qualified = append(qualified, p)
			}
		}
		if len(qualified) == 0 {
			qualified = players
		}
		snap := &roster.Snapshot{Team: g.teamAbbr, Season: g.season, Players: qualified}

		// Resolve before observing: games_with_this_config must count
		// only games strictly before this one.
		res := roster.Resolve(snap, cfg, counter, external(g.date))
		counter.Observe(g.teamAbbr, cfg)

		index[gameKey{g.gameID, g.teamID}] = injuryContext{
			injury:   res.Injury,
			absences: !cfg.Empty(),
		}
	}

	return index, counter
}

// BuildDataset derives one example per player-game, features built only
// from games strictly before each target. Players shard across workers;
// within a player the series is processed sequentially in date order.
// The returned examples are sorted by (date, player ID) and the counter
// carries the replayed absence-config history.
func BuildDataset(ctx context.Context, log *gamelog.Log, minGamesForRole, workers int) ([]Example, *roster.ConfigCounter, error) {
	stageLog := logger.WithStage("dataset")
	stageLog.WithField("records", len(log.Records())).Info("Building training dataset")

	injuryIndex, counter := buildInjuryIndex(log, minGamesForRole)

	if workers < 1 {
		workers = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	var examples []Example

	for _, id := range log.PlayerIDs() {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			series, err := features.NewSeries(log.Player(id))
			if err != nil {
				return fmt.Errorf("player %d: %w", id, err)
			}

			local := make([]Example, 0, series.Len())
			for _, r := range series.Records() {
				gctx := features.GameContext{
					Date:       r.GameDate,
					Season:     r.Season,
					Opponent:   r.Opponent,
					Home:       r.Home,
					Age:        math.NaN(),
					Experience: math.NaN(),
				}
				if entry, ok := log.RosterEntryFor(id, r.TeamID, r.Season); ok {
					gctx.Position = entry.Position
					gctx.Age = entry.Age
					gctx.Experience = entry.Experience
				}

				ic := injuryIndex[gameKey{r.GameID, r.TeamID}]
				local = append(local, Example{
					PlayerID: id,
					GameDate: r.GameDate,
					Row:      features.Row{Baseline: series.Baseline(gctx), Injury: ic.injury},
					Actuals:  actualsFrom(r),
					Absences: ic.absences,
				})
			}

			mu.Lock()
			examples = append(examples, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Time order matters downstream: the boosting validation tail must
	// be the most recent rows.
	sort.Slice(examples, func(i, j int) bool {
		if !examples[i].GameDate.Equal(examples[j].GameDate) {
			return examples[i].GameDate.Before(examples[j].GameDate)
		}
		return examples[i].PlayerID < examples[j].PlayerID
	})

	stageLog.WithField("examples", len(examples)).Info("Training dataset ready")
	return examples, counter, nil
}

// Split divides examples at the boundary date: games strictly before it
// train, games on or after it evaluate.
func Split(examples []Example, splitDate time.Time) (trainSet, testSet []Example) {
	for _, ex := range examples {
		if ex.GameDate.Before(splitDate) {
			trainSet = append(trainSet, ex)
		} else {
			testSet = append(testSet, ex)
		}
	}
	return trainSet, testSet
}
