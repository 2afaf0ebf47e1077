// Package roster resolves team rosters, player roles, and absence
// configurations into the injury-context feature block.
package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/hoopsight/ripple/internal/features"
	"github.com/hoopsight/ripple/internal/gamelog"
)

// Player is one rostered player with the season averages used for
// starter and role ranking.
type Player struct {
	ID       int
	Name     string
	Averages features.SeasonAverages
}

// Snapshot is the set of players nominally available to a team for a
// given game. It is a point-in-time view, never mutated.
type Snapshot struct {
	Team    string
	Season  string
	Players []Player
}

// Roles holds the deterministic starter and role assignment for a
// snapshot. Slots that cannot be filled hold -1.
type Roles struct {
	// Starters are ordered by season-average minutes descending;
	// Starters[0] is the highest-minutes player.
	Starters [5]int
	// Rotation is the top 8 by minutes.
	Rotation map[int]struct{}

	BallHandler int
	Scorer      int
	Rebounder   int
	Defender    int
	SixthMan    int
}

// ranked returns players sorted by minutes descending, ties broken by
// ascending player ID so repeated runs always agree.
func (s *Snapshot) ranked() []Player {
	players := make([]Player, len(s.Players))
	copy(players, s.Players)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Averages.Minutes != players[j].Averages.Minutes {
			return players[i].Averages.Minutes > players[j].Averages.Minutes
		}
		return players[i].ID < players[j].ID
	})
	return players
}

// maxBy returns the ID of the player maximizing key, ties broken by
// ascending ID. -1 when the slice is empty.
func maxBy(players []Player, key func(Player) float64) int {
	best := -1
	bestVal := 0.0
	for _, p := range players {
		v := key(p)
		if best == -1 || v > bestVal || (v == bestVal && p.ID < best) {
			best = p.ID
			bestVal = v
		}
	}
	return best
}

// AssignRoles ranks the roster and assigns starter slots and specialized
// roles. Starter slots are positional: "starter 1" is the highest-minutes
// player, not a fixed jersey slot.
func (s *Snapshot) AssignRoles() Roles {
	roles := Roles{
		Starters:    [5]int{-1, -1, -1, -1, -1},
		Rotation:    make(map[int]struct{}),
		BallHandler: -1,
		Scorer:      -1,
		Rebounder:   -1,
		Defender:    -1,
		SixthMan:    -1,
	}

	ranked := s.ranked()
	nStarters := len(ranked)
	if nStarters > 5 {
		nStarters = 5
	}
	starters := ranked[:nStarters]
	for i, p := range starters {
		roles.Starters[i] = p.ID
	}
	for i, p := range ranked {
		if i >= 8 {
			break
		}
		roles.Rotation[p.ID] = struct{}{}
	}

	roles.Scorer = maxBy(starters, func(p Player) float64 { return p.Averages.Points })
	roles.BallHandler = maxBy(starters, func(p Player) float64 { return p.Averages.Assists })
	roles.Rebounder = maxBy(starters, func(p Player) float64 { return p.Averages.Rebs })
	roles.Defender = maxBy(starters, func(p Player) float64 { return p.Averages.Steals + p.Averages.Blocks })

	if len(ranked) > nStarters {
		roles.SixthMan = ranked[nStarters].ID
	}

	return roles
}

// averagesFor returns the season averages lookup for one roster player.
func (s *Snapshot) averagesFor(id int) (features.SeasonAverages, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p.Averages, true
		}
	}
	return features.SeasonAverages{}, false
}

// SnapshotFromLog builds a snapshot for the team's current roster from
// game history strictly before asOf. Players with at least minGames
// qualify for ranking; when nobody qualifies the bar drops so a roster
// always exists.
func SnapshotFromLog(log *gamelog.Log, team string, asOf time.Time, minGames int) (*Snapshot, error) {
	ids := log.TeamPlayers(team)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no game history for team %s", team)
	}

	var season string
	players := make([]Player, 0, len(ids))
	qualified := make([]Player, 0, len(ids))
	for _, id := range ids {
		series, err := features.NewSeries(log.Player(id))
		if err != nil {
			return nil, err
		}
		if season == "" {
			season = series.LatestSeason()
		}
		avgs := series.SeasonAveragesBefore(series.LatestSeason(), asOf)
		p := Player{ID: id, Name: log.PlayerName(id), Averages: avgs}
		players = append(players, p)
		if avgs.Games >= minGames {
			qualified = append(qualified, p)
		}
	}
	if len(qualified) == 0 {
		qualified = players
	}

	return &Snapshot{Team: team, Season: season, Players: qualified}, nil
}
