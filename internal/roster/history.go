package roster

import (
	"sort"

	"github.com/hoopsight/ripple/internal/gamelog"
)

// BuildConfigHistory replays the log's team-games in date order and
// counts occurrences of each absence configuration per team, producing
// the lookup behind the games-with-this-config feature.
func BuildConfigHistory(log *gamelog.Log) *ConfigCounter {
	type teamGame struct {
		gameID   string
		teamID   int
		teamAbbr string
		dateUnix int64
	}
	seen := make(map[string]struct{})
	var games []teamGame
	for _, r := range log.Records() {
		k := r.GameID + "|" + r.TeamAbbr
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		games = append(games, teamGame{
			gameID:   r.GameID,
			teamID:   r.TeamID,
			teamAbbr: r.TeamAbbr,
			dateUnix: r.GameDate.Unix(),
		})
	}
	sort.SliceStable(games, func(i, j int) bool {
		if games[i].dateUnix != games[j].dateUnix {
			return games[i].dateUnix < games[j].dateUnix
		}
		return games[i].gameID < games[j].gameID
	})

	counter := NewConfigCounter()
	for _, g := range games {
		var ids []int
		for id := range log.AbsentPlayers(g.gameID, g.teamID) {
			ids = append(ids, id)
		}
		counter.Observe(g.teamAbbr, NewAbsenceConfig(ids...))
	}
	return counter
}
