// Package gamelog owns the historical data feed: per-player box score
// records, roster snapshots, and absence reports, loaded once at cold
// start from the periodically refreshed CSV snapshot.
package gamelog

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrDuplicateRecord is returned when two records share a (player, game)
// key but disagree on stat values. The batch is rejected, not guessed at.
var ErrDuplicateRecord = errors.New("duplicate game record with conflicting stats")

// DuplicateRecordError identifies the offending (player, game) pair.
type DuplicateRecordError struct {
	PlayerID int
	GameID   string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("conflicting duplicate record for player %d game %s", e.PlayerID, e.GameID)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicateRecord }

// Record is one player's box score for one game. Immutable once loaded.
type Record struct {
	PlayerID   int       `json:"player_id"`
	PlayerName string    `json:"player_name"`
	TeamID     int       `json:"team_id"`
	TeamAbbr   string    `json:"team_abbr"`
	GameID     string    `json:"game_id"`
	GameDate   time.Time `json:"game_date"`
	Season     string    `json:"season"`
	Opponent   string    `json:"opponent"`
	Home       bool      `json:"home"`

	Points    float64 `json:"pts"`
	Assists   float64 `json:"ast"`
	Rebounds  float64 `json:"reb"`
	Steals    float64 `json:"stl"`
	Blocks    float64 `json:"blk"`
	Turnovers float64 `json:"tov"`
	FGPct     float64 `json:"fg_pct"`
	FTPct     float64 `json:"ft_pct"`
	FG3Pct    float64 `json:"fg3_pct"`
	PlusMinus float64 `json:"plus_minus"`
	Minutes   float64 `json:"minutes"`
}

// RosterEntry is one player's demographic row for a team-season.
type RosterEntry struct {
	PlayerID   int    `json:"player_id"`
	PlayerName string `json:"player_name"`
	TeamID     int    `json:"team_id"`
	TeamAbbr   string `json:"team_abbr"`
	Season     string `json:"season"`
	Position   string `json:"position"`
	Age        float64
	Experience float64
}

// Absence marks one player unavailable for one team-game.
type Absence struct {
	PlayerID int       `json:"player_id"`
	TeamID   int       `json:"team_id"`
	GameID   string    `json:"game_id"`
	GameDate time.Time `json:"game_date"`
}

// statsEqual compares the stat payload of two records for the same key.
func statsEqual(a, b Record) bool {
	return a.Points == b.Points &&
		a.Assists == b.Assists &&
		a.Rebounds == b.Rebounds &&
		a.Steals == b.Steals &&
		a.Blocks == b.Blocks &&
		a.Turnovers == b.Turnovers &&
		a.FGPct == b.FGPct &&
		a.FTPct == b.FTPct &&
		a.FG3Pct == b.FG3Pct &&
		a.PlusMinus == b.PlusMinus &&
		a.Minutes == b.Minutes
}

// Clean deduplicates on (player, game) and sorts by (player, date).
// Exact duplicates are dropped; duplicates with conflicting stats fail
// the whole batch with a DuplicateRecordError.
func Clean(records []Record) ([]Record, error) {
	type key struct {
		playerID int
		gameID   string
	}
	seen := make(map[key]Record, len(records))
	cleaned := make([]Record, 0, len(records))
	for _, r := range records {
		k := key{r.PlayerID, r.GameID}
		if prev, ok := seen[k]; ok {
			if !statsEqual(prev, r) {
				return nil, &DuplicateRecordError{PlayerID: r.PlayerID, GameID: r.GameID}
			}
			continue
		}
		seen[k] = r
		cleaned = append(cleaned, r)
	}
	sort.SliceStable(cleaned, func(i, j int) bool {
		if cleaned[i].PlayerID != cleaned[j].PlayerID {
			return cleaned[i].PlayerID < cleaned[j].PlayerID
		}
		return cleaned[i].GameDate.Before(cleaned[j].GameDate)
	})
	return cleaned, nil
}

// Log is the cleaned, indexed game history. Read-only after construction.
type Log struct {
	records  []Record
	byPlayer map[int][]Record
	absences map[absenceKey]map[int]struct{}
	rosters  []RosterEntry
}

type absenceKey struct {
	gameID string
	teamID int
}

// NewLog cleans the records and builds player/absence indexes.
func NewLog(records []Record, rosters []RosterEntry, absences []Absence) (*Log, error) {
	cleaned, err := Clean(records)
	if err != nil {
		return nil, err
	}
	l := &Log{
		records:  cleaned,
		byPlayer: make(map[int][]Record),
		absences: make(map[absenceKey]map[int]struct{}),
		rosters:  rosters,
	}
	for _, r := range cleaned {
		l.byPlayer[r.PlayerID] = append(l.byPlayer[r.PlayerID], r)
	}
	for _, a := range absences {
		k := absenceKey{a.GameID, a.TeamID}
		if l.absences[k] == nil {
			l.absences[k] = make(map[int]struct{})
		}
		l.absences[k][a.PlayerID] = struct{}{}
	}
	return l, nil
}

// Records returns all records in (player, date) order.
func (l *Log) Records() []Record { return l.records }

// Player returns one player's records in date order.
func (l *Log) Player(id int) []Record { return l.byPlayer[id] }

// PlayerIDs returns the distinct player IDs in ascending order.
func (l *Log) PlayerIDs() []int {
	ids := make([]int, 0, len(l.byPlayer))
	for id := range l.byPlayer {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AbsentPlayers returns the set of players marked absent for a team-game.
func (l *Log) AbsentPlayers(gameID string, teamID int) map[int]struct{} {
	return l.absences[absenceKey{gameID, teamID}]
}

// Rosters returns the raw roster rows.
func (l *Log) Rosters() []RosterEntry { return l.rosters }

// RosterEntryFor returns the roster row for a player's team-season, if any.
func (l *Log) RosterEntryFor(playerID, teamID int, season string) (RosterEntry, bool) {
	for _, e := range l.rosters {
		if e.PlayerID == playerID && e.TeamID == teamID && e.Season == season {
			return e, true
		}
	}
	return RosterEntry{}, false
}

// CurrentTeam returns the team of the player's most recent game, so
// mid-season trades resolve to the newest club. Empty if unknown.
func (l *Log) CurrentTeam(playerID int) string {
	recs := l.byPlayer[playerID]
	if len(recs) == 0 {
		return ""
	}
	return recs[len(recs)-1].TeamAbbr
}

// PlayerName returns the display name from the player's latest record.
func (l *Log) PlayerName(playerID int) string {
	recs := l.byPlayer[playerID]
	if len(recs) == 0 {
		return fmt.Sprintf("Unknown (%d)", playerID)
	}
	return recs[len(recs)-1].PlayerName
}

// TeamPlayers returns the distinct player IDs whose current team is abbr.
func (l *Log) TeamPlayers(abbr string) []int {
	var ids []int
	for id := range l.byPlayer {
		if l.CurrentTeam(id) == abbr {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
