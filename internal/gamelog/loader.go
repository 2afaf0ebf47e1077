package gamelog

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hoopsight/ripple/pkg/logger"
)

// ParseMinutes converts a minutes cell to a float. The upstream feed
// sometimes delivers "MM:SS" strings instead of decimals.
func ParseMinutes(val string) float64 {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if strings.Contains(val, ":") {
		parts := strings.SplitN(val, ":", 2)
		mins, err1 := strconv.ParseFloat(parts[0], 64)
		secs, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return 0
		}
		return mins + secs/60
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return f
}

// NormalizeSeason maps a bare starting year ("2022") to the label format
// the game-log feed uses ("2022-23"). Labels already in that format pass
// through unchanged.
func NormalizeSeason(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "-") {
		return s
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return s
	}
	next := strconv.Itoa(year + 1)
	return fmt.Sprintf("%d-%s", year, next[len(next)-2:])
}

type csvTable struct {
	cols map[string]int
	rows [][]string
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return &csvTable{cols: cols, rows: rows}, nil
}

func (t *csvTable) str(row []string, col string) string {
	idx, ok := t.cols[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// num parses a numeric cell; missing cells fall back to the given default.
func (t *csvTable) num(row []string, col string, fallback float64) float64 {
	s := t.str(row, col)
	if s == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}

func (t *csvTable) intval(row []string, col string) int {
	return int(t.num(row, col, 0))
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// LoadGameLogs reads the player game log snapshot. Shooting percentages
// and minutes missing from the feed become 0 (a player with no attempts
// has no percentage), matching the upstream processing convention.
func LoadGameLogs(path string) ([]Record, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load game logs: %w", err)
	}

	log := logger.WithStage("load_gamelogs")
	records := make([]Record, 0, len(t.rows))
	skipped := 0
	for _, row := range t.rows {
		date, err := parseDate(t.str(row, "game_date"))
		if err != nil {
			skipped++
			continue
		}
		records = append(records, Record{
			PlayerID:   t.intval(row, "player_id"),
			PlayerName: t.str(row, "player_name"),
			TeamID:     t.intval(row, "team_id"),
			TeamAbbr:   t.str(row, "team_abbr"),
			GameID:     t.str(row, "game_id"),
			GameDate:   date,
			Season:     NormalizeSeason(t.str(row, "season")),
			Opponent:   t.str(row, "opponent"),
			Home:       strings.EqualFold(t.str(row, "home_away"), "HOME"),
			Points:     t.num(row, "pts", 0),
			Assists:    t.num(row, "ast", 0),
			Rebounds:   t.num(row, "reb", 0),
			Steals:     t.num(row, "stl", 0),
			Blocks:     t.num(row, "blk", 0),
			Turnovers:  t.num(row, "tov", 0),
			FGPct:      t.num(row, "fg_pct", 0),
			FTPct:      t.num(row, "ft_pct", 0),
			FG3Pct:     t.num(row, "fg3_pct", 0),
			PlusMinus:  t.num(row, "plus_minus", 0),
			Minutes:    ParseMinutes(t.str(row, "minutes")),
		})
	}
	if skipped > 0 {
		log.WithField("rows", skipped).Warn("Skipped game log rows with unparseable dates")
	}
	log.WithField("rows", len(records)).Info("Loaded game logs")
	return records, nil
}

// LoadRosters reads the roster snapshot. Experience "R" (rookie) maps to 0;
// unparseable ages and experience become NaN so later derivation treats
// them as unknown rather than zero.
func LoadRosters(path string) ([]RosterEntry, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rosters: %w", err)
	}

	entries := make([]RosterEntry, 0, len(t.rows))
	for _, row := range t.rows {
		exp := math.NaN()
		switch expStr := strings.ToUpper(t.str(row, "experience")); {
		case expStr == "R":
			exp = 0
		case expStr != "":
			if f, err := strconv.ParseFloat(expStr, 64); err == nil {
				exp = f
			}
		}
		entries = append(entries, RosterEntry{
			PlayerID:   t.intval(row, "player_id"),
			PlayerName: t.str(row, "player_name"),
			TeamID:     t.intval(row, "team_id"),
			TeamAbbr:   t.str(row, "team_abbr"),
			Season:     NormalizeSeason(t.str(row, "season")),
			Position:   t.str(row, "position"),
			Age:        t.num(row, "age", math.NaN()),
			Experience: exp,
		})
	}
	logger.WithStage("load_rosters").WithField("rows", len(entries)).Info("Loaded rosters")
	return entries, nil
}

// Canonical snapshot filenames inside the data directory.
const (
	GameLogsFile = "player_game_logs.csv"
	RostersFile  = "rosters.csv"
	AbsencesFile = "player_absences.csv"
)

// LoadDir cold-starts the full log from the snapshot directory.
func LoadDir(dir string) (*Log, error) {
	records, err := LoadGameLogs(filepath.Join(dir, GameLogsFile))
	if err != nil {
		return nil, err
	}
	rosters, err := LoadRosters(filepath.Join(dir, RostersFile))
	if err != nil {
		return nil, err
	}
	absences, err := LoadAbsences(filepath.Join(dir, AbsencesFile))
	if err != nil {
		return nil, err
	}
	return NewLog(records, rosters, absences)
}

// LoadAbsences reads the absence report snapshot.
func LoadAbsences(path string) ([]Absence, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load absences: %w", err)
	}

	absences := make([]Absence, 0, len(t.rows))
	for _, row := range t.rows {
		date, err := parseDate(t.str(row, "game_date"))
		if err != nil {
			date = time.Time{}
		}
		absences = append(absences, Absence{
			PlayerID: t.intval(row, "player_id"),
			TeamID:   t.intval(row, "team_id"),
			GameID:   t.str(row, "game_id"),
			GameDate: date,
		})
	}
	logger.WithStage("load_absences").WithField("rows", len(absences)).Info("Loaded absences")
	return absences, nil
}
