package predict

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/hoopsight/ripple/internal/features"
	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/roster"
	"github.com/hoopsight/ripple/pkg/logger"
)

// Request describes one team-game ripple query. Absences is the
// caller-supplied list of absent player IDs; order and duplicates are
// irrelevant, the set is canonicalized on entry.
type Request struct {
	Team     string
	Absences []int
	Opponent string
	Home     bool
	Date     time.Time
}

// AbsentPlayer names one member of the resolved absence configuration.
type AbsentPlayer struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
}

// PlayerImpact is the per-player triple: healthy projection, projection
// under the absences, and the difference between them.
type PlayerImpact struct {
	PlayerID     int                `json:"player_id"`
	Name         string             `json:"name"`
	Baseline     StatPrediction     `json:"baseline"`
	WithInjuries StatPrediction     `json:"with_injuries"`
	RippleEffect map[string]float64 `json:"ripple_effect"`
}

// Report is the full ripple answer for one request.
type Report struct {
	Team          string          `json:"team"`
	GameDate      time.Time       `json:"game_date"`
	Opponent      string          `json:"opponent,omitempty"`
	Home          bool            `json:"home"`
	Strategy      Strategy        `json:"strategy"`
	ConfigKey     string          `json:"config_key"`
	AbsentPlayers []AbsentPlayer  `json:"absent_players"`
	InjuryContext features.Injury `json:"injury_context"`
	Players       []PlayerImpact  `json:"players"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// Aggregator runs the two-stage pipeline across a roster: resolve the
// absence configuration once, then predict every remaining player and
// rank them by how hard the absences hit their scoring.
type Aggregator struct {
	log             *gamelog.Log
	baseline        *BaselinePredictor
	ripple          *RipplePredictor
	history         roster.ConfigHistory
	minGamesForRole int
}

// NewAggregator wires the aggregator to its collaborators. The config
// history is the same counter the training scan produced, so serving
// sees the lineup-experience counts the models were trained against.
func NewAggregator(log *gamelog.Log, baseline *BaselinePredictor, ripple *RipplePredictor, history roster.ConfigHistory, minGamesForRole int) *Aggregator {
	return &Aggregator{
		log:             log,
		baseline:        baseline,
		ripple:          ripple,
		history:         history,
		minGamesForRole: minGamesForRole,
	}
}

// externalAverages looks up season averages for absent players who are
// not on the current snapshot but still have game history, so trades and
// roster churn do not silently zero their talent loss.
func (a *Aggregator) externalAverages(date time.Time) func(id int) (features.SeasonAverages, bool) {
	return func(id int) (features.SeasonAverages, bool) {
		series, err := features.NewSeries(a.log.Player(id))
		if err != nil || series.Len() == 0 {
			return features.SeasonAverages{}, false
		}
		avgs := series.SeasonAveragesBefore(series.LatestSeason(), date)
		return avgs, avgs.Games > 0
	}
}

// RippleEffect answers a ripple query: the injury context, and for every
// non-absent rostered player the baseline projection, the
// absence-adjusted projection, and their per-stat difference. Players
// are ranked by absolute points impact, biggest first, ties broken by
// ascending player ID.
func (a *Aggregator) RippleEffect(ctx context.Context, req Request) (*Report, error) {
	cfg := roster.NewAbsenceConfig(req.Absences...)

	snap, err := roster.SnapshotFromLog(a.log, req.Team, req.Date, a.minGamesForRole)
	if err != nil {
		return nil, fmt.Errorf("failed to build roster snapshot: %w", err)
	}

	res := roster.Resolve(snap, cfg, a.history, a.externalAverages(req.Date))

	report := &Report{
		Team:          req.Team,
		GameDate:      req.Date,
		Opponent:      req.Opponent,
		Home:          req.Home,
		Strategy:      a.ripple.Strategy(),
		ConfigKey:     cfg.Key(),
		InjuryContext: res.Injury,
	}
	for _, id := range cfg.IDs() {
		report.AbsentPlayers = append(report.AbsentPlayers, AbsentPlayer{
			PlayerID: id,
			Name:     a.log.PlayerName(id),
		})
	}
	if res.Warning != nil {
		report.Warnings = append(report.Warnings, res.Warning.Error())
	}

	spec := GameSpec{Opponent: req.Opponent, Home: req.Home, Date: req.Date}

	for _, player := range snap.Players {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if cfg.Contains(player.ID) {
			continue
		}

		impact, err := a.playerImpact(ctx, player.ID, player.Name, spec, res.Injury, cfg)
		if err != nil {
			return nil, err
		}
		report.Players = append(report.Players, impact)
	}

	sort.SliceStable(report.Players, func(i, j int) bool {
		di := math.Abs(report.Players[i].RippleEffect["pts"])
		dj := math.Abs(report.Players[j].RippleEffect["pts"])
		if di != dj {
			return di > dj
		}
		return report.Players[i].PlayerID < report.Players[j].PlayerID
	})

	logger.WithTeamContext(req.Team, req.Date.Format("2006-01-02")).WithFields(map[string]interface{}{
		"config_key": report.ConfigKey,
		"n_absent":   len(report.AbsentPlayers),
		"n_players":  len(report.Players),
	}).Info("Computed ripple effect")

	return report, nil
}

// Simulate answers a hypothetical what-if query. It is the same
// computation as RippleEffect; the name marks that the absences need not
// correspond to any reported injury.
func (a *Aggregator) Simulate(ctx context.Context, team string, absences []int, opponent string, home bool, date time.Time) (*Report, error) {
	return a.RippleEffect(ctx, Request{
		Team:     team,
		Absences: absences,
		Opponent: opponent,
		Home:     home,
		Date:     date,
	})
}

// playerImpact computes one player's triple. A stat is included only
// when both its baseline and ripple models are available; otherwise it
// is omitted and listed in MissingStats on both predictions.
func (a *Aggregator) playerImpact(ctx context.Context, playerID int, name string, spec GameSpec, injury features.Injury, cfg roster.AbsenceConfig) (PlayerImpact, error) {
	base, err := a.baseline.Features(playerID, spec)
	if err != nil {
		return PlayerImpact{}, err
	}

	basePred := a.baseline.fromFeatures(playerID, spec, &base)

	row := features.Row{Baseline: base, Injury: injury}
	deltas, rippleMissing, err := a.ripple.Deltas(ctx, row, cfg)
	if err != nil {
		return PlayerImpact{}, err
	}

	missing := make(map[string]struct{}, len(basePred.MissingStats)+len(rippleMissing))
	for _, stat := range basePred.MissingStats {
		missing[stat] = struct{}{}
	}
	for _, stat := range rippleMissing {
		missing[stat] = struct{}{}
	}

	adjusted := StatPrediction{
		Values:                 make(map[string]float64, len(StatNames)),
		LowConfidence:          basePred.LowConfidence,
		MatchupDataUnavailable: basePred.MatchupDataUnavailable,
	}
	effect := make(map[string]float64, len(StatNames))
	var missingList []string
	for _, stat := range StatNames {
		if _, skip := missing[stat]; skip {
			missingList = append(missingList, stat)
			delete(basePred.Values, stat)
			continue
		}
		// Additive by construction: the adjusted value is the baseline
		// plus the delta, never an independent model output.
		effect[stat] = deltas[stat]
		adjusted.Values[stat] = basePred.Values[stat] + deltas[stat]
	}
	basePred.MissingStats = missingList
	adjusted.MissingStats = append([]string(nil), missingList...)

	return PlayerImpact{
		PlayerID:     playerID,
		Name:         name,
		Baseline:     basePred,
		WithInjuries: adjusted,
		RippleEffect: effect,
	}, nil
}
