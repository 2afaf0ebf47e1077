package roster

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hoopsight/ripple/internal/features"
)

// HealthyKey is the canonical identity of the empty absence set.
const HealthyKey = "healthy"

// AbsenceConfig is the set of players marked absent for one team-game.
// Identity is the set: insertion order and duplicates never matter.
type AbsenceConfig struct {
	ids []int
}

// NewAbsenceConfig canonicalizes the given IDs (sorted, deduplicated).
func NewAbsenceConfig(ids ...int) AbsenceConfig {
	seen := make(map[int]struct{}, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Ints(unique)
	return AbsenceConfig{ids: unique}
}

// Key returns the canonical configuration identity: the sorted absent
// IDs joined, or the healthy sentinel for the empty set. Two configs are
// the same lineup configuration iff their keys are equal.
func (c AbsenceConfig) Key() string {
	if len(c.ids) == 0 {
		return HealthyKey
	}
	parts := make([]string, len(c.ids))
	for i, id := range c.ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// Empty reports whether no player is absent.
func (c AbsenceConfig) Empty() bool { return len(c.ids) == 0 }

// Contains reports whether the player is in the absence set.
func (c AbsenceConfig) Contains(id int) bool {
	i := sort.SearchInts(c.ids, id)
	return i < len(c.ids) && c.ids[i] == id
}

// IDs returns the absent player IDs in canonical order.
func (c AbsenceConfig) IDs() []int {
	out := make([]int, len(c.ids))
	copy(out, c.ids)
	return out
}

// ConfigHistory answers how many prior games a team has already played
// under an exact absence configuration.
type ConfigHistory interface {
	GamesWithConfig(team string, cfg AbsenceConfig) int
}

// ConfigCounter is the in-process config-identity cache, keyed by
// (team, canonical key). During the chronological training scan each
// Observe returns the prior count and then records the occurrence.
type ConfigCounter struct {
	counts map[string]int
}

// NewConfigCounter returns an empty counter.
func NewConfigCounter() *ConfigCounter {
	return &ConfigCounter{counts: make(map[string]int)}
}

func configCacheKey(team string, cfg AbsenceConfig) string {
	return team + "|" + cfg.Key()
}

// Observe returns how many prior games used this config, then counts
// this one. Call in game-date order.
func (cc *ConfigCounter) Observe(team string, cfg AbsenceConfig) int {
	k := configCacheKey(team, cfg)
	prior := cc.counts[k]
	cc.counts[k] = prior + 1
	return prior
}

// GamesWithConfig returns the recorded count, 0 when never seen.
func (cc *ConfigCounter) GamesWithConfig(team string, cfg AbsenceConfig) int {
	return cc.counts[configCacheKey(team, cfg)]
}

// UnknownPlayerWarning flags absence-list entries that were not found on
// the roster snapshot. Non-fatal: stale rosters are expected, so the
// resolver proceeds without them.
type UnknownPlayerWarning struct {
	PlayerIDs []int
}

func (w *UnknownPlayerWarning) Error() string {
	parts := make([]string, len(w.PlayerIDs))
	for i, id := range w.PlayerIDs {
		parts[i] = strconv.Itoa(id)
	}
	return "absence list references players not on roster: " + strings.Join(parts, ", ")
}

// ResolveResult carries the injury feature block plus any non-fatal
// resolution warnings.
type ResolveResult struct {
	Injury  features.Injury
	Warning *UnknownPlayerWarning
}

// Resolve computes the 17-column injury block for a snapshot and an
// absence configuration.
//
// Role and starter flags consider only rostered players. Talent-loss
// sums cover every absent player for whom averages are known — the
// roster first, then the optional external lookup for players who left
// the roster but still have history. The sums are always fully defined;
// unknown players contribute 0.
func Resolve(snap *Snapshot, cfg AbsenceConfig, history ConfigHistory, external func(id int) (features.SeasonAverages, bool)) ResolveResult {
	var inj features.Injury

	if cfg.Empty() {
		// Healthy configuration: the zero block, by construction.
		return ResolveResult{Injury: inj}
	}

	roles := snap.AssignRoles()

	starterFlags := [5]*float64{
		&inj.Starter1Out, &inj.Starter2Out, &inj.Starter3Out,
		&inj.Starter4Out, &inj.Starter5Out,
	}
	for i, id := range roles.Starters {
		if id != -1 && cfg.Contains(id) {
			*starterFlags[i] = 1
			inj.NStartersOut++
		}
	}

	if roles.BallHandler != -1 && cfg.Contains(roles.BallHandler) {
		inj.BallHandlerOut = 1
	}
	if roles.Scorer != -1 && cfg.Contains(roles.Scorer) {
		inj.PrimaryScorerOut = 1
	}
	if roles.Rebounder != -1 && cfg.Contains(roles.Rebounder) {
		inj.PrimaryRebounderOut = 1
	}
	if roles.Defender != -1 && cfg.Contains(roles.Defender) {
		inj.PrimaryDefenderOut = 1
	}
	if roles.SixthMan != -1 && cfg.Contains(roles.SixthMan) {
		inj.SixthManOut = 1
	}

	for id := range roles.Rotation {
		if cfg.Contains(id) {
			inj.NRotationPlayersOut++
		}
	}

	var unknown []int
	for _, id := range cfg.IDs() {
		avgs, onRoster := snap.averagesFor(id)
		if !onRoster {
			unknown = append(unknown, id)
			if external == nil {
				continue
			}
			var known bool
			avgs, known = external(id)
			if !known {
				continue
			}
		}
		inj.TotalPtsLost += avgs.Points
		inj.TotalAstLost += avgs.Assists
		inj.TotalRebLost += avgs.Rebs
		inj.TotalMinutesLost += avgs.Minutes
	}

	if history != nil {
		inj.GamesWithThisConfig = float64(history.GamesWithConfig(snap.Team, cfg))
	}

	res := ResolveResult{Injury: inj}
	if len(unknown) > 0 {
		res.Warning = &UnknownPlayerWarning{PlayerIDs: unknown}
	}
	return res
}
