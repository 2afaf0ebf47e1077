// ripplesim answers what-if injury queries against trained artifacts:
// given a team, a hypothetical absence list, and a game context, it
// prints the ranked ripple table for the remaining roster.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/predict"
	"github.com/hoopsight/ripple/internal/roster"
	"github.com/hoopsight/ripple/pkg/config"
	"github.com/hoopsight/ripple/pkg/logger"
)

func parseIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid player id %q", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func main() {
	var (
		team     = flag.String("team", "", "team abbreviation (required)")
		absent   = flag.String("absent", "", "comma-separated absent player IDs")
		opponent = flag.String("opponent", "", "opponent abbreviation")
		home     = flag.Bool("home", true, "home game")
		dateStr  = flag.String("date", time.Now().Format("2006-01-02"), "game date (YYYY-MM-DD)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.InitLogger("info", false).WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	if *team == "" {
		flag.Usage()
		os.Exit(2)
	}
	date, err := time.Parse("2006-01-02", *dateStr)
	if err != nil {
		log.WithError(err).Fatal("Invalid -date")
	}
	ids, err := parseIDs(*absent)
	if err != nil {
		log.WithError(err).Fatal("Invalid -absent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameLog, err := gamelog.LoadDir(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to load data snapshot")
	}

	md, err := predict.LoadMetadata(cfg.ModelsDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to load strategy metadata, run training first")
	}

	registry := predict.NewRegistry(cfg.ModelsDir)
	baseline := predict.NewBaselinePredictor(registry, gameLog)
	ripple := predict.NewRipplePredictor(registry, md.Strategy)
	history := roster.BuildConfigHistory(gameLog)
	agg := predict.NewAggregator(gameLog, baseline, ripple, history, cfg.MinGamesForRole)

	report, err := agg.Simulate(ctx, *team, ids, *opponent, *home, date)
	if err != nil {
		log.WithError(err).Fatal("Simulation failed")
	}

	render(report)
}

func render(r *predict.Report) {
	fmt.Printf("Team %s on %s", r.Team, r.GameDate.Format("2006-01-02"))
	if r.Opponent != "" {
		venue := "vs"
		if !r.Home {
			venue = "at"
		}
		fmt.Printf(" %s %s", venue, r.Opponent)
	}
	fmt.Printf("  [strategy=%s config=%s]\n", r.Strategy, r.ConfigKey)

	if len(r.AbsentPlayers) == 0 {
		fmt.Println("Absences: none")
	} else {
		names := make([]string, len(r.AbsentPlayers))
		for i, p := range r.AbsentPlayers {
			names[i] = fmt.Sprintf("%s (%d)", p.Name, p.PlayerID)
		}
		fmt.Printf("Absences: %s\n", strings.Join(names, ", "))
	}
	for _, w := range r.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tPTS\tADJ PTS\tPTS +/-\tAST +/-\tREB +/-\tMIN +/-\tFLAGS")
	for _, p := range r.Players {
		flags := ""
		if p.Baseline.LowConfidence {
			flags += "low-confidence "
		}
		if p.Baseline.MatchupDataUnavailable {
			flags += "no-matchup-data"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%+.1f\t%+.1f\t%+.1f\t%+.1f\t%s\n",
			p.Name,
			statCell(p.Baseline, "pts"),
			statCell(p.WithInjuries, "pts"),
			p.RippleEffect["pts"],
			p.RippleEffect["ast"],
			p.RippleEffect["reb"],
			p.RippleEffect["minutes"],
			strings.TrimSpace(flags),
		)
	}
	w.Flush()

	if len(r.Players) > 0 {
		if missing := r.Players[0].Baseline.MissingStats; len(missing) > 0 {
			fmt.Printf("\nStats omitted (model unavailable): %s\n", strings.Join(missing, ", "))
		}
	}
}

func statCell(p predict.StatPrediction, stat string) string {
	v, ok := p.Values[stat]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}
