package train

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hoopsight/ripple/internal/predict"
	"github.com/hoopsight/ripple/internal/regress"
)

const reportFile = "evaluation_report.txt"

func writeMetricsTable(b *strings.Builder, title string, metrics map[string]regress.Metrics) {
	if len(metrics) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n", title)
	fmt.Fprintf(b, "  %-8s  %8s  %8s  %8s\n", "stat", "MAE", "RMSE", "R2")
	for _, stat := range predict.StatNames {
		m, ok := metrics[stat]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "  %-8s  %8.3f  %8.3f  %8.3f\n", stat, m.MAE, m.RMSE, m.R2)
	}
	b.WriteString("\n")
}

// writeReport renders the human-readable training summary next to the
// artifacts.
func writeReport(dir string, res *Result) error {
	var b strings.Builder

	b.WriteString("INJURY RIPPLE TRAINING REPORT\n")
	b.WriteString("=============================\n\n")
	fmt.Fprintf(&b, "Trained at:  %s\n", res.Metadata.TrainedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Version:     %s\n", res.Metadata.Version)
	fmt.Fprintf(&b, "Examples:    %d (train %d / test %d)\n\n", res.Examples, res.TrainRows, res.TestRows)

	writeMetricsTable(&b, "Baseline models (held-out)", res.BaselineMetrics)
	writeMetricsTable(&b, "Ridge comparison (held-out)", res.RidgeMetrics)
	writeMetricsTable(&b, "Full ripple models (held-out)", res.FullMetrics)
	writeMetricsTable(&b, "Delta models (held-out, deviation targets)", res.DeltaMetrics)

	b.WriteString("Ripple sensitivity on held-out absence games\n")
	fmt.Fprintf(&b, "  %-8s  %10s  %10s  %8s\n", "stat", "mean", "max", ">1.0")
	for _, stat := range predict.StatNames {
		s, ok := res.Sensitivity[stat]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %-8s  %10.3f  %10.3f  %7.1f%%\n", stat, s.MeanRipple, s.MaxRipple, 100*s.PctAboveOne)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Median sensitivity: %.3f (threshold %.3f)\n", res.MedianSensitivity, res.Metadata.Threshold)
	fmt.Fprintf(&b, "Selected strategy:  %s\n", res.Metadata.Strategy)

	path := filepath.Join(dir, reportFile)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
