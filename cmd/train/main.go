package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/train"
	"github.com/hoopsight/ripple/pkg/config"
	"github.com/hoopsight/ripple/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.InitLogger("info", false).WithError(err).Fatal("Failed to load configuration")
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameLog, err := gamelog.LoadDir(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to load data snapshot")
	}

	res, err := train.Run(ctx, cfg, gameLog)
	if err != nil {
		log.WithError(err).Fatal("Training pipeline failed")
	}

	log.WithFields(map[string]interface{}{
		"version":            res.Metadata.Version,
		"strategy":           string(res.Metadata.Strategy),
		"median_sensitivity": res.MedianSensitivity,
		"models_dir":         cfg.ModelsDir,
	}).Info("Training run finished")
}
