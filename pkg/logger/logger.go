package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger configures the process-wide logger. Both binaries are
// one-shot, so output goes to stdout and the format is fixed at startup:
// plain text for development runs, JSON otherwise.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(resolveLevel(log, logLevel, isDevelopment))

	if isDevelopment {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	}

	Logger = log
	return log
}

func resolveLevel(log *logrus.Logger, logLevel string, isDevelopment bool) logrus.Level {
	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel != "" {
		level, err := logrus.ParseLevel(strings.ToLower(logLevel))
		if err == nil {
			return level
		}
		log.WithField("invalid_level", logLevel).Warn("Invalid log level, using default")
	}
	if isDevelopment {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// WithStage creates a logger scoped to a pipeline stage
func WithStage(stage string) *logrus.Entry {
	return GetLogger().WithField("stage", stage)
}

// WithTeamContext creates a logger with team and game context
func WithTeamContext(team, gameDate string) *logrus.Entry {
	fields := logrus.Fields{}
	if team != "" {
		fields["team"] = team
	}
	if gameDate != "" {
		fields["game_date"] = gameDate
	}
	return GetLogger().WithFields(fields)
}

// WithModelContext creates a logger with model slot context
func WithModelContext(stat, kind string) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"stat": stat,
		"kind": kind,
	})
}
