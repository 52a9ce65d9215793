package utils

import (
	"os"
	"strings"
	"time"

	"portfolio/config"

	"github.com/rs/zerolog"
)

// NewLogger creates the service logger. Components derive from it with
// .With().Str("component", ...).
func NewLogger(cfg *config.Config) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.DebugMode,
	}
	return zerolog.New(output).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Logger().
		Level(parseLevel(cfg.LogLevel))
}

func parseLevel(raw string) zerolog.Level {
	if raw == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
