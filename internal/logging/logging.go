// Package logging configures the vlogger's own diagnostic output. The
// vlogger is a debug aid inside someone else's process, so diagnostics go to
// stderr (colorized) and optionally to a rotating file, never to stdout.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables controlling diagnostic output.
const (
	// LevelEnvVar selects the minimum level: debug|info|warn|error.
	LevelEnvVar = "WEB_VLOG_LOG_LEVEL"
	// FileEnvVar, when set, mirrors diagnostics into a rotating log file.
	FileEnvVar = "WEB_VLOG_LOG_FILE"
)

// New builds the diagnostic logger from the environment.
func New() *slog.Logger {
	level := parseLevel(os.Getenv(LevelEnvVar))

	var writer io.Writer = os.Stderr
	noColor := false
	if path := strings.TrimSpace(os.Getenv(FileEnvVar)); path != "" {
		writer = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     7, // days
		})
		noColor = true
	}

	return slog.New(tint.NewHandler(writer, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
