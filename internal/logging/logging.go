// Package logging configures the application's file-backed logger. The
// TUI owns the terminal, so log output always goes to a rotated file
// under the data directory.
package logging

import (
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates the root logger writing to <dataDir>/truelog.log with
// rotation. level accepts the standard zerolog level names; anything
// unparsable falls back to info.
func New(dataDir, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = &lumberjack.Logger{
		Filename:   filepath.Join(dataDir, "truelog.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(output).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
