// Package logger builds the structured zerolog logger shared by every sync unit.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Enable pretty console output
	File   string // Optional rotating log file, written in JSON regardless of Pretty

	// Output overrides the console writer (defaults to os.Stderr).
	Output io.Writer
}

// New creates a new structured logger
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	// Console goes to stderr so stdout stays reserved for the per-domain summary lines.
	var console io.Writer = os.Stderr
	if cfg.Output != nil {
		console = cfg.Output
	}
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: "15:04:05",
		}
	}

	output := console
	if cfg.File != "" {
		output = zerolog.MultiLevelWriter(console, newFileWriter(cfg.File))
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// newFileWriter returns a size-rotated file sink.
func newFileWriter(path string) io.Writer {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

// SetGlobalLogger sets the package-level logger
func SetGlobalLogger(l zerolog.Logger) {
	log.Logger = l
}
