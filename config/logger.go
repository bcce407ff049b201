package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures the session logger.
type LogConfig struct {
	// Level is debug, info, warn, error or a numeric slog level.
	Level string `mapstructure:"level" yaml:"level"`

	// Filename is the log file. Empty logs to stderr.
	Filename string `mapstructure:"filename" yaml:"filename"`

	MaxSize    int  `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
	AddSource  bool `mapstructure:"add_source" yaml:"add_source"`
}

// Writer returns the log destination: a rotating file when Filename is set,
// stderr otherwise. Closing the stderr writer is a no-op.
func (c LogConfig) Writer() io.WriteCloser {
	if strings.TrimSpace(c.Filename) == "" {
		return nopCloser{os.Stderr}
	}

	return &lumberjack.Logger{
		Filename:   c.Filename,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
	}
}

// NewLogger creates a text logger writing to w at the configured level.
// Unrecognized levels fall back to info.
func NewLogger(c LogConfig, w io.Writer) *slog.Logger {
	level, ok := parseSlogLevel(c.Level)
	if !ok {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: c.AddSource,
		Level:     level,
	}))
}

func parseSlogLevel(value string) (slog.Level, bool) {
	level := strings.ToLower(strings.TrimSpace(value))
	switch level {
	case "", "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n), true
	}
	return slog.LevelInfo, false
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
