package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// base backs the package level helpers used before a component logger exists
var base zerolog.Logger

// Config controls the process wide logger
type Config struct {
	// Level is a zerolog level name; unknown names fall back to info
	Level string
	// Pretty switches to the human readable console writer
	Pretty bool
	// Output defaults to stdout
	Output io.Writer

	// File additionally receives JSON lines, rotated by size
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// ParseLevel is zerolog.ParseLevel with an info fallback
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func rotatingFile(cfg Config) io.Writer {
	size, backups := cfg.MaxSizeMB, cfg.MaxBackups
	if size <= 0 {
		size = 100
	}
	if backups <= 0 {
		backups = 5
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    size,
		MaxBackups: backups,
		MaxAge:     30,
		Compress:   true,
	}
}

// Configure replaces the global logger and returns it for injection
func Configure(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	if cfg.File != "" {
		out = zerolog.MultiLevelWriter(out, rotatingFile(cfg))
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	base = zerolog.New(out).With().Timestamp().Logger()
	log.Logger = base
	return base
}

func Debug() *zerolog.Event { return base.Debug() }
func Info() *zerolog.Event  { return base.Info() }
func Warn() *zerolog.Event  { return base.Warn() }
func Error() *zerolog.Event { return base.Error() }

// With returns a child of the global logger carrying one extra field
func With(key string, value interface{}) zerolog.Logger {
	return base.With().Interface(key, value).Logger()
}

func init() {
	Configure(Config{Level: "info", Pretty: true})
}
