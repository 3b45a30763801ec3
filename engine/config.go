package engine

import (
	"os"

	"github.com/rs/zerolog"
)

// LogFormat selects zerolog's output encoding, matching how a real AWK-dialect
// CLI would let an operator pick console output for a terminal and JSON for
// production log aggregation.
type LogFormat int

const (
	LogConsole LogFormat = iota
	LogJSON
)

// Config collects the engine's runtime tunables, passed once to
// NewInterpreter the way the teacher's NewVirtualMachine(instrs) takes its
// program up front rather than hiding configuration behind package
// globals.
type Config struct {
	// CheckUTF8 is carried as record-source configuration (spec.md 6,
	// Record source interface). No record source or interpreter path in
	// this package reads it: records reach the field engine without UTF-8
	// validation whatever its value.
	CheckUTF8 bool
	// ChunkSize hints at the CSV/TSV reader's batch size (spec.md 6).
	ChunkSize int
	// RegexCompileFatal controls whether a dynamic pattern that fails to
	// compile aborts the process (the default, spec.md 4.5/7) or returns
	// a sentinel value instead.
	RegexCompileFatal bool
	// LogFormat selects console vs. JSON structured logging output.
	LogFormat LogFormat
	// LogLevel is a zerolog level string ("debug", "info", "warn", "error").
	LogLevel string
}

// DefaultConfig matches frawk-style defaults: UTF-8 checked, fatal regex
// compile errors, human-readable console logging at info level.
func DefaultConfig() Config {
	return Config{
		CheckUTF8:         true,
		ChunkSize:         4096,
		RegexCompileFatal: true,
		LogFormat:         LogConsole,
		LogLevel:          "info",
	}
}

func newLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogFormat == LogJSON {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}
