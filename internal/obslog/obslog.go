// Package obslog wraps zerolog.Logger in a small, leveled facade that the
// rest of the engine logs through instead of importing zerolog directly
// everywhere.
package obslog

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a leveled logger used by the brush loader, the engine's
// rejection warnings, and hosting processes. It never aborts the process.
type Logger struct {
	z zerolog.Logger
}

// Options configures a Logger.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// Format is "json" or "console". Defaults to "json".
	Format string
	// Writer overrides the output sink; defaults to os.Stderr.
	Writer io.Writer
}

// New builds a Logger from Options.
func New(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(opts.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	z := zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(opts.Level))
	return &Logger{z: z}
}

// Nop returns a Logger that discards everything, used as a safe default
// when a caller constructs an Engine without supplying a logger.
func Nop() *Logger {
	return &Logger{z: zerolog.Nop()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "info", "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// With returns a child Logger carrying the given key/value pair in every
// subsequent entry.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{z: l.z.With().Interface(key, value).Logger()}
}

// Debug logs scheduler/adjacency chatter that would flood a running sim at
// higher levels.
func (l *Logger) Debug(msg string, kv ...interface{}) {
	event(l.z.Debug(), msg, kv)
}

// Warn logs a recoverable anomaly, such as a malformed brush-file row or
// a rejected rule-set replacement.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	event(l.z.Warn(), msg, kv)
}

// Error logs a hard failure on the construction/load path before it is
// returned to the caller as an error.
func (l *Logger) Error(msg string, kv ...interface{}) {
	event(l.z.Error(), msg, kv)
}

// Info logs coarse lifecycle milestones (engine constructed, allocation
// resized).
func (l *Logger) Info(msg string, kv ...interface{}) {
	event(l.z.Info(), msg, kv)
}

func event(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
