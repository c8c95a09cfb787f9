// Package logger wraps zerolog behind a small structured-logging facade.
// Initialise once at startup with Init; the package-level functions are
// no-ops before that, so library code can log unconditionally.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level    string // Minimum level: DEBUG, INFO, WARN, ERROR
	FilePath string // Path to log file; empty disables file output
	Console  bool   // Also log to stderr (off by default, it fights the TUI)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

var (
	global      zerolog.Logger
	file        *os.File
	once        sync.Once
	initialized bool
)

// Init initialises the global logger. Only the first call has any effect.
func Init(cfg Config) error {
	var err error
	once.Do(func() {
		var writers []io.Writer

		if cfg.FilePath != "" {
			if mkErr := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); mkErr != nil {
				err = fmt.Errorf("failed to create log directory: %w", mkErr)
				return
			}
			file, err = os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				err = fmt.Errorf("failed to open log file: %w", err)
				return
			}
			writers = append(writers, file)
		}

		if cfg.Console {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		}

		if len(writers) == 0 {
			writers = append(writers, io.Discard)
		}

		zerolog.TimeFieldFormat = time.RFC3339
		global = zerolog.New(zerolog.MultiLevelWriter(writers...)).
			Level(parseLevel(cfg.Level)).
			With().
			Timestamp().
			Logger()
		initialized = true
	})
	return err
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

// Debug logs a debug message
func Debug(msg string, fields ...Field) {
	if initialized {
		emit(global.Debug(), msg, fields)
	}
}

// Info logs an info message
func Info(msg string, fields ...Field) {
	if initialized {
		emit(global.Info(), msg, fields)
	}
}

// Warn logs a warning message
func Warn(msg string, fields ...Field) {
	if initialized {
		emit(global.Warn(), msg, fields)
	}
}

// Error logs an error message
func Error(msg string, fields ...Field) {
	if initialized {
		emit(global.Error(), msg, fields)
	}
}

// Close flushes and closes the log file
func Close() error {
	if file != nil {
		return file.Close()
	}
	return nil
}
