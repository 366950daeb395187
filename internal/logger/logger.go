// Package logger sets up the shared logrus logger
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/balkashynov/tomate/internal/config"
)

// Logger is the process-wide logger. It is usable before Init with logrus
// defaults.
var Logger = logrus.New()

var logFile *os.File

// Init configures Logger from cfg. Output goes to cfg.File when set,
// stderr otherwise.
func Init(cfg config.LogConfig) (*logrus.Logger, error) {
	level := logrus.WarnLevel
	if cfg.Level != "" {
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lvl
	}
	Logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "ts",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "", "text":
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.DateTime,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.File != "" {
		if err := ToFile(cfg.File); err != nil {
			return nil, err
		}
	} else {
		Logger.SetOutput(os.Stderr)
	}

	return Logger, nil
}

// ToFile sends log output to path, appending. Used while a TUI owns the
// terminal.
func ToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	Close()
	logFile = f
	Logger.SetOutput(f)
	return nil
}

// SetOutput redirects the logger, mainly for tests
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Component returns an entry tagged with the component name
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}

// Close releases the log file, if any
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
