// Package logging builds the zap loggers used by the CLI and the engine.
//
// Console output is human-readable and leveled by configuration. When a log
// path is set, warnings and errors are also appended as JSON lines to a file
// shared safely between concurrent xnbconv processes.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	// Level is the console level name; "warn" when empty.
	Level string
	// Console receives console output; os.Stderr when nil.
	Console io.Writer
	// LogPath, when set, receives warnings and errors regardless of Level.
	LogPath string
}

// New builds a logger. The returned sync function flushes buffered output.
func New(opts Options) (*zap.Logger, func() error, error) {
	levelName := opts.Level
	if levelName == "" {
		levelName = "warn"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleCfg := zapcore.EncoderConfig{
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(console), level),
	}

	if opts.LogPath != "" {
		fileLevel := zapcore.WarnLevel
		if level < fileLevel {
			fileLevel = level
		}
		fileCfg := zapcore.EncoderConfig{
			TimeKey:     "timestamp",
			LevelKey:    "level",
			MessageKey:  "message",
			EncodeTime:  zapcore.RFC3339TimeEncoder,
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			NewFileSink(opts.LogPath),
			fileLevel,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, logger.Sync, nil
}

// FileName returns the dated error-log file name inside dir.
func FileName(dir string, now time.Time) string {
	return filepath.Join(dir, "xnbconv-"+now.Format("2006-01-02")+".log")
}
