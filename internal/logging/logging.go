// Package logging builds the zap logger used across notemeta: a console
// core on stderr teed with a rotated JSON file core.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/suykerbuyk/notemeta/internal/config"
)

const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 30
)

// New returns a logger for cfg writing to stderr and, when file is non-empty,
// to a rotated JSON log file. Development mode uses the human console
// encoder and forces debug level.
func New(cfg config.LogConfig, file string) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if cfg.Development {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(consoleEncoder(cfg.Development), zapcore.Lock(os.Stderr), level)
	if file != "" {
		core = zapcore.NewTee(core, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			fileWriter(file),
			level,
		))
	}

	return zap.New(core, zap.AddCaller()), nil
}

// ParseLevel maps a config level name to a zap level. Empty means info.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
}

func fileWriter(path string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	})
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}

func consoleEncoder(dev bool) zapcore.Encoder {
	if !dev {
		ec := encoderConfig()
		ec.CallerKey = ""
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}
