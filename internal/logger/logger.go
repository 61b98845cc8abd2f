// Package logger builds the zap logger shared by the prepare, train and
// predictor binaries.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/utakatalp/match-predictor/internal/config"
	"github.com/utakatalp/match-predictor/internal/features"
)

// New returns a logger named after the binary. Every entry carries the
// feature schema version, so lines from prepare, train and the server can be
// matched to the artifacts they produced or served.
func New(cfg config.LogConfig, binary string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	badLevel := level.Set(strings.ToLower(cfg.Level)) != nil
	if badLevel {
		level = zapcore.InfoLevel
	}

	encoding := cfg.Encoding
	if encoding == "" {
		encoding = "console"
	}
	output := cfg.Output
	if output == "" {
		output = "stdout"
	}

	enc := zap.NewProductionEncoderConfig()
	if encoding == "console" {
		enc = zap.NewDevelopmentEncoderConfig()
	}
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		Encoding:          encoding,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		EncoderConfig:     enc,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		InitialFields:     map[string]any{"schema_version": features.SchemaVersion},
	}
	if cfg.Sampling {
		zc.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	}

	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	l = l.Named(binary)
	if badLevel {
		l.Warn("unknown log level, using info", zap.String("configured_level", cfg.Level))
	}
	return l, nil
}
