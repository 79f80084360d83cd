// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "equity-valuator", "logs", "valuator.log"),
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLoggerWithConfig builds a logger writing to stderr and, when enabled,
// a size-rotated file. The global level is set from cfg.Level.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    !term.IsTerminal(int(os.Stderr.Fd())),
		})
	}

	if cfg.File {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = os.Stderr
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(w).With().Timestamp().Str("service", "valuator").Logger()
}

// parseLevel accepts zerolog level names plus "warning". Anything else,
// including the empty string, maps to info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return zerolog.WarnLevel
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// ContextKey is the type for context keys.
type ContextKey string

const (
	// LoggerKey is the context key for the logger.
	LoggerKey ContextKey = "logger"
	// RequestIDKey is the context key for request ID.
	RequestIDKey ContextKey = "request_id"
	// TickerKey is the context key for the ticker being analyzed.
	TickerKey ContextKey = "ticker"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithRequestID stores the request ID in ctx and tags the context logger with it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	logger := FromContext(ctx).With().Str("request_id", requestID).Logger()
	return WithLogger(ctx, logger)
}

// RequestIDFromContext returns the request ID stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithTicker adds a ticker to the logger context.
func WithTicker(logger zerolog.Logger, ticker string) zerolog.Logger {
	return logger.With().Str("ticker", ticker).Logger()
}

// WithEngine adds a valuation engine name to the logger context.
func WithEngine(logger zerolog.Logger, engine string) zerolog.Logger {
	return logger.With().Str("engine", engine).Logger()
}

// LogRiskAssessment logs the outcome of a forensic assessment.
func LogRiskAssessment(logger zerolog.Logger, ticker, zone string, piotroski *int, level string, adjustment float64) {
	event := logger.Debug().
		Str("event", "risk_assessment").
		Str("ticker", ticker).
		Str("altman_zone", zone).
		Str("risk_level", level).
		Float64("wacc_adjustment", adjustment)
	if piotroski != nil {
		event = event.Int("piotroski", *piotroski)
	}
	event.Msg("Risk assessed")
}

// LogValuation logs a completed valuation.
func LogValuation(logger zerolog.Logger, ticker, rating string, mid *float64, valuesUsed int, duration time.Duration) {
	event := logger.Info().
		Str("event", "valuation").
		Str("ticker", ticker).
		Str("rating", rating).
		Int("values_used", valuesUsed).
		Dur("duration", duration)
	if mid != nil {
		event = event.Float64("fair_value_mid", *mid)
	}
	event.Msg("Valuation completed")
}

// LogEngineFailure logs a valuation engine that produced an error result.
// The engine name comes from a logger built with WithEngine.
func LogEngineFailure(logger zerolog.Logger, ticker string, err error) {
	logger.Warn().
		Str("event", "engine_failure").
		Str("ticker", ticker).
		Err(err).
		Msg("Valuation engine failed")
}

// LogCacheEvent logs a snapshot cache hit, miss or store.
func LogCacheEvent(logger zerolog.Logger, backend, key, outcome string) {
	logger.Debug().
		Str("event", "cache").
		Str("backend", backend).
		Str("key", key).
		Str("outcome", outcome).
		Msg("Cache " + outcome)
}

// LogAPICall logs an upstream HTTP call. status is zero when no response
// was received.
func LogAPICall(logger zerolog.Logger, method, endpoint string, status int, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "api_call").
		Str("method", method).
		Str("endpoint", endpoint).
		Dur("duration", duration)
	if status > 0 {
		event = event.Int("status", status)
	}
	if err != nil {
		event.Err(err).Msg("API call failed")
		return
	}
	event.Msg("API call completed")
}
