package observability

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "fare-alert-engine"

// NewLogger builds the JSON production logger. An empty level means info.
func NewLogger(level string) (*zap.Logger, error) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if normalized == "" {
		normalized = "info"
	}

	atomicLevel, err := zap.ParseAtomicLevel(normalized)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.InitialFields = map[string]any{"service": serviceName}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

type logFieldsKey struct{}

// logFields are the ids carried through a tick for log correlation.
type logFields struct {
	runID   string
	alertID string
}

func fieldsFrom(ctx context.Context) logFields {
	if ctx == nil {
		return logFields{}
	}
	f, _ := ctx.Value(logFieldsKey{}).(logFields)
	return f
}

func withFields(ctx context.Context, f logFields) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, logFieldsKey{}, f)
}

// WithRunID tags ctx with the id of the monitoring tick it belongs to.
func WithRunID(ctx context.Context, runID string) context.Context {
	f := fieldsFrom(ctx)
	f.runID = runID
	return withFields(ctx, f)
}

// WithAlertID tags ctx with the alert being processed.
func WithAlertID(ctx context.Context, alertID string) context.Context {
	f := fieldsFrom(ctx)
	f.alertID = alertID
	return withFields(ctx, f)
}

func RunIDFromContext(ctx context.Context) (string, bool) {
	id := fieldsFrom(ctx).runID
	return id, id != ""
}

func AlertIDFromContext(ctx context.Context) (string, bool) {
	id := fieldsFrom(ctx).alertID
	return id, id != ""
}

// WithContextLogger returns logger with the run and alert ids of ctx
// attached, when present.
func WithContextLogger(logger *zap.Logger, ctx context.Context) *zap.Logger {
	if logger == nil {
		return nil
	}

	f := fieldsFrom(ctx)
	fields := make([]zap.Field, 0, 2)
	if f.runID != "" {
		fields = append(fields, zap.String("runId", f.runID))
	}
	if f.alertID != "" {
		fields = append(fields, zap.String("alertId", f.alertID))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
