package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID identifies one split or merge run.
	FieldJobID = "job_id"
	// FieldJobKind is "split" or "merge".
	FieldJobKind = "job_kind"
	// FieldSource is the container or folder a job reads from.
	FieldSource = "source"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	jobIDKey contextKey = iota
	jobKindKey
	sourceKey
)

// WithJob tags ctx with a job identifier and kind.
func WithJob(ctx context.Context, id, kind string) context.Context {
	ctx = context.WithValue(ctx, jobIDKey, strings.TrimSpace(id))
	return context.WithValue(ctx, jobKindKey, strings.TrimSpace(kind))
}

// WithSource tags ctx with the input path of the current job.
func WithSource(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, sourceKey, path)
}

// JobIDFromContext returns the job identifier stored by WithJob.
func JobIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, jobIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	fields := make([]slog.Attr, 0, 3)
	if id, ok := stringValue(ctx, jobIDKey); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if kind, ok := stringValue(ctx, jobKindKey); ok {
		fields = append(fields, slog.String(FieldJobKind, kind))
	}
	if source, ok := stringValue(ctx, sourceKey); ok {
		fields = append(fields, slog.String(FieldSource, source))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
