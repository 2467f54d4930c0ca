package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldOperation is the standardized key for the store operation being run.
	FieldOperation = "operation"
	// FieldRecordID is the standardized key for season record identifiers.
	FieldRecordID = "record_id"
	// FieldCorrelationID ties together every line emitted by one CLI invocation.
	FieldCorrelationID = "correlation_id"
	// FieldStorageKey is the key-value key being read or written.
	FieldStorageKey = "storage_key"
	// FieldBackend names the key-value backend.
	FieldBackend = "backend"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type contextKey int

const (
	operationKey contextKey = iota
	recordIDKey
	correlationIDKey
)

// WithOperation tags ctx with the store operation name.
func WithOperation(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, operationKey, strings.TrimSpace(op))
}

// WithRecordID tags ctx with the record an operation targets.
func WithRecordID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, recordIDKey, strings.TrimSpace(id))
}

// WithCorrelationID tags ctx with an invocation-wide identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, strings.TrimSpace(id))
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
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
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if op, ok := stringFromContext(ctx, operationKey); ok {
		fields = append(fields, slog.String(FieldOperation, op))
	}
	if id, ok := stringFromContext(ctx, recordIDKey); ok {
		fields = append(fields, slog.String(FieldRecordID, id))
	}
	if cid, ok := stringFromContext(ctx, correlationIDKey); ok {
		fields = append(fields, slog.String(FieldCorrelationID, cid))
	}
	return fields
}
