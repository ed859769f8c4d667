package logging

import "context"

// Context keys for common log fields.
type contextKey string

const (
	// TraceIDKey is the context key for trace IDs.
	TraceIDKey contextKey = "trace_id"

	// CaseIDKey is the context key for case identifiers.
	CaseIDKey contextKey = "case_id"
)

// WithTraceID adds a trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// WithCaseID adds a case identifier to the context.
func WithCaseID(ctx context.Context, caseID string) context.Context {
	return context.WithValue(ctx, CaseIDKey, caseID)
}

// GetCaseID retrieves the case identifier from the context.
func GetCaseID(ctx context.Context) string {
	if caseID, ok := ctx.Value(CaseIDKey).(string); ok {
		return caseID
	}
	return ""
}
