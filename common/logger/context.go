package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Handlers and services enrich the context once; every log
// statement downstream carries the fields without repeating them.
type LogFields struct {
	WorkspaceID *int64  // Workspace aggregate ID
	ActorID     *int64  // Acting user ID
	EventType   *string // Webhook event type (e.g. "push", "issues")
	ExternalRef *string // Provider repository reference
	Component   string  // Component name (e.g. "dirhub.webhook.ingest")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, override LogFields) LogFields {
	result := existing

	if override.WorkspaceID != nil {
		result.WorkspaceID = override.WorkspaceID
	}
	if override.ActorID != nil {
		result.ActorID = override.ActorID
	}
	if override.EventType != nil {
		result.EventType = override.EventType
	}
	if override.ExternalRef != nil {
		result.ExternalRef = override.ExternalRef
	}
	if override.Component != "" {
		result.Component = override.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, useful for setting
// LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging webhook payload excerpts.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
