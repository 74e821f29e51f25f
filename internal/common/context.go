package common

import (
	"context"
	"log/slog"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID    contextKey = "request_id"
	ContextKeyDocumentID   contextKey = "document_id"
	ContextKeyDocumentType contextKey = "document_type"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithDocumentID tags the context with the id of the document being processed.
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, ContextKeyDocumentID, documentID)
}

// DocumentIDFromContext extracts the document ID from context
func DocumentIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyDocumentID).(string); ok {
		return id
	}
	return ""
}

// WithDocumentType tags the context with the document type name.
func WithDocumentType(ctx context.Context, docType string) context.Context {
	return context.WithValue(ctx, ContextKeyDocumentType, docType)
}

// DocumentTypeFromContext extracts the document type from context
func DocumentTypeFromContext(ctx context.Context) string {
	if dt, ok := ctx.Value(ContextKeyDocumentType).(string); ok {
		return dt
	}
	return ""
}

// LoggerFromContext returns base enriched with whatever document tags ctx carries.
func LoggerFromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		base = base.With("request_id", rid)
	}
	if id := DocumentIDFromContext(ctx); id != "" {
		base = base.With("document_id", id)
	}
	if dt := DocumentTypeFromContext(ctx); dt != "" {
		base = base.With("document_type", dt)
	}
	return base
}
