package requestcontext

import (
	"context"

	"github.com/piresc/geoquery/internal/pkg/logger"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	clientIDKey  contextKey = "client_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID retrieves the request ID from context
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithClientID adds the authenticated client ID to the context
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// ClientID retrieves the authenticated client ID from context
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientIDKey).(string)
	return id
}

// Fields prepends the request and client IDs carried by ctx to fields
func Fields(ctx context.Context, fields ...logger.Field) []logger.Field {
	out := make([]logger.Field, 0, len(fields)+2)
	if id := RequestID(ctx); id != "" {
		out = append(out, logger.String("request_id", id))
	}
	if id := ClientID(ctx); id != "" {
		out = append(out, logger.String("client_id", id))
	}
	return append(out, fields...)
}
