package requestid

import (
	"context"
	"net/http"
)

// Header is the HTTP header that carries the request ID in both directions.
const Header = "X-Request-ID"

type ctxKey struct{}

// NewContext returns a context that carries the given request ID.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request ID stored in ctx, or an empty string.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Propagate copies the request ID from the outgoing request's context into its
// headers so the scoring service can correlate logs.
func Propagate(req *http.Request) {
	if id := FromContext(req.Context()); id != "" {
		req.Header.Set(Header, id)
	}
}
