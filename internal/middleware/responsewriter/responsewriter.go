// Package responsewriter carries the response writer of the active
// HTTP request inside the request context. Ceremony observers run well
// below the handler layer and use it to attach the session cookie to
// the response once a ceremony succeeds.
package responsewriter

import (
	"context"
	"errors"
	"net/http"
)

type ctxKey struct{}

// ErrNoResponseWriter is returned when the context was not built by
// Middleware, which is the case for CLI-driven ceremonies.
var ErrNoResponseWriter = errors.New("no response writer in context")

// Middleware stores the response writer in the request context before
// invoking the next handler.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxKey{}, w)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the response writer stored by Middleware.
func FromContext(ctx context.Context) (http.ResponseWriter, error) {
	w, ok := ctx.Value(ctxKey{}).(http.ResponseWriter)
	if !ok {
		return nil, ErrNoResponseWriter
	}

	return w, nil
}
