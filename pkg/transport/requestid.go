package transport

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderRequestID carries the request identifier.
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID stores id in ctx; outgoing requests made with ctx carry it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext extracts the request ID from the context.
// It returns an empty string if no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID returns a middleware that stamps every outgoing request with an
// X-Request-ID header. A valid header already on the request wins, then the
// ID stored in the request context, then a new UUID v4.
func RequestID() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return Func(func(r *http.Request) (*http.Response, error) {
			if isValidRequestID(r.Header.Get(HeaderRequestID)) {
				return next.RoundTrip(r)
			}

			id := RequestIDFromContext(r.Context())
			if !isValidRequestID(id) {
				id = uuid.New().String()
			}

			// RoundTrippers must not modify the caller's request.
			r = r.Clone(r.Context())
			r.Header.Set(HeaderRequestID, id)
			return next.RoundTrip(r)
		})
	}
}

// isValidRequestID checks that id is non-empty, at most 128 bytes, and
// contains only printable ASCII (0x20-0x7E).
func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7E {
			return false
		}
	}
	return true
}
