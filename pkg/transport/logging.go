package transport

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Logging returns a middleware that logs every request at debug level and
// failed round trips at warn level.
func Logging(lg *zap.Logger) Middleware {
	if lg == nil {
		lg = zap.NewNop()
	}
	return func(next http.RoundTripper) http.RoundTripper {
		return Func(func(r *http.Request) (*http.Response, error) {
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("host", r.URL.Host),
				zap.String("path", r.URL.Path),
				zap.String("request_id", r.Header.Get(HeaderRequestID)),
			}

			start := time.Now()
			resp, err := next.RoundTrip(r)
			fields = append(fields, zap.Duration("duration", time.Since(start)))

			if err != nil {
				lg.Warn("HTTP request failed", append(fields, zap.Error(err))...)
				return nil, err
			}
			lg.Debug("HTTP request", append(fields, zap.Int("status", resp.StatusCode))...)
			return resp, nil
		})
	}
}
