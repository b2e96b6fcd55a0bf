// internal/middleware/logging.go

package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-Id"

// LogMiddleware logs each request with its method, path, duration and a
// request id. The id is echoed in the response header. For WebSocket upgrades
// the duration is the lifetime of the connection.
func LogMiddleware(logger logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"duration":   time.Since(start),
				"remote":     r.RemoteAddr,
				"request_id": id,
			}).Info("HTTP Request")
		})
	}
}
