package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// RequireAPIKey guards administrative routes. A request is rejected uniformly
// with 401 when the X-API-Key header does not match the configured key, or
// when no key is configured at all: an unset key disables admin mutations
// rather than leaving them open. No partial state change can occur on a
// rejected request because rejection happens before the handler runs.
func RequireAPIKey(apiKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-API-Key")
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				logger.Warn("unauthorized admin request",
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr))
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
