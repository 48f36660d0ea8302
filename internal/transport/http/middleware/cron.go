package middleware

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"

	"practicehub/internal/transport/http/api"
)

// CronSecret guards scheduler-triggered endpoints. An empty secret leaves
// them open, which is only allowed outside production.
func CronSecret(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			got := bearerToken(r)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				logger.Warn("cron request rejected",
					zap.String("path", r.URL.Path),
					zap.String("client", clientIPKey(r)),
					zap.String("requestId", GetRequestID(r.Context())))
				api.FailJob(w, http.StatusUnauthorized, "unauthorized", "invalid cron secret")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
