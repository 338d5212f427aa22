package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/openvms/gatekit/internal/observability"
)

// RequestID assigns each request a unique identifier. An inbound
// X-Request-ID is honored so callers can propagate their own correlation;
// otherwise a new UUID is generated. The identifier is stored on the request
// context and echoed in the response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := observability.ContextWithRequestID(r.Context(), requestID)
			w.Header().Set(HeaderXRequestID, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
