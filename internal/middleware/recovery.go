package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/openvms/gatekit/internal/observability"
)

// Recovery is the outermost safety net: it converts a panic that escaped the
// rest of the pipeline into a 500 response instead of killing the connection.
// Inner middlewares may observe and re-raise panics; this one stops them.
func Recovery(logger observability.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = observability.GetGlobalLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						observability.Any("panic", rec),
						observability.String("method", r.Method),
						observability.String("path", r.URL.Path),
						observability.String("stack", string(debug.Stack())),
					)

					w.Header().Set(HeaderContentType, ContentTypeJSON)
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(ErrInternalServerError))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
