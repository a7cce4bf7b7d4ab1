package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"crew/pkg/requestcontext"
)

// RequestID tags every request with an ID for log correlation. An inbound
// X-Request-ID header is trusted so IDs propagate across services; otherwise
// one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), requestID)))
	})
}
