package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/requestid"
)

// RequestID is middleware that assigns a unique request ID to each request and
// echoes it in the response headers. An incoming X-Request-ID header is reused;
// otherwise a new UUID v4 is generated. Handlers that call the scoring service
// forward the same ID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestid.Header)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestid.Header, id)

		ctx := requestid.NewContext(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
