package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/wgomg/kayum/internal/utils"
)

// RequestIDMiddleware tags every request with an id, keeping one supplied
// by the caller, and echoes it back on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}

		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(utils.WithRequestID(r.Context(), reqID)))
	})
}
