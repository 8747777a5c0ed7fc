package web

import (
	"net/http"

	"github.com/JonMunkholm/translocations/internal/core"
)

// requestMetadata carries the client address into service calls so audit
// entries and import logs can name the caller.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithClientIP(r.Context(), clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
