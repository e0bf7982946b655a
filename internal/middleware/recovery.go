package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery converts any panic escaping the handler chain, the auth gate
// included, into a structured JSON error instead of a dropped connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				slog.Error("panic recovered", "error", fmt.Sprintf("%v", recovered), "stack", string(debug.Stack()))
				writeMessage(w, http.StatusInternalServerError, "unexpected server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
