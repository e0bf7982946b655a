package middleware

import (
	"encoding/json"
	"net/http"

	"auth-service/internal/model"
)

// writeMessage emits the {"message": ...} error body used everywhere a
// middleware rejects a request itself.
func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Message: message})
}
