package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"auth-service/internal/model"
	"auth-service/pkg/apierror"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError is the single boundary that turns domain errors into the
// {message} JSON shape. Typed apierror values carry their own status;
// sentinel errors map here and anything unclassified becomes a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "unexpected server error"

	var apiErr *apierror.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatus
		message = apiErr.Message
	case errors.Is(err, model.ErrUserAlreadyExists):
		status = http.StatusConflict
		message = "user already exists"
	case errors.Is(err, model.ErrUserNotFound):
		status = http.StatusNotFound
		message = "user not found"
	case errors.Is(err, model.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = "invalid username or password"
	case errors.Is(err, model.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "invalid token"
	case errors.Is(err, model.ErrUnauthorized):
		status = http.StatusUnauthorized
		message = "authentication required"
	case errors.Is(err, model.ErrForbidden):
		status = http.StatusForbidden
		message = "access denied"
	default:
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	writeJSON(w, status, model.ErrorResponse{Message: message})
}
