package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/middleware"
	"auth-service/internal/model"
	"auth-service/internal/service"
	"auth-service/pkg/apierror"
)

type AuthHandler struct {
	service *service.AuthService
}

func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", http.StatusBadRequest))
		return
	}

	result, cookie, err := h.service.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.AuthenticateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", http.StatusBadRequest))
		return
	}

	result, cookie, err := h.service.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusCreated, result)
}

// Refresh reads the refresh token from its cookie, never from the body.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.service.CookieName())
	if err != nil || cookie.Value == "" {
		writeError(w, model.ErrInvalidToken)
		return
	}

	result, rotated, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, rotated)
	writeJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, principal)
}

// Logout revokes the caller's refresh tokens and clears the cookie. The
// access token stays valid until its own expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	cleared, err := h.service.Logout(r.Context(), principal.Username)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, cleared)
	writeJSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

// RevokeUser drops every refresh token of the named account, forcing it to
// re-authenticate once its access token expires.
func (h *AuthHandler) RevokeUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.service.RevokeUser(r.Context(), username); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
