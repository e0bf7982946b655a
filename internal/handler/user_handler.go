package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/model"
	"auth-service/internal/service"
	"auth-service/pkg/apierror"
)

type UserHandler struct {
	service *service.UserFindService
}

func NewUserHandler(service *service.UserFindService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username == "" {
		writeError(w, apierror.New("BAD_REQUEST", "username is required", http.StatusBadRequest))
		return
	}

	user, err := h.service.FindByUsername(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.UserList{Users: users})
}
