package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/config"
	"auth-service/internal/handler"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
)

type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler
}

// New builds the route table. The auth gate runs for every /api/v1 request
// before dispatch; register/authenticate/refresh and the user lookups are
// public, so only routes behind RequirePrincipal actually enforce the
// principal the gate installed.
func New(cfg *config.Config, gate *middleware.AuthGate, h Handlers, health http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	rateLimit := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimit.Handler)

	r.Get("/health", health)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(gate.Handler)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/authenticate", h.Auth.Authenticate)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(middleware.RequirePrincipal).Get("/me", h.Auth.Me)
			auth.With(middleware.RequirePrincipal).Post("/logout", h.Auth.Logout)
		})

		api.Route("/user", func(user chi.Router) {
			user.Get("/", h.User.List)
			user.Get("/{username}", h.User.Get)
			user.With(middleware.RequireRoles(model.RoleAdmin)).
				Post("/{username}/revoke", h.Auth.RevokeUser)
		})
	})

	return r
}
