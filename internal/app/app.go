package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"auth-service/internal/config"
	"auth-service/internal/database"
	"auth-service/internal/handler"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
	"auth-service/internal/password"
	"auth-service/internal/repository"
	"auth-service/internal/router"
	"auth-service/internal/service"
	"auth-service/internal/token"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(context.Background(), database.Options{
		URL:               cfg.DatabaseURL,
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		ConnMaxLifetime:   cfg.DBConnMaxLifetime,
		ConnMaxIdleTime:   cfg.DBConnMaxIdleTime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewRefreshTokenRepository(pool)
	slog.Info("database ready")

	hasher := password.NewHasher(0)
	codec := token.NewCodec(cfg.JWTSecret)
	authService := service.NewAuthService(userRepo, tokenRepo, hasher, codec,
		cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.RefreshCookieName)
	userService := service.NewUserFindService(userRepo)

	if err := seedAdmin(context.Background(), cfg, userRepo, hasher); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}

	gate := middleware.NewAuthGate(codec, userRepo)
	appRouter := router.New(cfg, gate, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(userService),
	}, healthHandler(db))

	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go sweepExpiredTokens(sweepCtx, tokenRepo, cfg.TokenSweepInterval)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			sweepCancel,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}

// seedAdmin creates the first ADMIN account when the users table is empty.
// Without ADMIN_PASSWORD set, seeding is skipped rather than shipping a
// well-known default credential.
func seedAdmin(ctx context.Context, cfg *config.Config, users *repository.UserRepository, hasher *password.Hasher) error {
	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if cfg.AdminPassword == "" {
		slog.Warn("users table is empty and ADMIN_PASSWORD is unset; skipping admin seed")
		return nil
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	err = users.Create(ctx, model.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("seeded initial admin user", "username", cfg.AdminUsername)
	return nil
}

// sweepExpiredTokens periodically removes refresh token rows whose expiry
// has passed. Rotation itself leaves superseded rows in place until they
// expire, so the sweeper is what keeps the table bounded.
func sweepExpiredTokens(ctx context.Context, tokens *repository.RefreshTokenRepository, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.CleanExpired(ctx, time.Now().UTC())
			if err != nil {
				slog.Error("refresh token sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("swept expired refresh tokens", "removed", removed)
			}
		}
	}
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Health(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
