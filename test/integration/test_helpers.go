//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"auth-service/internal/config"
	"auth-service/internal/handler"
	"auth-service/internal/middleware"
	"auth-service/internal/model"
	"auth-service/internal/password"
	"auth-service/internal/router"
	"auth-service/internal/service"
	"auth-service/internal/token"
)

// memoryUserStore implements the credential store contract in memory so the
// full HTTP stack can be exercised without PostgreSQL.
type memoryUserStore struct {
	mu    sync.RWMutex
	users map[string]model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]model.User{}}
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (s *memoryUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok, nil
}

func (s *memoryUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Username]; ok {
		return model.ErrUserAlreadyExists
	}
	s.users[u.Username] = u
	return nil
}

func (s *memoryUserStore) List(_ context.Context) ([]model.UserInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]model.UserInfo, 0, len(s.users))
	for _, u := range s.users {
		infos = append(infos, u.Info())
	}
	return infos, nil
}

type memoryTokenStore struct {
	mu     sync.Mutex
	tokens []model.RefreshToken
}

func (s *memoryTokenStore) Store(_ context.Context, t model.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, t)
	return nil
}

func (s *memoryTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tokens[:0]
	for _, t := range s.tokens {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	s.tokens = kept
	return nil
}

func (s *memoryTokenStore) countForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID {
			n++
		}
	}
	return n
}

func newTestServer(t *testing.T) (*httptest.Server, *token.Codec, *memoryUserStore, *memoryTokenStore) {
	t.Helper()

	cfg := &config.Config{
		ServerPort:        "8080",
		RequestTimeout:    30 * time.Second,
		JWTSecret:         []byte("test-secret"),
		JWTAccessTTL:      15 * time.Minute,
		JWTRefreshTTL:     24 * time.Hour,
		RefreshCookieName: "refresh-token",
		CORSOrigins:       []string{"*"},
		RateLimitRPM:      1000,
		AuthRateLimitRPM:  1000,
	}

	users := newMemoryUserStore()
	tokens := &memoryTokenStore{}
	codec := token.NewCodec(cfg.JWTSecret)
	authService := service.NewAuthService(users, tokens, password.NewHasher(4), codec,
		cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.RefreshCookieName)
	userService := service.NewUserFindService(users)

	gate := middleware.NewAuthGate(codec, users)
	appRouter := router.New(cfg, gate, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		User: handler.NewUserHandler(userService),
	}, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	return server, codec, users, tokens
}

// seedUser creates an account directly in the store, bypassing the register
// endpoint, so tests can mint accounts with non-default roles.
func seedUser(t *testing.T, users *memoryUserStore, username string, plaintext string, role string) model.User {
	t.Helper()

	hash, err := password.NewHasher(4).Hash(plaintext)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeAuthResult(t *testing.T, resp *http.Response) model.AuthResult {
	t.Helper()

	var result model.AuthResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func refreshCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}

	t.Fatalf("response has no %q cookie", name)
	return nil
}
