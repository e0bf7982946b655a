package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auth-service/internal/model"
	"auth-service/internal/password"
	"auth-service/internal/token"
	"auth-service/pkg/apierror"
)

type memoryUserStore struct {
	users map[string]model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]model.User{}}
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	user, ok := s.users[username]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return user, nil
}

func (s *memoryUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := s.users[username]
	return ok, nil
}

func (s *memoryUserStore) Create(_ context.Context, u model.User) error {
	if _, ok := s.users[u.Username]; ok {
		return model.ErrUserAlreadyExists
	}
	s.users[u.Username] = u
	return nil
}

func (s *memoryUserStore) List(_ context.Context) ([]model.UserInfo, error) {
	infos := make([]model.UserInfo, 0, len(s.users))
	for _, u := range s.users {
		infos = append(infos, u.Info())
	}
	return infos, nil
}

type memoryTokenStore struct {
	tokens []model.RefreshToken
}

func (s *memoryTokenStore) Store(_ context.Context, t model.RefreshToken) error {
	s.tokens = append(s.tokens, t)
	return nil
}

func (s *memoryTokenStore) RevokeAllForUser(_ context.Context, userID string) error {
	kept := s.tokens[:0]
	for _, t := range s.tokens {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	s.tokens = kept
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *memoryUserStore, *memoryTokenStore, *token.Codec) {
	t.Helper()

	users := newMemoryUserStore()
	tokens := &memoryTokenStore{}
	codec := token.NewCodec([]byte("test-secret"))
	svc := NewAuthService(users, tokens, password.NewHasher(4), codec,
		15*time.Minute, 24*time.Hour, "refresh-token")

	return svc, users, tokens, codec
}

func TestRegisterIssuesTokensAndCookie(t *testing.T) {
	svc, users, tokens, codec := newTestAuthService(t)

	result, cookie, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, result.UserID)

	claims, err := codec.Parse(result.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)

	require.Equal(t, "refresh-token", cookie.Name)
	require.Equal(t, "/api/v1/auth", cookie.Path)
	require.True(t, cookie.HttpOnly)
	require.True(t, cookie.Secure)
	require.Equal(t, int((24 * time.Hour).Seconds()), cookie.MaxAge)

	stored, err := users.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, stored.Role)
	require.NotEqual(t, "secret1", stored.PasswordHash)

	require.Len(t, tokens.tokens, 1)
	require.Equal(t, result.UserID, tokens.tokens[0].UserID)
	require.Equal(t, cookie.Value, tokens.tokens[0].Value)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "alice", "other-password")
	require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	require.Len(t, users.users, 1)
}

func TestRegisterRejectsBlankInput(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "  ", "secret1")
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)

	_, _, err = svc.Register(context.Background(), "alice", "")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
}

func TestAuthenticateHappyPath(t *testing.T) {
	svc, _, _, codec := newTestAuthService(t)

	registered, _, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	result, cookie, err := svc.Authenticate(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.Equal(t, registered.UserID, result.UserID)
	require.NotNil(t, cookie)

	claims, err := codec.Parse(result.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
}

func TestAuthenticateCollapsesFailureBranches(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	// Unknown user and wrong password must be indistinguishable.
	_, _, unknownErr := svc.Authenticate(context.Background(), "mallory", "secret1")
	_, _, wrongPassErr := svc.Authenticate(context.Background(), "alice", "wrongpass")

	require.ErrorIs(t, unknownErr, model.ErrInvalidCredentials)
	require.ErrorIs(t, wrongPassErr, model.ErrInvalidCredentials)
	require.Equal(t, unknownErr, wrongPassErr)
}

func TestAuthenticateRejectsUnusableAccount(t *testing.T) {
	svc, users, _, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	locked := users.users["alice"]
	locked.Locked = true
	users.users["alice"] = locked

	_, _, err = svc.Authenticate(context.Background(), "alice", "secret1")
	require.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService(t)

	registered, cookie, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	result, rotated, err := svc.Refresh(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.Equal(t, registered.UserID, result.UserID)
	require.NotEmpty(t, result.Token)
	require.NotEqual(t, cookie.Value, rotated.Value)
	require.Len(t, tokens.tokens, 2)
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	svc, users, _, codec := newTestAuthService(t)

	_, cookie, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), "garbage")
	require.ErrorIs(t, err, model.ErrInvalidToken)

	forged, err := token.NewCodec([]byte("attacker-secret")).Sign("alice", time.Hour)
	require.NoError(t, err)
	_, _, err = svc.Refresh(context.Background(), forged)
	require.ErrorIs(t, err, model.ErrInvalidToken)

	expired, err := codec.Sign("alice", -time.Minute)
	require.NoError(t, err)
	_, _, err = svc.Refresh(context.Background(), expired)
	require.ErrorIs(t, err, model.ErrInvalidToken)

	// A structurally valid token whose subject no longer resolves must fail
	// with the same error, not a not-found.
	delete(users.users, "alice")
	_, _, err = svc.Refresh(context.Background(), cookie.Value)
	require.ErrorIs(t, err, model.ErrInvalidToken)
}

func TestRefreshCookieSameSite(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	_, cookie, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}

// Both failure branches must pay a full bcrypt comparison; an unknown
// username that skips the hash work would be distinguishable by latency
// alone.
func TestAuthenticateBranchTimingProfile(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	const rounds = 30

	start := time.Now()
	for i := 0; i < rounds; i++ {
		_, _, err := svc.Authenticate(context.Background(), "nobody", "secret1")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	}
	unknownUser := time.Since(start)

	start = time.Now()
	for i := 0; i < rounds; i++ {
		_, _, err := svc.Authenticate(context.Background(), "alice", "wrongpass")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	}
	wrongPassword := time.Since(start)

	// Generous bound: the branches only need to be the same order of
	// magnitude, which a skipped comparison (nanoseconds vs hundreds of
	// microseconds) would blow past.
	require.Less(t, unknownUser, wrongPassword*10,
		"unknown-user branch should cost about as much as a real comparison")
	require.Less(t, wrongPassword, unknownUser*10,
		"wrong-password branch should cost about as much as the dummy comparison")
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	_, _, err = svc.Authenticate(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.Len(t, tokens.tokens, 2)

	cleared, err := svc.Logout(context.Background(), "alice")
	require.NoError(t, err)
	require.Empty(t, tokens.tokens)

	require.Empty(t, cleared.Value)
	require.Negative(t, cleared.MaxAge)
	require.Equal(t, "refresh-token", cleared.Name)
	require.Equal(t, "/api/v1/auth", cleared.Path)
}

func TestLogoutUnknownUser(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	_, err := svc.Logout(context.Background(), "ghost")
	require.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestRevokeUser(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService(t)

	require.ErrorIs(t, svc.RevokeUser(context.Background(), "ghost"), model.ErrUserNotFound)

	_, _, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	require.Len(t, tokens.tokens, 1)

	require.NoError(t, svc.RevokeUser(context.Background(), "alice"))
	require.Empty(t, tokens.tokens)
}

// Revocation must only drop the target user's rows.
func TestRevokeUserDropsOnlyTargetRows(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService(t)

	_, _, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	_, _, err = svc.Register(context.Background(), "bob", "secret2")
	require.NoError(t, err)
	require.Len(t, tokens.tokens, 2)

	require.NoError(t, svc.RevokeUser(context.Background(), "alice"))
	require.Len(t, tokens.tokens, 1)
	require.Equal(t, "bob", subjectOf(t, svc, tokens.tokens[0]))
}

func subjectOf(t *testing.T, svc *AuthService, row model.RefreshToken) string {
	t.Helper()

	claims, err := svc.codec.Parse(row.Value)
	require.NoError(t, err)
	return claims.Subject
}
