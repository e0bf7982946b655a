package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"auth-service/internal/model"
	"auth-service/internal/password"
	"auth-service/internal/token"
	"auth-service/pkg/apierror"
)

// refreshCookiePath scopes the cookie to the auth endpoints so the browser
// only sends the refresh token where rotation happens.
const refreshCookiePath = "/api/v1/auth"

// UserStore is the credential store contract the auth service needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

// RefreshTokenStore persists issued refresh tokens for rotation and
// revocation.
type RefreshTokenStore interface {
	Store(ctx context.Context, t model.RefreshToken) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

// AuthService orchestrates registration, authentication and refresh-token
// rotation. Every successful operation mints a fresh access token for the
// response body and a refresh token that is persisted and returned only as
// an http-only cookie.
type AuthService struct {
	users       UserStore
	tokens      RefreshTokenStore
	hasher      *password.Hasher
	codec       *token.Codec
	validator   *token.Validator
	accessTTL   time.Duration
	refreshTTL  time.Duration
	cookieName  string
	dummyDigest string
}

func NewAuthService(
	users UserStore,
	tokens RefreshTokenStore,
	hasher *password.Hasher,
	codec *token.Codec,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	cookieName string,
) *AuthService {
	// A real digest at the service's cost factor, compared against when a
	// username does not resolve, so the unknown-user branch pays the same
	// bcrypt work as the wrong-password branch.
	dummyDigest, _ := hasher.Hash("equalize-lookup-timing")

	return &AuthService{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		codec:       codec,
		validator:   token.NewValidator(codec),
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		cookieName:  cookieName,
		dummyDigest: dummyDigest,
	}
}

// Register creates a new USER account and issues its first token pair.
func (s *AuthService) Register(ctx context.Context, username string, plaintext string) (model.AuthResult, *http.Cookie, error) {
	username = strings.TrimSpace(username)
	if username == "" || plaintext == "" {
		return model.AuthResult{}, nil, apierror.New("BAD_REQUEST", "username and password are required", http.StatusBadRequest)
	}

	// Fast-path UX check only; the unique constraint in the store is the
	// guarantee against a concurrent registration slipping through.
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return model.AuthResult{}, nil, err
	}
	if exists {
		return model.AuthResult{}, nil, model.ErrUserAlreadyExists
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return model.AuthResult{}, nil, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.AuthResult{}, nil, err
	}

	return s.issueTokens(ctx, user)
}

// Authenticate verifies a username/password pair. Unknown usernames, wrong
// passwords and unusable account states all collapse into
// ErrInvalidCredentials so the endpoint cannot be used to enumerate
// accounts.
func (s *AuthService) Authenticate(ctx context.Context, username string, plaintext string) (model.AuthResult, *http.Cookie, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, model.ErrUserNotFound) {
		// Full bcrypt comparison against the dummy digest; an empty digest
		// would be rejected before any cost-factor work and give this
		// branch away by its latency.
		s.hasher.Verify(plaintext, s.dummyDigest)
		return model.AuthResult{}, nil, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.AuthResult{}, nil, err
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		return model.AuthResult{}, nil, model.ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		return model.AuthResult{}, nil, model.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates a refresh token: the presented token's own subject claim
// is extracted, the user re-resolved, and the token fully re-validated
// against that user before a new pair is minted. Every failure is
// ErrInvalidToken so callers cannot tell which branch fired.
func (s *AuthService) Refresh(ctx context.Context, oldRefreshToken string) (model.AuthResult, *http.Cookie, error) {
	claims, err := s.codec.Parse(oldRefreshToken)
	if err != nil {
		return model.AuthResult{}, nil, model.ErrInvalidToken
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.AuthResult{}, nil, model.ErrInvalidToken
	}
	if err != nil {
		return model.AuthResult{}, nil, err
	}

	if !s.validator.IsValid(oldRefreshToken, user.Username) {
		return model.AuthResult{}, nil, model.ErrInvalidToken
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes every refresh token issued to the principal and returns a
// cookie that clears the refresh cookie on the client.
func (s *AuthService) Logout(ctx context.Context, username string) (*http.Cookie, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, model.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return nil, err
	}

	return s.clearedRefreshCookie(), nil
}

// RevokeUser force-revokes all refresh tokens of the named user. Intended
// for administrative use; access tokens stay valid until they expire.
func (s *AuthService) RevokeUser(ctx context.Context, username string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}

	return s.tokens.RevokeAllForUser(ctx, user.ID)
}

// CookieName is the name of the cookie carrying the refresh token.
func (s *AuthService) CookieName() string {
	return s.cookieName
}

func (s *AuthService) issueTokens(ctx context.Context, user model.User) (model.AuthResult, *http.Cookie, error) {
	refreshValue, err := s.codec.Sign(user.Username, s.refreshTTL)
	if err != nil {
		return model.AuthResult{}, nil, err
	}

	now := time.Now().UTC()
	if err := s.tokens.Store(ctx, model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Value:     refreshValue,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}); err != nil {
		return model.AuthResult{}, nil, err
	}

	accessToken, err := s.codec.Sign(user.Username, s.accessTTL)
	if err != nil {
		return model.AuthResult{}, nil, err
	}

	return model.AuthResult{UserID: user.ID, Token: accessToken}, s.refreshCookie(refreshValue), nil
}

func (s *AuthService) clearedRefreshCookie() *http.Cookie {
	cookie := s.refreshCookie("")
	cookie.MaxAge = -1
	return cookie
}

func (s *AuthService) refreshCookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     refreshCookiePath,
		MaxAge:   int(s.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
