package model

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the persisted identity record. The password hash never leaves
// the process: projections for API responses use UserInfo.
type User struct {
	ID                 string    `json:"id"`
	Username           string    `json:"username"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"`
	Enabled            bool      `json:"enabled"`
	Locked             bool      `json:"locked"`
	CredentialsExpired bool      `json:"credentials_expired"`
	AccountExpired     bool      `json:"account_expired"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CanAuthenticate reports whether the account state permits a login.
func (u User) CanAuthenticate() bool {
	return u.Enabled && !u.Locked && !u.CredentialsExpired && !u.AccountExpired
}

// Info derives the public projection of the user.
func (u User) Info() UserInfo {
	return UserInfo{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserInfo is the lookup projection exposed by the user endpoints.
type UserInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the per-request authenticated identity derived from a
// validated access token. It is never persisted.
type Principal struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RefreshToken is a persisted refresh token row bound to one user.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
