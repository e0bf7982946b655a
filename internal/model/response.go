package model

// AuthResult is the body of every successful register/authenticate/refresh
// response. The refresh token is never part of the body: it travels only in
// the refresh cookie.
type AuthResult struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// ErrorResponse is the single JSON shape for all failed requests.
type ErrorResponse struct {
	Message string `json:"message"`
}

type UserList struct {
	Users []UserInfo `json:"users"`
}
