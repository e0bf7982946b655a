package model

import "errors"

var (
	// User related errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Authentication errors. ErrInvalidCredentials deliberately covers both
	// unknown usernames and wrong passwords so the login endpoint cannot be
	// used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrInvalidToken = errors.New("invalid token")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
