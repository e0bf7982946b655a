package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("bad token signature")
)

// Claims is the decoded payload of a signed token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and parses compact HS256 tokens. It is stateless: validity of
// an access token is fully determined by signature and expiry.
//
// Parse deliberately does not enforce expiry. Keeping expiry orthogonal lets
// callers distinguish a forged or garbled token from a merely expired one;
// the Validator owns the expiry comparison.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret, now: time.Now}
}

// Sign produces a token for subject expiring ttl from now. The jti claim
// makes every token unique even when two are minted for the same subject
// within the same second, so a rotated refresh token never equals the one
// it supersedes.
func (c *Codec) Sign(subject string, ttl time.Duration) (string, error) {
	issuedAt := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		ID:        uuid.NewString(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Parse verifies the signature and structure of tokenString and returns its
// claims. Expired tokens parse successfully.
func (c *Codec) Parse(tokenString string) (Claims, error) {
	var registered jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &registered, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation())

	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrBadSignature):
		return Claims{}, ErrBadSignature
	case err != nil:
		return Claims{}, ErrMalformedToken
	case !parsed.Valid:
		return Claims{}, ErrBadSignature
	}

	claims := Claims{Subject: registered.Subject}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	if claims.Subject == "" || claims.ExpiresAt.IsZero() {
		return Claims{}, ErrMalformedToken
	}

	return claims, nil
}
