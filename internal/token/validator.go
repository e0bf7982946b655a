package token

import "time"

// Validator decides whether a presented token is acceptable for a given
// principal: signature valid, subject matches exactly, not expired.
type Validator struct {
	codec *Codec
	now   func() time.Time
}

func NewValidator(codec *Codec) *Validator {
	return &Validator{codec: codec, now: time.Now}
}

// IsValid never returns an error: forged, malformed, mismatched and expired
// tokens all come back false.
func (v *Validator) IsValid(tokenString string, username string) bool {
	claims, err := v.codec.Parse(tokenString)
	if err != nil {
		return false
	}

	if claims.Subject != username {
		return false
	}

	return claims.ExpiresAt.After(v.now())
}
