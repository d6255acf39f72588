package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mr-tron/base58"
)

// ErrMalformedToken is returned when a stored token is not a decodable JWT.
var ErrMalformedToken = errors.New("malformed token")

// TokenInfo is what can be read from a token without the issuer's key.
type TokenInfo struct {
	Subject     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Fingerprint string
}

// Expired reports whether the token carries an expiry that is before now.
// The client never acts on this; the server is the only judge of validity.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// InspectToken decodes the claims of token without verifying its signature.
func InspectToken(token string) (TokenInfo, error) {
	claims := &jwt.RegisteredClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	info := TokenInfo{
		Subject:     claims.Subject,
		Fingerprint: Fingerprint(token),
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}

	return info, nil
}

// Fingerprint is the Base58-encoded SHA256 of the token, safe to display.
func Fingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base58.Encode(hash[:])
}
