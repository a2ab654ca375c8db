// Package linktoken issues and verifies the signed correlation token carried
// through the OAuth state parameter. Signing binds the callback to the Slack
// identity that initiated the link, so a tampered or replayed-late state is
// rejected before any side effect.
package linktoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidState is returned when a state token fails verification.
var ErrInvalidState = errors.New("linktoken: invalid state")

// Signer issues and verifies correlation tokens with an HMAC secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a Signer. ttl bounds the window between issuing the
// authorization URL and completing the callback.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a signed state token for the given Slack identity.
func (s *Signer) Issue(slackUserID string) (string, error) {
	if slackUserID == "" {
		return "", errors.New("linktoken: slack user id is required")
	}
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   slackUserID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign state token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns the Slack
// identity it was issued for.
func (s *Signer) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !parsed.Valid {
		return "", ErrInvalidState
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidState
	}
	return claims.Subject, nil
}
