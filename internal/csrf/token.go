// Package csrf protects the form endpoints against cross-site request forgery.
//
// DOUBLE-SUBMIT COOKIE:
// Every page load sets a "csrf_token" cookie and renders the same value into
// a hidden form field. A POST is accepted only when the submitted field (or
// X-CSRF-Token header) equals the cookie. A page on another origin can make
// the browser send the cookie, but it cannot read it, so it cannot fill in
// the matching field.
//
// The token itself is an HS256 JWT with a random ID and an expiry, so a
// cookie planted by a sibling subdomain fails signature verification.
package csrf

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
	"golang.org/x/crypto/hkdf"
)

const (
	issuer  = "tasklist"
	subject = "csrf"
	// hkdfInfo binds the derived key to this use. Changing it invalidates
	// every outstanding token.
	hkdfInfo = "tasklist csrf token v1"

	// DefaultTTL is how long an issued token stays valid.
	DefaultTTL = 12 * time.Hour
)

// TokenService issues and verifies CSRF tokens.
type TokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenService derives a signing key from secret with HKDF-SHA256.
// An empty secret draws 32 random bytes instead, which means tokens do not
// survive a process restart. Non-empty secrets shorter than 16 characters
// are rejected.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	var ikm []byte
	switch {
	case secret == "":
		ikm = make([]byte, 32)
		if _, err := rand.Read(ikm); err != nil {
			return nil, fmt.Errorf("csrf: generating secret: %w", err)
		}
	case len(secret) < 16:
		return nil, errors.New("csrf: secret must be at least 16 characters")
	default:
		ikm = []byte(secret)
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("csrf: deriving key: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{key: key, ttl: ttl, now: time.Now}, nil
}

// TTL returns the token lifetime, used for the cookie's Max-Age.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate issues a fresh token. Each call yields a distinct value because
// the jti claim is a new xid.
func (s *TokenService) Generate() (string, error) {
	now := s.now()
	c := jwt.RegisteredClaims{
		ID:        xid.New().String(),
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("csrf: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer, subject and expiry.
// jwt.WithValidMethods rejects "alg: none" and other algorithm swaps.
func (s *TokenService) Validate(token string) error {
	_, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("csrf: token expired")
		}
		return fmt.Errorf("csrf: invalid token: %w", err)
	}
	return nil
}
