// Package auth issues and verifies admin bearer tokens.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	adminSubject = "admin"
	issuer       = "credicambios"
)

var (
	// ErrInvalidCredentials is returned when the submitted admin secret is wrong
	// or admin login is disabled.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a bearer token is missing, malformed,
	// expired, or signed with another key.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Manager checks the admin secret and signs HS256 tokens.
type Manager struct {
	secret []byte
	key    []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. An empty secret disables Login. An empty
// signingKey is replaced with 32 random bytes, so tokens do not survive a
// restart.
func NewManager(secret, signingKey string, ttl time.Duration) (*Manager, error) {
	key := []byte(signingKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		key:    key,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Enabled reports whether an admin secret is configured.
func (m *Manager) Enabled() bool {
	return len(m.secret) > 0
}

// Login compares secret with the configured one in constant time and, on
// match, returns a signed token and its expiry.
func (m *Manager) Login(secret string) (string, time.Time, error) {
	if !m.Enabled() || subtle.ConstantTimeCompare([]byte(secret), m.secret) != 1 {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return m.Issue()
}

// Issue signs a new admin token.
func (m *Manager) Issue() (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   adminSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses token and checks its signature, expiry and subject.
func (m *Manager) Verify(token string) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithSubject(adminSubject),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
