// Package auth provides password hashing and stateless bearer-token issuing
// and verification. Tokens are HMAC-signed JWTs carrying the username and an
// expiry; passwords are stored as bcrypt hashes.
//
// The signing key and algorithm are injected from configuration and treated
// as opaque: nothing in this package logs or exposes them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned when a token is missing, malformed, expired, or
// fails signature verification. Callers should not distinguish further; the
// reasons are deliberately collapsed to avoid oracle behavior.
var ErrInvalidToken = errors.New("invalid or expired token")

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims is the token payload: the subject (username) plus registered claims.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues and verifies bearer tokens.
type Manager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewManager builds a Manager for the given HMAC algorithm name (HS256, HS384,
// HS512), secret, and token lifetime. Unknown algorithm names fall back to
// HS256; config validation rejects them before this point.
func NewManager(secret, algorithm string, ttl time.Duration) *Manager {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		method = jwt.SigningMethodHS256
	}
	return &Manager{secret: []byte(secret), method: method, ttl: ttl}
}

// Issue creates a signed token for username, expiring after the configured
// lifetime.
func (m *Manager) Issue(username string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates tokenString and returns the subject username.
// Any failure (bad signature, wrong algorithm, expiry, empty subject) yields
// ErrInvalidToken.
func (m *Manager) Verify(tokenString string) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{m.method.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
