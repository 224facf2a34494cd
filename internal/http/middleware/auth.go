// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication. Tokens are stateless and
// verified against the configured signing key; the verified subject is
// resolved to an account and stored in the Gin context for handlers.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/domain"
	"github.com/okrtracker/go-okr-backend/internal/http/problem"
)

const (
	// ctxKeyUserID is the Gin context key for the authenticated user's id.
	ctxKeyUserID = "userID"
	// ctxKeyUsername is the Gin context key for the authenticated username.
	ctxKeyUsername = "username"
)

// TokenVerifier validates a bearer token and returns its subject username.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserResolver maps a verified username to the stored account.
type UserResolver func(ctx context.Context, username string) (*domain.User, error)

// Auth returns a Gin middleware that requires a valid bearer token.
//
// Failure of presence, shape, signature, expiry, or subject resolution all
// collapse into one unauthorized problem; the response carries
// WWW-Authenticate: Bearer. On success the user id and username are stored in
// the context for UserID()/Username().
func Auth(verifier TokenVerifier, resolve UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c)
			return
		}

		username, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			LoggerFrom(c).Warn().
				Str("token", MaskSecret(token)).
				Msg("token verification failed")
			abortUnauthorized(c)
			return
		}

		u, err := resolve(c.Request.Context(), username)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(ctxKeyUserID, u.ID)
		c.Set(ctxKeyUsername, u.Username)
		c.Next()
	}
}

// UserID returns the authenticated user's id, or 0 when Auth() did not run.
func UserID(c *gin.Context) uint {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// Username returns the authenticated username, or "" when Auth() did not run.
func Username(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUsername); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	problem.Abort(c, problem.New(
		problem.TypeUnauthorized,
		http.StatusUnauthorized,
		"Could not validate credentials",
	))
}
