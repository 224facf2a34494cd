// Account HTTP handlers.
//
// This file exposes the authentication endpoints:
//   - POST /signup  (register + issue token)
//   - POST /token   (login, form-encoded credentials)
//
// Both endpoints respond with the same token envelope. Credential values are
// never logged raw; see middleware.MaskSecret.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/okrtracker/go-okr-backend/internal/http/middleware"
	"github.com/okrtracker/go-okr-backend/internal/validate"
)

// SignupRequest is the JSON payload for creating an account.
type SignupRequest struct {
	Username string `json:"username" example:"alice"`
	Password string `json:"password" example:"s3cret"`
}

// TokenRequest is the form payload for logging in.
type TokenRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// TokenResponse is the envelope carrying an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type" example:"bearer"`
}

// validCredentials checks presence of both credential fields, accumulating
// per-field messages in the validation shape.
func validCredentials(username, password string) (string, error) {
	username = validate.Normalize(username)
	errs := validate.Errors{}
	if username == "" {
		errs["username"] = []string{"field required"}
	}
	if password == "" {
		errs["password"] = []string{"field required"}
	}
	if len(errs) > 0 {
		return "", errs
	}
	return username, nil
}

// Signup godoc
// @ID          signup
// @Summary     Register a new user
// @Description Creates an account and returns a bearer token for it.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body body handlers.SignupRequest true "Credentials"
// @Success     200 {object} handlers.TokenResponse
// @Failure     400 {object} problem.Details "Username already registered"
// @Failure     422 {object} problem.Details "Validation failed"
// @Router      /signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadBody(c)
		return
	}
	username, err := validCredentials(req.Username, req.Password)
	if err != nil {
		abortError(c, err)
		return
	}

	token, err := h.accountSvc.Signup(c.Request.Context(), username, req.Password)
	if err != nil {
		abortError(c, err)
		return
	}

	middleware.LoggerFrom(c).Info().
		Str("username", username).
		Msg("user registered")
	ok(c, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Token godoc
// @ID          token
// @Summary     Log in
// @Description Verifies form-encoded credentials and returns a bearer token.
// @Tags        Auth
// @Accept      x-www-form-urlencoded
// @Produce     json
// @Param       username formData string true "Username"
// @Param       password formData string true "Password"
// @Success     200 {object} handlers.TokenResponse
// @Failure     400 {object} problem.Details "Incorrect username or password"
// @Router      /token [post]
func (h *Handlers) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		abortBadBody(c)
		return
	}
	username, err := validCredentials(req.Username, req.Password)
	if err != nil {
		abortError(c, err)
		return
	}

	token, err := h.accountSvc.Login(c.Request.Context(), username, req.Password)
	if err != nil {
		// Log the attempt without the password; only the masked form may
		// appear in any log line.
		middleware.LoggerFrom(c).Warn().
			Str("username", username).
			Str("password", middleware.MaskSecret(req.Password)).
			Msg("login failed")
		abortError(c, err)
		return
	}

	ok(c, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
