package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stocksim/models"
	"stocksim/session"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session"

const identityKey = "identity"

// SessionResolver turns a session token into the identity it belongs to.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

// IdentityHandler is a handler that acts for a logged-in user.
type IdentityHandler func(c *gin.Context, id models.Identity)

// Token returns the session token from the session cookie or, failing that,
// a Bearer Authorization header.
func Token(c *gin.Context) string {
	if tokens := candidateTokens(c); len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}

// candidateTokens lists the tokens a request carries, cookie first.
func candidateTokens(c *gin.Context) []string {
	var tokens []string
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		tokens = append(tokens, cookie)
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if bearer := strings.TrimPrefix(header, "Bearer "); bearer != "" {
			tokens = append(tokens, bearer)
		}
	}
	return tokens
}

// RequireAuth rejects requests without a live session. Browsers are sent to
// the login page, JSON clients get a 401. A stale cookie does not hide a
// valid Bearer token.
func RequireAuth(sessions SessionResolver, onError func(c *gin.Context, status int, msg string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens := candidateTokens(c)
		if len(tokens) == 0 {
			unauthorized(c, onError, "login required")
			return
		}

		for _, token := range tokens {
			id, err := sessions.Resolve(c.Request.Context(), token)
			if err == nil {
				c.Set(identityKey, *id)
				c.Next()
				return
			}
			if errors.Is(err, session.ErrInvalidToken) || errors.Is(err, session.ErrNoSession) {
				continue
			}
			c.Error(err)
			onError(c, http.StatusInternalServerError, "internal server error")
			c.Abort()
			return
		}

		unauthorized(c, onError, "session expired, please log in again")
	}
}

func unauthorized(c *gin.Context, onError func(c *gin.Context, status int, msg string), msg string) {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		onError(c, http.StatusUnauthorized, msg)
		c.Abort()
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

// WithIdentity adapts an IdentityHandler to gin. It must run behind
// RequireAuth.
func WithIdentity(h IdentityHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := c.MustGet(identityKey).(models.Identity)
		if !ok {
			panic("middleware: identity has unexpected type")
		}
		h(c, id)
	}
}
