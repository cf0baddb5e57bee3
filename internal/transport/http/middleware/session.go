package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"daily-diet/internal/app"
	"daily-diet/internal/transport/http/response"
)

const ContextSessionIDKey = "session_id"

// SessionCookie places a well-formed session token from the cookie into the context.
// A malformed token is treated as absent.
func SessionCookie(resolver *app.SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := c.Cookie(cookieName); err == nil {
			if sessionID, ok := resolver.Lookup(raw); ok {
				c.Set(ContextSessionIDKey, sessionID)
			}
		}
		c.Next()
	}
}

// RequireSession rejects requests that carry no session token.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionID(c); !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, app.ErrMissingCredential.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

func SessionID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextSessionIDKey)
	if !exists {
		return "", false
	}
	sessionID, ok := value.(string)
	return sessionID, ok && sessionID != ""
}
