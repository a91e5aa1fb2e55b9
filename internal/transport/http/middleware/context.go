package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/theranjitkumar/blogger/internal/core/domain"
)

const (
	// IdentityKey is the context key for the authenticated identity.
	IdentityKey = "identity"
	// SessionIDKey is the context key for the resolved session identifier,
	// set only when authentication came from a session cookie.
	SessionIDKey = "session_id"
)

// CurrentIdentity retrieves the authenticated identity from the context.
func CurrentIdentity(c *gin.Context) (domain.Identity, bool) {
	val, exists := c.Get(IdentityKey)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := val.(domain.Identity)
	return identity, ok
}

// CurrentSessionID retrieves the session identifier when the request was
// authenticated via session cookie.
func CurrentSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}
