package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/usecase"
)

const (
	authTokenHeader = "X-Auth-Token"
	tokenCookieName = "token"
	loginPath       = "/auth/login"
)

// ErrorResponse is the JSON error payload emitted by the gates.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestIDFromContext(c.Request.Context()),
	}
}

// wantsHTML reports whether the client negotiated a browser-style response.
// API clients send Accept: application/json (or nothing) and get JSON errors;
// browsers get redirects.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

func redirectToLogin(c *gin.Context) {
	next := c.Request.URL.RequestURI()
	c.Redirect(http.StatusFound, loginPath+"?next="+url.QueryEscape(next))
	c.Abort()
}

func rejectUnauthenticated(c *gin.Context, message string) {
	if wantsHTML(c) {
		redirectToLogin(c)
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, message))
}

// bearerToken extracts a token from the Authorization header, the
// X-Auth-Token header, or the token cookie, in that order.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if token := strings.TrimSpace(c.GetHeader(authTokenHeader)); token != "" {
		return token
	}

	if token, err := c.Cookie(tokenCookieName); err == nil {
		return strings.TrimSpace(token)
	}

	return ""
}

// Authenticate resolves the caller's identity, trying the server-side session
// cookie first and falling back to a bearer token. The session path re-reads
// the account, so it observes suspension and deletion immediately; the token
// path trusts the claims until expiry.
func Authenticate(login *usecase.LoginService, accounts *usecase.AccountService, sessionCookie string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID, err := c.Cookie(sessionCookie); err == nil && sessionID != "" {
			session, err := login.ResolveSession(c.Request.Context(), sessionID)
			if err == nil {
				account, err := accounts.CheckActive(c.Request.Context(), session.Identity.ID)
				if err != nil {
					switch {
					case errors.Is(err, usecase.ErrAccountPending),
						errors.Is(err, usecase.ErrAccountSuspended),
						errors.Is(err, usecase.ErrAccountNotFound),
						errors.Is(err, usecase.ErrForbidden):
						rejectUnauthenticated(c, "session no longer valid")
					default:
						c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse(c, "authentication failed"))
					}
					return
				}

				c.Set(IdentityKey, account.Identity())
				c.Set(SessionIDKey, session.ID)
				c.Next()
				return
			}
			if !errors.Is(err, usecase.ErrSessionNotFound) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse(c, "authentication failed"))
				return
			}
			// Stale cookie; fall through to token auth.
		}

		token := bearerToken(c)
		if token == "" {
			rejectUnauthenticated(c, "authentication required")
			return
		}

		identity, err := login.VerifyToken(token)
		if err != nil {
			rejectUnauthenticated(c, "invalid or expired token")
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// RequireRole admits identities holding any of the accepted roles. An empty
// set admits every authenticated identity. Browsers are bounced to the home
// page, API clients get 403.
func RequireRole(accepted ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			rejectUnauthenticated(c, "authentication required")
			return
		}

		if identity.HasRole(accepted...) {
			c.Next()
			return
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, "insufficient permissions"))
	}
}

// RequireActiveAccount re-reads the account backing the identity and fails
// closed. Token-authenticated callers whose account was suspended or deleted
// after issuance are cut off here.
func RequireActiveAccount(accounts *usecase.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			rejectUnauthenticated(c, "authentication required")
			return
		}

		account, err := accounts.CheckActive(c.Request.Context(), identity.ID)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrAccountSuspended):
				c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, "account suspended"))
			case errors.Is(err, usecase.ErrAccountPending):
				c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, "account pending verification"))
			case errors.Is(err, usecase.ErrAccountNotFound):
				rejectUnauthenticated(c, "account no longer exists")
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse(c, "account check failed"))
			}
			return
		}

		// Refresh the identity so downstream gates see current role/status.
		c.Set(IdentityKey, account.Identity())
		c.Next()
	}
}
