package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/infra/config"
	"github.com/theranjitkumar/blogger/internal/transport/http/middleware"
	"github.com/theranjitkumar/blogger/internal/usecase"
)

// AuthHandler exposes login, logout, registration, and email verification.
type AuthHandler struct {
	login        *usecase.LoginService
	registration *usecase.RegistrationService
	session      config.SessionSettings
	jwt          config.JWTSettings
}

// NewAuthHandler builds an AuthHandler with the provided services.
func NewAuthHandler(
	login *usecase.LoginService,
	registration *usecase.RegistrationService,
	session config.SessionSettings,
	jwt config.JWTSettings,
) *AuthHandler {
	return &AuthHandler{
		login:        login,
		registration: registration,
		session:      session,
		jwt:          jwt,
	}
}

// RegisterRoutes binds auth endpoints to the provided router group. The
// middlewares apply to login only, so rate limiting does not throttle logout.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	loginHandlers := append([]gin.HandlerFunc{}, loginMiddlewares...)
	loginHandlers = append(loginHandlers, h.Login)

	r.POST("/register", h.Register)
	r.POST("/login", loginHandlers...)
	r.POST("/verify-email", h.VerifyEmail)
}

// Login authenticates credentials and returns a bearer token alongside a
// session cookie, so both browser and API clients are served by one endpoint.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier and password are required"))
		return
	}

	result, err := h.login.Login(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrAccountPending, Status: http.StatusForbidden, Message: "account pending verification"},
			{Err: usecase.ErrAccountSuspended, Status: http.StatusForbidden, Message: "account suspended"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	h.setSessionCookie(c, result.Session.ID, result.Session.ExpiresAt)

	c.JSON(http.StatusOK, LoginResponse{
		Token:     result.Token,
		TokenType: "Bearer",
		ExpiresIn: int(h.tokenTTL().Seconds()),
		Account: AccountSummary{
			ID:       result.Identity.ID,
			Username: result.Session.Identity.Username,
			Email:    result.Session.Identity.Email,
			Role:     result.Identity.Role,
		},
		Session: SessionSummary{
			ID:        result.Session.ID,
			CreatedAt: result.Session.CreatedAt,
			ExpiresAt: result.Session.ExpiresAt,
		},
	})
}

// Logout deletes the server-side session and clears the cookie. Requests
// without a session still succeed; logout is idempotent.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID := middleware.CurrentSessionID(c)
	if sessionID == "" {
		if cookie, err := c.Cookie(h.cookieName()); err == nil {
			sessionID = cookie
		}
	}

	if err := h.login.Logout(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	h.clearSessionCookie(c)

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// Register creates an account. The response carries the account summary and
// states whether email verification is still outstanding.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username, email, and password are required"))
		return
	}

	account, err := h.registration.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrIdentifierTaken, Status: http.StatusConflict, Message: "username or email already taken"},
			{Err: usecase.ErrInvalidRegistration, Status: http.StatusBadRequest, Message: "invalid registration input"},
		}, http.StatusInternalServerError, "registration failed")
		return
	}

	response := RegisterResponse{
		Message: "registration complete",
		Account: NewAccountSummary(*account),
	}

	if account.Status == domain.AccountStatusPending {
		response.Message = "registration received, check your email to verify the account"
		c.JSON(http.StatusCreated, response)
		return
	}

	// Immediately-active accounts are signed in as part of registration. A
	// failure here still leaves the account created, so the client can log in
	// normally.
	if result, err := h.login.Login(c.Request.Context(), account.Username, req.Password); err == nil {
		h.setSessionCookie(c, result.Session.ID, result.Session.ExpiresAt)
		response.Token = result.Token
		response.Session = &SessionSummary{
			ID:        result.Session.ID,
			CreatedAt: result.Session.CreatedAt,
			ExpiresAt: result.Session.ExpiresAt,
		}
	}

	c.JSON(http.StatusCreated, response)
}

// VerifyEmail consumes an emailed verification token and activates the account.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token is required"))
		return
	}

	if err := h.registration.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidVerificationToken, Status: http.StatusBadRequest, Message: "invalid or expired verification token"},
		}, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "email verified"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionID string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName(), sessionID, maxAge, "/", "", false, true)
}

func (h *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName(), "", -1, "/", "", false, true)
}

func (h *AuthHandler) cookieName() string {
	if h.session.CookieName != "" {
		return h.session.CookieName
	}
	return "session_id"
}

func (h *AuthHandler) tokenTTL() time.Duration {
	if h.jwt.TokenTTL > 0 {
		return h.jwt.TokenTTL
	}
	return 24 * time.Hour
}
