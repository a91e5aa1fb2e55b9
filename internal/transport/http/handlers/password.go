package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/theranjitkumar/blogger/internal/transport/http/middleware"
	"github.com/theranjitkumar/blogger/internal/usecase"
)

// PasswordHandler exposes the reset flow and authenticated password changes.
type PasswordHandler struct {
	resets *usecase.PasswordResetService
}

// NewPasswordHandler builds a PasswordHandler with the provided service.
func NewPasswordHandler(resets *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{resets: resets}
}

// RegisterResetRoutes binds the unauthenticated reset endpoints. The
// middlewares apply to the request endpoint only; validation and confirmation
// carry an unguessable token and need no throttle.
func (h *PasswordHandler) RegisterResetRoutes(r *gin.RouterGroup, requestMiddlewares ...gin.HandlerFunc) {
	requestHandlers := append([]gin.HandlerFunc{}, requestMiddlewares...)
	requestHandlers = append(requestHandlers, h.RequestReset)

	r.POST("/request", requestHandlers...)
	r.GET("/validate", h.ValidateToken)
	r.POST("/confirm", h.ConfirmReset)
}

// RequestReset issues a reset token for the supplied email. The response is
// identical whether or not the email belongs to an account.
func (h *PasswordHandler) RequestReset(c *gin.Context) {
	var req ResetRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	if err := h.resets.RequestReset(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "reset request failed"))
		return
	}

	c.JSON(http.StatusAccepted, MessageResponse{Message: "if the email is registered, a reset link is on its way"})
}

// ValidateToken reports whether a reset token is still redeemable without
// consuming it. Frontends call this before showing the new-password form.
func (h *PasswordHandler) ValidateToken(c *gin.Context) {
	token := c.Query("token")

	if err := h.resets.ValidateResetToken(c.Request.Context(), token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidResetToken, Status: http.StatusBadRequest, Message: "invalid or expired reset token"},
		}, http.StatusInternalServerError, "token validation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "token is valid"})
}

// ConfirmReset redeems a reset token with the replacement password.
func (h *PasswordHandler) ConfirmReset(c *gin.Context) {
	var req ResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token and password are required"))
		return
	}

	if err := h.resets.Redeem(c.Request.Context(), req.Token, req.Password); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidResetToken, Status: http.StatusBadRequest, Message: "invalid or expired reset token"},
		}, http.StatusInternalServerError, "password reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

// ChangePassword swaps the password for the authenticated account.
func (h *PasswordHandler) ChangePassword(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "current_password and new_password are required"))
		return
	}

	if err := h.resets.ChangePassword(c.Request.Context(), identity.ID, req.CurrentPassword, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
		}, http.StatusInternalServerError, "password change failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}
