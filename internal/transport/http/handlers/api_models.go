package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/infra/logger"
)

// ErrorResponse represents a generic error payload with the request ID for debugging.
type ErrorResponse struct {
	Error      string `json:"error"`
	RequestID  string `json:"request_id,omitempty"`
	RetryAfter int    `json:"retry_after_seconds,omitempty"`
}

// NewErrorResponse creates an error response with the request ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	requestID, _ := c.Request.Context().Value(logger.RequestIDKey{}).(string)

	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestID,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountSummary describes the API view of an account. Credential material
// never appears here.
type AccountSummary struct {
	ID        string               `json:"id"`
	Username  string               `json:"username"`
	Email     string               `json:"email"`
	Role      domain.Role          `json:"role"`
	Status    domain.AccountStatus `json:"status"`
	LastLogin *time.Time           `json:"last_login,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// NewAccountSummary maps a domain account onto its API representation.
func NewAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      account.Role,
		Status:    account.Status,
		LastLogin: account.LastLogin,
		CreatedAt: account.CreatedAt,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// SessionSummary provides a compact view of the session minted at login.
type SessionSummary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
	ExpiresIn int            `json:"expires_in"`
	Account   AccountSummary `json:"account"`
	Session   SessionSummary `json:"session"`
}

// RegisterRequest defines the payload for the registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse describes the response for a successful registration. Token
// and session are present only when the account was activated immediately.
type RegisterResponse struct {
	Message string          `json:"message"`
	Account AccountSummary  `json:"account"`
	Token   string          `json:"token,omitempty"`
	Session *SessionSummary `json:"session,omitempty"`
}

// VerifyEmailRequest carries the emailed verification token.
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// ResetRequestRequest asks for a password reset link.
type ResetRequestRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetConfirmRequest redeems a reset token with the replacement password.
type ResetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest swaps the password for an authenticated account.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangeStatusRequest applies an administrative status transition.
type ChangeStatusRequest struct {
	Status domain.AccountStatus `json:"status" binding:"required"`
}
