package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/theranjitkumar/blogger/internal/core/domain"
	"github.com/theranjitkumar/blogger/internal/core/port"
	"github.com/theranjitkumar/blogger/internal/transport/http/middleware"
	"github.com/theranjitkumar/blogger/internal/usecase"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// AccountHandler exposes the self-service profile endpoint and the
// administrative account management surface.
type AccountHandler struct {
	accounts *usecase.AccountService
}

// NewAccountHandler builds an AccountHandler with the provided service.
func NewAccountHandler(accounts *usecase.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterAdminRoutes binds the administrative endpoints. Callers attach role
// enforcement through the group's middleware.
func (h *AccountHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.PATCH("/:id/status", h.ChangeStatus)
	r.DELETE("/:id", h.Delete)
}

// Profile returns the authenticated caller's own account.
func (h *AccountHandler) Profile(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), identity.ID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	c.JSON(http.StatusOK, NewAccountSummary(*account))
}

// List returns accounts matching the status, role, limit, and offset query
// parameters.
func (h *AccountHandler) List(c *gin.Context) {
	filter := port.AccountFilter{
		Status: domain.AccountStatus(c.Query("status")),
		Role:   domain.Role(c.Query("role")),
		Limit:  parseIntQuery(c, "limit", defaultListLimit),
		Offset: parseIntQuery(c, "offset", 0),
	}

	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown status filter"))
		return
	}
	if filter.Role != "" && !filter.Role.Valid() {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role filter"))
		return
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = defaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	accounts, err := h.accounts.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "account listing failed"))
		return
	}

	summaries := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		summaries = append(summaries, NewAccountSummary(account))
	}

	c.JSON(http.StatusOK, gin.H{
		"accounts": summaries,
		"count":    len(summaries),
	})
}

// Get returns a single account by identifier.
func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "account lookup failed")
		return
	}

	c.JSON(http.StatusOK, NewAccountSummary(*account))
}

// ChangeStatus applies an administrative status transition.
func (h *AccountHandler) ChangeStatus(c *gin.Context) {
	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "status is required"))
		return
	}

	if err := h.accounts.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrInvalidTransition, Status: http.StatusConflict, Message: "status transition not allowed"},
		}, http.StatusInternalServerError, "status change failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "status updated"})
}

// Delete soft-deletes an account.
func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.accounts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "account deletion failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
