package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/theranjitkumar/blogger/internal/infra/security"
	"github.com/theranjitkumar/blogger/internal/usecase"
)

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError resolves the provided error against known cases or falls back to a generic response.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	var validationErr *security.PasswordValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, validationErr.Message))
		return
	}

	var lockedErr *usecase.AccountLockedError
	if errors.As(err, &lockedErr) {
		retryAfter := int(lockedErr.RetryAfter.Seconds())
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		response := NewErrorResponse(c, "account temporarily locked")
		response.RetryAfter = retryAfter
		c.JSON(http.StatusLocked, response)
		return
	}

	for _, cs := range cases {
		if cs.Err == nil {
			continue
		}
		if errors.Is(err, cs.Err) {
			c.JSON(cs.Status, NewErrorResponse(c, cs.Message))
			return
		}
	}

	c.JSON(fallbackStatus, NewErrorResponse(c, fallbackMessage))
}
