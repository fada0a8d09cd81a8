package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/airticketing/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	codeInvalidRequest        = "invalid_request"
	codeNotFound              = "not_found"
	codeSeatConflict          = "seat_conflict"
	codeInsufficientInventory = "insufficient_inventory"
	codeInProgress            = "request_in_progress"
	codeKeyReused             = "idempotency_key_reused"
	codeInternal              = "internal"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, codeInvalidRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, domain.ErrSeatConflict):
		return http.StatusConflict, codeSeatConflict
	case errors.Is(err, domain.ErrInsufficientInventory):
		return http.StatusConflict, codeInsufficientInventory
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeError hides the details of internal failures from the client.
func writeError(c *gin.Context, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: message, Code: code})
}
