package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/blackjack-go/internal/model"
	"github.com/mcoot/blackjack-go/internal/services/auth"
	"github.com/mcoot/blackjack-go/internal/services/ledger"
	"github.com/mcoot/blackjack-go/internal/storage/redis"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidBet           = "INVALID_BET"
	CodeInsufficientBalance  = "INSUFFICIENT_BALANCE"
	CodeShoeExhausted        = "SHOE_EXHAUSTED"
	CodeInvalidPhase         = "INVALID_PHASE"
	CodeNoActiveRound        = "NO_ACTIVE_ROUND"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeProfileNotFound      = "PROFILE_NOT_FOUND"
	CodeUsernameExists       = "USERNAME_EXISTS"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeInvalidUsername      = "INVALID_USERNAME"
	CodePasswordTooShort     = "PASSWORD_TOO_SHORT"
	CodePasswordMismatch     = "PASSWORD_MISMATCH"
	CodeOperatorDisabled     = "OPERATOR_DISABLED"
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodeCannotChangeOwnAdmin = "CANNOT_CHANGE_OWN_ADMIN"
	CodeConflict             = "CONFLICT"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// StatusOf returns the HTTP status WriteError would use for err
func StatusOf(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Round errors
	case errors.Is(err, model.ErrInvalidBet):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidBet, "Bet must be at least 1 and no more than your balance"}}
	case errors.Is(err, model.ErrInsufficientBalance):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientBalance, "Insufficient balance"}}
	case errors.Is(err, model.ErrShoeExhausted):
		return &httpError{http.StatusConflict, APIError{CodeShoeExhausted, "Shoe is exhausted"}}
	case errors.Is(err, model.ErrInvalidPhase):
		return &httpError{http.StatusConflict, APIError{CodeInvalidPhase, "Action not allowed in the current phase"}}
	case errors.Is(err, model.ErrNoActiveRound):
		return &httpError{http.StatusNotFound, APIError{CodeNoActiveRound, "No active round"}}

	// Profile errors
	case errors.Is(err, model.ErrProfileNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeProfileNotFound, "Profile not found"}}
	case errors.Is(err, model.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}
	case errors.Is(err, model.ErrCredentialMismatch):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid credentials"}}

	// Admin errors
	case errors.Is(err, model.ErrNotAdmin):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Admin privileges required"}}
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAmount, "Invalid amount"}}
	case errors.Is(err, model.ErrInvalidPaymentMethod):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPaymentMethod, "Invalid payment method"}}
	case errors.Is(err, model.ErrCannotChangeOwnAdmin):
		return &httpError{http.StatusForbidden, APIError{CodeCannotChangeOwnAdmin, "Cannot change your own admin status"}}

	// Auth errors
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrInvalidUsername):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidUsername, "Username cannot be empty"}}
	case errors.Is(err, auth.ErrPasswordTooShort):
		return &httpError{http.StatusBadRequest, APIError{CodePasswordTooShort, "Password must be at least 4 characters long"}}
	case errors.Is(err, auth.ErrPasswordMismatch):
		return &httpError{http.StatusBadRequest, APIError{CodePasswordMismatch, "Passwords don't match"}}
	case errors.Is(err, auth.ErrOperatorDisabled):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeOperatorDisabled, "Operator login is not configured"}}

	// Storage errors
	case errors.Is(err, redis.ErrUpdateConflict):
		return &httpError{http.StatusConflict, APIError{CodeConflict, "Profile is busy, try again"}}
	case errors.Is(err, ledger.ErrNoOutcome):
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Round could not be settled"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) error {
	return &httpError{http.StatusForbidden, APIError{CodeForbidden, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
