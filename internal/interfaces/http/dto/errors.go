package dto

import (
	"net/http"

	"github.com/grocerypos/backend/internal/domain/shared"
)

// Codes produced by the HTTP layer itself. Domain error codes are passed
// through to clients unchanged.
const (
	CodeInternal        = "INTERNAL_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeTokenExpired    = "TOKEN_EXPIRED"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeTokenRevoked    = "TOKEN_REVOKED"
	CodeRateLimited     = "RATE_LIMITED"
	CodeBodyTooLarge    = "REQUEST_TOO_LARGE"
	CodeForbidden       = "FORBIDDEN"

	// CodeInvalidCredentials is raised by login
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	CodeInternal: http.StatusInternalServerError,

	// Malformed or rejected input -> 400
	CodeBadRequest:             http.StatusBadRequest,
	CodeValidation:             http.StatusBadRequest,
	shared.CodeInvalidInput:    http.StatusBadRequest,
	shared.CodeInvalidQuantity: http.StatusBadRequest,

	// Auth -> 401/403
	CodeUnauthenticated:     http.StatusUnauthorized,
	CodeTokenExpired:        http.StatusUnauthorized,
	CodeTokenInvalid:        http.StatusUnauthorized,
	CodeTokenRevoked:        http.StatusUnauthorized,
	CodeInvalidCredentials:  http.StatusUnauthorized,
	shared.CodeUnauthorized: http.StatusUnauthorized,
	shared.CodeInvalidPin:   http.StatusForbidden,
	CodeForbidden:           http.StatusForbidden,

	// Missing resources -> 404
	shared.CodeNotFound:        http.StatusNotFound,
	shared.CodeProductNotFound: http.StatusNotFound,

	// Conflicts -> 409
	shared.CodeConcurrentOpenSession: http.StatusConflict,
	shared.CodeConstraintViolation:   http.StatusConflict,
	shared.CodeConcurrencyConflict:   http.StatusConflict,

	// Business rules -> 422
	shared.CodeProductInactive:          http.StatusUnprocessableEntity,
	shared.CodeNoOpenSession:            http.StatusUnprocessableEntity,
	shared.CodeInsufficientStock:        http.StatusUnprocessableEntity,
	shared.CodePaymentMismatch:          http.StatusUnprocessableEntity,
	shared.CodeInvalidState:             http.StatusUnprocessableEntity,
	shared.CodeSessionClosedForDay:      http.StatusUnprocessableEntity,
	shared.CodeReturnExceedsEligibleQty: http.StatusUnprocessableEntity,

	CodeRateLimited:  http.StatusTooManyRequests,
	CodeBodyTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
