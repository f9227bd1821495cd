package dto

import "net/http"

// Generic error codes used when no domain code applies.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// statusByCode maps domain error codes to HTTP status codes. Unlisted
// codes (the INVALID_* family) fall back to 400.
var statusByCode = map[string]int{
	ErrCodeNotFound:       http.StatusNotFound,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"NOT_CONFIGURED":      http.StatusConflict,
	"ALREADY_CONFIGURED":  http.StatusConflict,
	"INSUFFICIENT_STOCK":  http.StatusConflict,
	ErrCodeInternal:       http.StatusInternalServerError,
}

// GetHTTPStatus returns the status code for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
