package errors

import (
	"net/http"
)

// APIError is an error raised by the HTTP layer itself, before a request
// reaches the transform pipeline.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

var (
	ErrMissingFile     = New(http.StatusBadRequest, "MISSING_FILE", "Multipart field \"file\" is required")
	ErrPayloadTooLarge = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Upload exceeds the maximum allowed size")
)

// InvalidRequestWithError reports a malformed request body, carrying err's
// message as details.
func InvalidRequestWithError(err error) *APIError {
	apiErr := New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	apiErr.Details = err.Error()
	return apiErr
}
