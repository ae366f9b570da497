package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	// Per-source failures.
	ErrCodeTransport  = "SOURCE_TRANSPORT_FAILED"
	ErrCodeHTTPStatus = "SOURCE_HTTP_STATUS"
	ErrCodeExtraction = "CONTENT_EXTRACTION_FAILED"
	ErrCodeSource     = "SOURCE_FAILED"

	// Completion capability failures.
	ErrCodeCompletion            = "COMPLETION_FAILED"
	ErrCodeCompletionAuthFailure = "COMPLETION_AUTH_FAILED"
	ErrCodeCompletionRateLimited = "COMPLETION_RATE_LIMITED"

	// Orchestration failure; surfaced as a terminal SearchResult.
	ErrCodeAggregate = "AGGREGATE_FAILED"

	// API boundary.
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type SearchError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// NewSearchError creates a new SearchError.
func NewSearchError(code, message string, err error) *SearchError {
	return &SearchError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *SearchError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// ErrorResponse is the body of every rejected API request.
type ErrorResponse struct {
	Status string       `json:"status"` // always "error"
	Error  *ErrorDetail `json:"error"`
}

// NewErrorResponse builds an ErrorResponse from a code and message.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Status: "error", Error: &ErrorDetail{Code: code, Message: message}}
}
