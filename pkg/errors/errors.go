package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound    = NewError("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrValidation  = NewError("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrInternal    = NewError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	ErrConflict    = NewError("CONFLICT", "resource conflict", http.StatusConflict)
	ErrEnrichment  = NewError("ENRICHMENT_ERROR", "enrichment failed", http.StatusBadGateway)
	ErrPersistence = NewError("PERSISTENCE_ERROR", "persistence failed", http.StatusServiceUnavailable)
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code      string
	Message   string
	Status    int
	Details   map[string]interface{}
	Cause     error
	retryable *bool
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	msg := e.Message

	if len(e.Details) > 0 {
		if detailMsg, ok := e.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether a job carrying this error should be
// re-enqueued. Validation and not-found failures never become valid by
// retrying; enrichment and persistence failures default to retryable.
func (e *Error) IsRetryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	if e.Cause != nil {
		var retryableErr RetryableError
		if errors.As(e.Cause, &retryableErr) {
			return retryableErr.IsRetryable()
		}
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return !fatalErr.IsFatal()
		}
	}
	return e.Code != ErrValidation.Code && e.Code != ErrNotFound.Code
}

func (e *Error) IsFatal() bool {
	return !e.IsRetryable()
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	if err.Details == nil {
		err.Details = make(map[string]interface{})
	}
	err.Details[key] = value
	return &err
}

func (e *Error) AsRetryable() *Error {
	err := *e
	retryable := true
	err.retryable = &retryable
	return &err
}

func (e *Error) AsFatal() *Error {
	err := *e
	retryable := false
	err.retryable = &retryable
	return &err
}

func Is(err error, target *Error) bool {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code == target.Code
	}
	return false
}

type ErrorResponse struct {
	Error     string                 `json:"error"`
	ErrorCode string                 `json:"error_code"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

func ToHTTPStatus(err error) int {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Status
	}
	return http.StatusInternalServerError
}

func ToErrorResponse(err error) ErrorResponse {
	var coded *Error
	if errors.As(err, &coded) {
		msg := coded.Message
		if detailMsg, ok := coded.Details["message"].(string); ok && detailMsg != "" {
			msg = detailMsg
		}
		return ErrorResponse{
			Error:     msg,
			ErrorCode: coded.Code,
			Details:   coded.Details,
		}
	}
	return ErrorResponse{
		Error:     "internal server error",
		ErrorCode: ErrInternal.Code,
	}
}
