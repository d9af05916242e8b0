package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned values compare equal to their template.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrInvalidTransition  = New("INVALID_SESSION_TRANSITION", http.StatusConflict, "scan session cannot move to the requested state")
)

// Payment-code resolution and confirmation failures. All of them are recoverable by
// re-entering the code or re-confirming.
var (
	ErrInvalidCodeFormat   = New("INVALID_CODE_FORMAT", http.StatusBadRequest, "payment code format is invalid")
	ErrPaymentTypeNotFound = New("PAYMENT_TYPE_NOT_FOUND", http.StatusNotFound, "no active payment type matches the code")
	ErrPayerNotIdentified  = New("PAYER_NOT_IDENTIFIED", http.StatusNotFound, "payer could not be identified from the code")
	ErrNoValidRecipients   = New("NO_VALID_RECIPIENTS", http.StatusUnprocessableEntity, "no recipient in the code matches a student")
	ErrAllAlreadyPaid      = New("ALL_ALREADY_PAID", http.StatusConflict, "every recipient has already paid")
	ErrStudentNotFound     = New("STUDENT_NOT_FOUND", http.StatusNotFound, "no student matches the code")
	ErrAlreadyPaid         = New("ALREADY_PAID", http.StatusConflict, "student has already paid")
	ErrPartialWriteFailure = New("PARTIAL_WRITE_FAILURE", http.StatusMultiStatus, "some payments could not be recorded")
	ErrTotalWriteFailure   = New("TOTAL_WRITE_FAILURE", http.StatusBadGateway, "no payment could be recorded")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy carrying structured details for the response body.
func WithDetails(err *Error, details map[string]interface{}) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	clone.Details = details
	return &clone
}

// HasCode reports whether err normalises to an *Error with the given code.
func HasCode(err error, code string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
