// Package domainerrors carries error codes across service boundaries.
//
// Services return *Error values (usually via New or Wrap) so transports can
// map them to responses without inspecting messages. Stores return sentinel
// errors from pkg/platform/sentinel; services translate those into codes.
package domainerrors

import (
	"context"
	"errors"
	"fmt"
	"net"

	"propverify/pkg/platform/sentinel"
)

// Code is the stable identifier of an error bucket.
type Code string

const (
	CodeInvalidFile            Code = "invalid_file"
	CodeNoDocumentsProvided    Code = "no_documents_provided"
	CodeInvalidApplicantName   Code = "invalid_applicant_name"
	CodeInvalidStateTransition Code = "invalid_state_transition"
	CodeMissingReason          Code = "missing_reason"
	CodeForbidden              Code = "permission_denied"
	CodeUnauthorized           Code = "unauthenticated"
	CodeNotFound               Code = "not_found"
	CodeTimeout                Code = "timeout"
	CodeConflict               Code = "concurrent_modification"
	CodeUnavailable            Code = "store_unavailable"

	CodeBadRequest Code = "bad_request"
	CodeValidation Code = "validation_error"
	CodeInternal   Code = "internal_error"
)

// Error is a coded domain error. Message is safe to show to callers.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// HasCode reports whether the outermost coded error in the chain has code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias of HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, classifying uncoded errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return classify(err)
}

// Classify returns err as a coded error. Errors that already carry a code are
// returned unchanged; everything else lands in the closest bucket so callers
// never see an unclassified failure.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	code := classify(err)
	return &Error{Code: code, Message: Message(code), Err: err}
}

func classify(err error) Code {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CodeTimeout
	case errors.Is(err, sentinel.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, sentinel.ErrConflict):
		return CodeConflict
	case errors.Is(err, sentinel.ErrPermissionDenied):
		return CodeForbidden
	case errors.Is(err, sentinel.ErrUnauthenticated):
		return CodeUnauthorized
	case errors.Is(err, sentinel.ErrInvalidState):
		return CodeInvalidStateTransition
	case errors.Is(err, sentinel.ErrUnavailable):
		return CodeUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeout
	}
	return CodeUnavailable
}

// Translate attaches op to an infrastructure error, keeping an existing code
// or classifying uncoded errors into the closest bucket.
func Translate(err error, op string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Code: classify(err), Message: op, Err: err}
}

// Retryable reports whether an idempotent read may be retried after err.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeUnavailable, CodeTimeout, CodeForbidden:
		return true
	default:
		return false
	}
}

var messages = map[Code]string{
	CodeInvalidFile:            "The file must be a PDF, JPEG or PNG no larger than 10 MB.",
	CodeNoDocumentsProvided:    "Attach at least one uploaded document before submitting.",
	CodeInvalidApplicantName:   "Enter your full legal name (first and last name), not an email or username.",
	CodeInvalidStateTransition: "This verification can no longer be changed; submit again to start a new review.",
	CodeMissingReason:          "A rejection needs a reason the applicant can act on.",
	CodeForbidden:              "You do not have permission to perform this action.",
	CodeUnauthorized:           "Sign in again to continue.",
	CodeNotFound:               "The requested record no longer exists.",
	CodeTimeout:                "The operation took too long. Please try again.",
	CodeConflict:               "This verification changed while you were working. Reload and try again.",
	CodeUnavailable:            "The service is temporarily unavailable. Please try again shortly.",
	CodeBadRequest:             "The request could not be understood.",
	CodeValidation:             "Some fields are invalid. Check the form and try again.",
	CodeInternal:               "Something went wrong on our side.",
}

// Message returns the user-facing message for code.
func Message(code Code) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[CodeInternal]
}
