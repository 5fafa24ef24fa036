// Package httputil writes JSON responses and maps domain error codes to HTTP.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "propverify/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and `{"error","error_description"}` body.
// Uncoded errors are classified first. Internal errors never expose details.
func WriteError(w http.ResponseWriter, err error) {
	err = dErrors.Classify(err)
	code := dErrors.CodeOf(err)

	resp := errorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = description(err, code)
	}
	WriteJSON(w, StatusFor(code), resp)
}

// description prefers the message of a bare coded error. Wrapped errors carry
// operation names meant for logs, so callers get the generic code message.
func description(err error, code dErrors.Code) string {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Err == nil && de.Message != "" {
		return de.Message
	}
	return dErrors.Message(code)
}

// StatusFor returns the HTTP status for a code.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidFile, dErrors.CodeNoDocumentsProvided, dErrors.CodeInvalidApplicantName,
		dErrors.CodeMissingReason, dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidStateTransition, dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
