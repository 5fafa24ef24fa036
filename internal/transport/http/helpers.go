package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/httputil"
	"propverify/pkg/requestcontext"
)

const maxJSONBody = 1 << 20

func roleParam(r *http.Request) id.Role {
	return id.Role(chi.URLParam(r, "role"))
}

func parseRole(r *http.Request) (id.Role, error) {
	return id.ParseRole(chi.URLParam(r, "role"))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// fail writes err and logs it at a level that matches who is at fault.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	err = dErrors.Classify(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"user_id", requestcontext.UserID(ctx).String(),
		"code", string(dErrors.CodeOf(err)),
		"error", err,
	}
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}
