package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/sentinel"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "expected error_description to be omitted for internal errors")
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "bad_request", body["error"])
		assert.Equal(t, "invalid input", body["error_description"])
	})

	t.Run("wrapped infra error uses the generic message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(errors.New("dial tcp: refused"), dErrors.CodeUnavailable, "list documents"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decode(t, w)
		assert.Equal(t, "store_unavailable", body["error"])
		assert.Equal(t, dErrors.Message(dErrors.CodeUnavailable), body["error_description"])
	})

	t.Run("uncoded errors are classified", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, sentinel.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decode(t, w)["error"])
	})
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(dErrors.CodeConflict))
	assert.Equal(t, http.StatusConflict, StatusFor(dErrors.CodeInvalidStateTransition))
	assert.Equal(t, http.StatusForbidden, StatusFor(dErrors.CodeForbidden))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(dErrors.CodeUnauthorized))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(dErrors.CodeTimeout))
	assert.Equal(t, http.StatusBadRequest, StatusFor(dErrors.CodeMissingReason))
}
