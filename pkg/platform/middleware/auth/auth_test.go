package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/requestcontext"
)

type stubResolver struct {
	got   Credentials
	ident *Identity
	err   error
}

func (s *stubResolver) Resolve(_ context.Context, creds Credentials) (*Identity, error) {
	s.got = creds
	return s.ident, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireIdentity(t *testing.T) {
	t.Run("injects resolved identity", func(t *testing.T) {
		resolver := &stubResolver{ident: &Identity{UserID: "user-1", Reviewer: true, Source: "jwt"}}
		var seenUser id.UserID
		var seenReviewer bool
		h := RequireIdentity(resolver, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenUser = requestcontext.UserID(r.Context())
			seenReviewer = IsReviewer(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		req.Header.Set(SessionHeader, "sess-1")
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, "abc", resolver.got.BearerToken)
		assert.Equal(t, "sess-1", resolver.got.SessionID)
		assert.Equal(t, id.UserID("user-1"), seenUser)
		assert.True(t, seenReviewer)
	})

	t.Run("invalid credentials return 401", func(t *testing.T) {
		resolver := &stubResolver{err: dErrors.New(dErrors.CodeUnauthorized, "invalid token")}
		called := false
		h := RequireIdentity(resolver, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("nil identity returns 401", func(t *testing.T) {
		h := RequireIdentity(&stubResolver{}, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCredentialsFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/status/stream?access_token=tok", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "cookie-sess"})
	creds := CredentialsFromRequest(req)
	require.Equal(t, "tok", creds.BearerToken)
	assert.Equal(t, "cookie-sess", creds.SessionID)
}
