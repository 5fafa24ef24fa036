package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/httputil"
	request "propverify/pkg/platform/middleware/request"
	"propverify/pkg/requestcontext"
)

// SessionHeader carries an opaque session id for callers without a bearer token.
const SessionHeader = "X-Session-ID"

// Credentials are the raw caller credentials pulled off a request.
type Credentials struct {
	BearerToken string
	SessionID   string
}

// Identity is the resolved caller.
type Identity struct {
	UserID   id.UserID
	Reviewer bool
	// Source names the provider that resolved the caller (jwt, session, anonymous).
	Source string
}

// Resolver maps credentials to an identity. Implementations return an
// unauthenticated domain error when the credentials are present but invalid.
type Resolver interface {
	Resolve(ctx context.Context, creds Credentials) (*Identity, error)
}

type contextKeyReviewer struct{}

// IsReviewer reports whether the caller carries the reviewer claim.
func IsReviewer(ctx context.Context) bool {
	reviewer, _ := ctx.Value(contextKeyReviewer{}).(bool)
	return reviewer
}

// WithIdentity injects a resolved identity into ctx. Useful in handler tests.
func WithIdentity(ctx context.Context, ident *Identity) context.Context {
	ctx = requestcontext.WithUserID(ctx, ident.UserID)
	return context.WithValue(ctx, contextKeyReviewer{}, ident.Reviewer)
}

// CredentialsFromRequest reads the bearer token from the Authorization header
// (or access_token query parameter for WebSocket upgrades) and the session id.
func CredentialsFromRequest(r *http.Request) Credentials {
	var creds Credentials
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		creds.BearerToken = strings.TrimSpace(after)
	} else if token := r.URL.Query().Get("access_token"); token != "" {
		creds.BearerToken = token
	}
	creds.SessionID = r.Header.Get(SessionHeader)
	if creds.SessionID == "" {
		if cookie, err := r.Cookie("session_id"); err == nil {
			creds.SessionID = cookie.Value
		}
	}
	return creds
}

// RequireIdentity resolves the caller and rejects the request when no
// provider can identify it.
func RequireIdentity(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ident, err := resolver.Resolve(ctx, CredentialsFromRequest(r))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access",
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			if ident == nil || ident.UserID.IsNil() {
				logger.WarnContext(ctx, "unauthorized access - no identity",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing credentials"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, ident)))
		})
	}
}
