package admin

import (
	"log/slog"
	"net/http"

	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/httputil"
	"propverify/pkg/platform/middleware/auth"
	request "propverify/pkg/platform/middleware/request"
	"propverify/pkg/requestcontext"
)

// RequireReviewer lets through only callers whose identity carries the
// reviewer claim. It must run after auth.RequireIdentity.
func RequireReviewer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !auth.IsReviewer(ctx) {
				logger.WarnContext(ctx, "reviewer claim missing",
					"user_id", requestcontext.UserID(ctx),
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "reviewer role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
