package testutil

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "propverify/pkg/domain"
	"propverify/pkg/platform/middleware/auth"
)

// WithIdentity injects a caller the way auth.RequireIdentity would.
func WithIdentity(req *http.Request, userID string, reviewer bool) *http.Request {
	ctx := auth.WithIdentity(req.Context(), &auth.Identity{
		UserID:   id.UserID(userID),
		Reviewer: reviewer,
		Source:   "test",
	})
	return req.WithContext(ctx)
}

// WithURLParam sets a chi route parameter so handlers can be called without
// a router.
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}
