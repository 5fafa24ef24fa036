// Package access gates restricted marketplace actions on verification status.
package access

import (
	"context"
	"log/slog"
	"net/http"

	"propverify/internal/platform/metrics"
	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	audit "propverify/pkg/platform/audit"
	"propverify/pkg/platform/httputil"
	request "propverify/pkg/platform/middleware/request"
	"propverify/pkg/requestcontext"
)

// StatusReader returns the latest status record for (user, role). A user
// who never submitted gets a not_submitted record, not an error.
type StatusReader interface {
	Status(ctx context.Context, user id.UserID, role id.Role) (models.StatusRecord, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Gate answers whether a user may perform restricted actions. The status is
// read on every call and never cached, so a decision takes effect on the
// next check.
type Gate struct {
	statuses StatusReader
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(g *Gate) { g.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gate) { g.metrics = m }
}

func New(statuses StatusReader, opts ...Option) *Gate {
	g := &Gate{statuses: statuses, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanPerformRestrictedAction is true iff the latest status is verified.
func (g *Gate) CanPerformRestrictedAction(ctx context.Context, user id.UserID, role id.Role) (bool, error) {
	if user.IsNil() {
		return false, dErrors.New(dErrors.CodeUnauthorized, "user is required")
	}
	rec, err := g.statuses.Status(ctx, user, role)
	if err != nil {
		return false, dErrors.Classify(err)
	}
	allowed := rec.Status == models.StatusVerified
	if g.metrics != nil {
		g.metrics.IncAccessCheck(allowed)
	}
	return allowed, nil
}

// Require fails with a permission error unless the user is verified for role.
func (g *Gate) Require(ctx context.Context, user id.UserID, role id.Role) error {
	allowed, err := g.CanPerformRestrictedAction(ctx, user, role)
	if err != nil {
		return err
	}
	if allowed {
		return nil
	}

	g.logger.InfoContext(ctx, "restricted action denied",
		"user_id", user.String(),
		"role", role.String(),
		"request_id", request.GetRequestID(ctx),
	)
	if g.auditor != nil {
		event := audit.Event{
			UserID:   user,
			Role:     role.String(),
			Action:   string(audit.EventRestrictedActionDenied),
			Decision: "denied",
			Reason:   "verification not complete",
		}
		if err := g.auditor.Emit(ctx, event); err != nil {
			g.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
		}
	}
	return dErrors.New(dErrors.CodeForbidden, "verification required for this action")
}

// RoleFunc picks the role a request acts as.
type RoleFunc func(r *http.Request) id.Role

// Middleware guards restricted routes. It must run after the identity
// middleware has put the caller into the request context.
func (g *Gate) Middleware(roleOf RoleFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := roleOf(r)
			if !role.IsValid() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown role: "+string(role)))
				return
			}
			if err := g.Require(ctx, requestcontext.UserID(ctx), role); err != nil {
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
