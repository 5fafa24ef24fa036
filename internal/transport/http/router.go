// Package httptransport exposes the verification service over HTTP. Handlers
// decode requests, call a service and encode the result; rules live in the
// services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"propverify/pkg/platform/httputil"
	"propverify/pkg/platform/middleware/admin"
	"propverify/pkg/platform/middleware/auth"
	request "propverify/pkg/platform/middleware/request"
	"propverify/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 2 * time.Minute

// Handler serves every /v1 route.
type Handler struct {
	documents    DocumentService
	verification VerificationService
	access       AccessChecker
	statuses     StatusSubscriber
	logger       *slog.Logger

	maxUploadBytes int64
	originPatterns []string
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMaxUploadBytes bounds the multipart body; the document service still
// enforces the file limit itself.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithOriginPatterns lists browser origins allowed to open status streams.
func WithOriginPatterns(patterns []string) Option {
	return func(h *Handler) { h.originPatterns = patterns }
}

func NewHandler(documents DocumentService, verification VerificationService, access AccessChecker, statuses StatusSubscriber, opts ...Option) *Handler {
	h := &Handler{
		documents:      documents,
		verification:   verification,
		access:         access,
		statuses:       statuses,
		logger:         slog.Default(),
		maxUploadBytes: 10 * 1024 * 1024,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RouterConfig carries what NewRouter needs beyond the handler.
type RouterConfig struct {
	Resolver auth.Resolver
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
	// Ready reports readiness for /healthz; nil means always ready.
	Ready func() error
	// Restricted mounts marketplace routes that require a verified caller
	// under /v1/restricted/{role}.
	Restricted func(r chi.Router)
}

// NewRouter mounts health, metrics and the authenticated /v1 API.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.Recover(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(chimw.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.RequireIdentity(cfg.Resolver, logger))

		// The stream is long-lived, so only the other routes get a deadline.
		r.Get("/verification/{role}/stream", h.handleStatusStream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(defaultRequestTimeout))

			r.Get("/catalog/{role}", h.handleCatalog)

			r.Post("/documents", h.handleUpload)
			r.Get("/documents", h.handleListDocuments)
			r.Get("/documents/{documentID}", h.handleGetDocument)
			r.Get("/documents/{documentID}/file", h.handleDownload)
			r.Put("/documents/{documentID}", h.handleReplace)
			r.Delete("/documents/{documentID}", h.handleDeleteDocument)

			r.Get("/progress/{role}", h.handleProgress)

			r.Post("/verification/{role}/submit", h.handleSubmit)
			r.Get("/verification/{role}/status", h.handleStatus)
			r.Get("/verification/{role}/case", h.handleActiveCase)
			r.Get("/verification/{role}/history", h.handleHistory)
			r.Get("/verification/{role}/access", h.handleAccess)

			r.Route("/restricted/{role}", func(r chi.Router) {
				r.Use(h.access.Middleware(roleParam))
				r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNoContent)
				})
				if cfg.Restricted != nil {
					cfg.Restricted(r)
				}
			})

			r.Group(func(r chi.Router) {
				r.Use(admin.RequireReviewer(logger))
				r.Get("/cases/{caseID}", h.handleGetCase)
				r.Post("/cases/{caseID}/decision", h.handleDecide)
				r.Post("/documents/{documentID}/review", h.handleReview)
			})
		})
	})
	return r
}
