package httptransport

import (
	"net/http"

	"propverify/internal/catalog"
	"propverify/internal/progress"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/httputil"
	"propverify/pkg/requestcontext"
)

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(r)
	if err != nil {
		h.fail(w, r, "invalid catalog request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, catalog.For(role))
}

type progressResponse struct {
	Role       id.Role                  `json:"role"`
	Overall    progress.Stats           `json:"overall"`
	Categories []progress.CategoryStats `json:"categories"`
}

type categoryProgressResponse struct {
	Role     id.Role             `json:"role"`
	Category catalog.CategoryKey `json:"category"`
	Stats    progress.Stats      `json:"stats"`
}

// handleProgress reports checklist completion for the caller. With a
// category query parameter only that category is returned.
func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := parseRole(r)
	if err != nil {
		h.fail(w, r, "invalid progress request", err)
		return
	}

	var category *catalog.CategoryKey
	if raw := r.URL.Query().Get("category"); raw != "" {
		key, ok := catalog.ParseCategoryKey(raw)
		if !ok {
			h.fail(w, r, "invalid progress request", dErrors.New(dErrors.CodeBadRequest, "unknown category: "+raw))
			return
		}
		category = &key
	}

	all, err := h.documents.ListByOwner(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(w, r, "failed to list documents for progress", err)
		return
	}
	docs := all[:0:0]
	for _, doc := range all {
		if doc.Role == role {
			docs = append(docs, doc)
		}
	}
	cat := catalog.For(role)

	if category != nil {
		httputil.WriteJSON(w, http.StatusOK, categoryProgressResponse{
			Role:     role,
			Category: *category,
			Stats:    progress.Compute(docs, cat, category),
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, progressResponse{
		Role:       role,
		Overall:    progress.Compute(docs, cat, nil),
		Categories: progress.ByCategory(docs, cat),
	})
}
