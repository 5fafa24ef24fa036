package httptransport

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"propverify/internal/catalog"
	docmodels "propverify/internal/documents/models"
	docservice "propverify/internal/documents/service"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/httputil"
	"propverify/pkg/platform/middleware/auth"
	"propverify/pkg/requestcontext"
)

// multipartOverhead covers form fields and part headers around the file.
const multipartOverhead = 1 << 20

// readFile pulls the "file" part of a multipart upload into memory.
func (h *Handler) readFile(w http.ResponseWriter, r *http.Request) (docmodels.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return docmodels.File{}, dErrors.New(dErrors.CodeInvalidFile, "file exceeds the upload limit")
		}
		return docmodels.File{}, dErrors.New(dErrors.CodeBadRequest, "expected a multipart form")
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		return docmodels.File{}, dErrors.New(dErrors.CodeInvalidFile, "file part is required")
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, h.maxUploadBytes+1))
	if err != nil {
		return docmodels.File{}, dErrors.New(dErrors.CodeBadRequest, "failed to read file")
	}
	return docmodels.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func parseDocumentID(r *http.Request) (id.DocumentID, error) {
	return id.ParseDocumentID(chi.URLParam(r, "documentID"))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	file, err := h.readFile(w, r)
	if err != nil {
		h.fail(w, r, "invalid upload", err)
		return
	}
	role, err := id.ParseRole(r.FormValue("role"))
	if err != nil {
		h.fail(w, r, "invalid upload", err)
		return
	}
	category, ok := catalog.ParseCategoryKey(r.FormValue("category"))
	if !ok {
		h.fail(w, r, "invalid upload", dErrors.New(dErrors.CodeBadRequest, "unknown category"))
		return
	}

	doc, err := h.documents.Upload(ctx, docservice.UploadRequest{
		Owner:    requestcontext.UserID(ctx),
		Role:     role,
		Category: category,
		DocType:  r.FormValue("doc_type"),
		File:     file,
	})
	if err != nil {
		h.fail(w, r, "upload failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := parseDocumentID(r)
	if err != nil {
		h.fail(w, r, "invalid replace request", err)
		return
	}
	file, err := h.readFile(w, r)
	if err != nil {
		h.fail(w, r, "invalid replace request", err)
		return
	}
	doc, err := h.documents.Replace(ctx, docID, docservice.ReplaceRequest{
		Caller: requestcontext.UserID(ctx),
		File:   file,
	})
	if err != nil {
		h.fail(w, r, "replace failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

type documentListResponse struct {
	Documents []*docmodels.Document `json:"documents"`
}

// handleListDocuments lists the caller's documents, optionally for one role.
func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.documents.ListByOwner(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.fail(w, r, "failed to list documents", err)
		return
	}
	if raw := r.URL.Query().Get("role"); raw != "" {
		role, err := id.ParseRole(raw)
		if err != nil {
			h.fail(w, r, "invalid list request", err)
			return
		}
		filtered := docs[:0:0]
		for _, doc := range docs {
			if doc.Role == role {
				filtered = append(filtered, doc)
			}
		}
		docs = filtered
	}
	if docs == nil {
		docs = []*docmodels.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, documentListResponse{Documents: docs})
}

// readable loads a document the caller owns. Reviewers may read any.
func (h *Handler) readable(r *http.Request) (*docmodels.Document, error) {
	ctx := r.Context()
	docID, err := parseDocumentID(r)
	if err != nil {
		return nil, err
	}
	doc, err := h.documents.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !doc.IsOwnedBy(requestcontext.UserID(ctx)) && !auth.IsReviewer(ctx) {
		return nil, dErrors.New(dErrors.CodeForbidden, "document belongs to another user")
	}
	return doc, nil
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.readable(r)
	if err != nil {
		h.fail(w, r, "failed to get document", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	doc, err := h.readable(r)
	if err != nil {
		h.fail(w, r, "failed to get document", err)
		return
	}
	_, data, err := h.documents.Content(r.Context(), doc.ID)
	if err != nil {
		h.fail(w, r, "failed to read document content", err)
		return
	}
	w.Header().Set("Content-Type", doc.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := parseDocumentID(r)
	if err != nil {
		h.fail(w, r, "invalid delete request", err)
		return
	}
	if err := h.documents.Delete(ctx, requestcontext.UserID(ctx), docID); err != nil {
		h.fail(w, r, "delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reviewRequest struct {
	Status   docmodels.Status `json:"status"`
	Score    int              `json:"score"`
	Feedback []string         `json:"feedback"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docID, err := parseDocumentID(r)
	if err != nil {
		h.fail(w, r, "invalid review request", err)
		return
	}
	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "invalid review request", err)
		return
	}
	doc, err := h.documents.Review(ctx, docID, docservice.ReviewRequest{
		Reviewer: requestcontext.UserID(ctx),
		Status:   req.Status,
		Score:    req.Score,
		Feedback: req.Feedback,
	})
	if err != nil {
		h.fail(w, r, "review failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}
