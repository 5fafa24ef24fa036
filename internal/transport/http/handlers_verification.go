package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"propverify/internal/verification/models"
	verification "propverify/internal/verification/service"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	"propverify/pkg/platform/httputil"
	"propverify/pkg/requestcontext"
)

type submitRequest struct {
	Applicant   models.Applicant `json:"applicant"`
	DocumentIDs []string         `json:"document_ids"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := parseRole(r)
	if err != nil {
		h.fail(w, r, "invalid submit request", err)
		return
	}
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "invalid submit request", err)
		return
	}
	docIDs := make([]id.DocumentID, 0, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		docID, err := id.ParseDocumentID(raw)
		if err != nil {
			h.fail(w, r, "invalid submit request", err)
			return
		}
		docIDs = append(docIDs, docID)
	}

	c, err := h.verification.Submit(ctx, verification.SubmitRequest{
		UserID:      requestcontext.UserID(ctx),
		Role:        role,
		Applicant:   req.Applicant,
		DocumentIDs: docIDs,
	})
	if err != nil {
		h.fail(w, r, "submit failed", err)
		return
	}
	h.logger.InfoContext(ctx, "verification submitted",
		"case_id", c.ID.String(),
		"role", role.String(),
		"status", c.Status.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := parseRole(r)
	if err != nil {
		h.fail(w, r, "invalid status request", err)
		return
	}
	rec, err := h.verification.Status(ctx, requestcontext.UserID(ctx), role)
	if err != nil {
		h.fail(w, r, "failed to read status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleActiveCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := parseRole(r)
	if err != nil {
		h.fail(w, r, "invalid case request", err)
		return
	}
	c, err := h.verification.ActiveCase(ctx, requestcontext.UserID(ctx), role)
	if err != nil {
		h.fail(w, r, "failed to read active case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

type historyResponse struct {
	Cases []*models.Case `json:"cases"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := parseRole(r)
	if err != nil {
		h.fail(w, r, "invalid history request", err)
		return
	}
	cases, err := h.verification.History(ctx, requestcontext.UserID(ctx), role)
	if err != nil {
		h.fail(w, r, "failed to read history", err)
		return
	}
	if cases == nil {
		cases = []*models.Case{}
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{Cases: cases})
}

type accessResponse struct {
	Allowed bool `json:"allowed"`
}

func (h *Handler) handleAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := parseRole(r)
	if err != nil {
		h.fail(w, r, "invalid access request", err)
		return
	}
	allowed, err := h.access.CanPerformRestrictedAction(ctx, requestcontext.UserID(ctx), role)
	if err != nil {
		h.fail(w, r, "access check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, accessResponse{Allowed: allowed})
}

func parseCaseID(r *http.Request) (id.CaseID, error) {
	return id.ParseCaseID(chi.URLParam(r, "caseID"))
}

func (h *Handler) handleGetCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := parseCaseID(r)
	if err != nil {
		h.fail(w, r, "invalid case request", err)
		return
	}
	c, err := h.verification.Case(r.Context(), caseID)
	if err != nil {
		h.fail(w, r, "failed to read case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

type decisionRequest struct {
	Outcome         string `json:"outcome"`
	Notes           string `json:"notes"`
	ExpectedVersion int    `json:"expected_version"`
}

// handleDecide records a reviewer decision. A stale expected_version is
// reported as a conflict so the reviewer can reload the case.
func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := parseCaseID(r)
	if err != nil {
		h.fail(w, r, "invalid decision request", err)
		return
	}
	var req decisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "invalid decision request", err)
		return
	}
	outcome, err := models.ParseOutcome(req.Outcome)
	if err != nil {
		h.fail(w, r, "invalid decision request", err)
		return
	}
	if req.ExpectedVersion <= 0 {
		h.fail(w, r, "invalid decision request", dErrors.New(dErrors.CodeValidation, "expected_version is required"))
		return
	}

	c, err := h.verification.Decide(ctx, verification.DecideRequest{
		CaseID:          caseID,
		Outcome:         outcome,
		Reviewer:        requestcontext.UserID(ctx).String(),
		Notes:           req.Notes,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		h.fail(w, r, "decision failed", err)
		return
	}
	h.logger.InfoContext(ctx, "verification decided",
		"case_id", c.ID.String(),
		"outcome", string(outcome),
		"version", c.Version,
	)
	httputil.WriteJSON(w, http.StatusOK, c)
}
