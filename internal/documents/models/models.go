package models

import (
	"slices"
	"time"

	"propverify/internal/catalog"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
)

// Status is the review state of one uploaded document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusVerified   Status = "verified"
	StatusRejected   Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusVerified, StatusRejected:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a reviewer may move a document from s to next.
// Verified and rejected are terminal for per-document review; a rejected slot
// is refilled by uploading a new file.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusVerified || next == StatusRejected
	case StatusProcessing:
		return next == StatusVerified || next == StatusRejected
	default:
		return false
	}
}

// MaxScore is the upper bound of a reviewer score. Zero means unscored.
const MaxScore = 100

// Document is one uploaded file filling a catalog slot.
//
// Invariants:
//   - (OwnerID, Category, DocType) names a slot in the owner's role catalog
//   - at most one record exists per slot; uploads supersede the previous one
//   - Score is within [0, MaxScore]
//   - Verified implies VerifiedAt is set
type Document struct {
	ID          id.DocumentID       `json:"id"`
	OwnerID     id.UserID           `json:"owner_id"`
	Role        id.Role             `json:"role"`
	Category    catalog.CategoryKey `json:"category"`
	DocType     string              `json:"doc_type"`
	FileName    string              `json:"file_name"`
	StoragePath string              `json:"storage_path"`
	URL         string              `json:"url"`
	SizeBytes   int64               `json:"size_bytes"`
	MimeType    string              `json:"mime_type"`
	Status      Status              `json:"status"`
	Score       int                 `json:"score"`
	Feedback    []string            `json:"feedback"`
	Verified    bool                `json:"verified"`
	VerifiedAt  *time.Time          `json:"verified_at,omitempty"`
	UploadedAt  time.Time           `json:"uploaded_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Slot returns the catalog slot the document fills.
func (d *Document) Slot() catalog.Slot {
	return catalog.Slot{Category: d.Category, DocType: d.DocType}
}

func (d *Document) IsOwnedBy(user id.UserID) bool {
	return d.OwnerID == user
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Feedback = slices.Clone(d.Feedback)
	if d.VerifiedAt != nil {
		v := *d.VerifiedAt
		out.VerifiedAt = &v
	}
	return &out
}

// CanReview validates a reviewer update before it is applied.
func (d *Document) CanReview(next Status, score int) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown document status: "+string(next))
	}
	if score < 0 || score > MaxScore {
		return dErrors.New(dErrors.CodeValidation, "score must be between 0 and 100")
	}
	if next == d.Status {
		return nil
	}
	if !d.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidStateTransition,
			"document cannot move from "+string(d.Status)+" to "+string(next))
	}
	return nil
}

// ApplyReview records a reviewer update. Feedback entries are appended in order.
// Call CanReview first.
func (d *Document) ApplyReview(next Status, score int, feedback []string, now time.Time) {
	if next == StatusVerified {
		d.ApplyVerification(now)
	} else {
		d.Status = next
	}
	d.Score = score
	for _, f := range feedback {
		if f != "" {
			d.Feedback = append(d.Feedback, f)
		}
	}
	d.UpdatedAt = now
}

// ApplyVerification marks the document verified. Repeated calls keep the
// original VerifiedAt, so re-applying a case decision is a no-op.
func (d *Document) ApplyVerification(now time.Time) {
	if d.Verified && d.Status == StatusVerified && d.VerifiedAt != nil {
		return
	}
	d.Status = StatusVerified
	d.Verified = true
	if d.VerifiedAt == nil {
		t := now
		d.VerifiedAt = &t
	}
	d.UpdatedAt = now
}
