package models

import (
	"maps"
	"slices"
	"time"

	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
)

// Status is the lifecycle state of a verification case and of the status
// record derived from it.
type Status string

const (
	StatusNotSubmitted Status = "not_submitted"
	StatusPending      Status = "pending"
	StatusVerified     Status = "verified"
	StatusRejected     Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusNotSubmitted, StatusPending, StatusVerified, StatusRejected:
		return true
	default:
		return false
	}
}

func (s Status) String() string { return string(s) }

// Outcome is a reviewer's verdict on a case.
type Outcome string

const (
	OutcomeVerified Outcome = "verified"
	OutcomeRejected Outcome = "rejected"
)

func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomeVerified, OutcomeRejected:
		return o, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "outcome must be verified or rejected")
	}
}

// Status returns the case status an outcome moves to.
func (o Outcome) Status() Status {
	if o == OutcomeVerified {
		return StatusVerified
	}
	return StatusRejected
}

// AutoReviewer identifies decisions made by a policy rather than a person.
const AutoReviewer = "auto-system"

// Case is one verification submission for a (user, role) pair.
//
// Invariants:
//   - at most one case per (UserID, Role) has SupersededAt == nil
//   - RejectionReason is set only when Status is rejected
//   - Version increases by one on every write after creation
type Case struct {
	ID              id.CaseID       `json:"id"`
	UserID          id.UserID       `json:"user_id"`
	Role            id.Role         `json:"role"`
	Status          Status          `json:"status"`
	Applicant       Applicant       `json:"applicant"`
	DocumentIDs     []id.DocumentID `json:"document_ids"`
	SubmittedAt     time.Time       `json:"submitted_at"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	ReviewedBy      string          `json:"reviewed_by,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Version         int             `json:"version"`
	SupersededAt    *time.Time      `json:"superseded_at,omitempty"`
}

// NewCase builds a pending case for a fresh submission.
func NewCase(user id.UserID, role id.Role, applicant Applicant, docs []id.DocumentID, now time.Time) *Case {
	return &Case{
		ID:          id.NewCaseID(),
		UserID:      user,
		Role:        role,
		Status:      StatusPending,
		Applicant:   applicant.Clone(),
		DocumentIDs: slices.Clone(docs),
		SubmittedAt: now,
		Version:     1,
	}
}

func (c *Case) IsActive() bool {
	return c.SupersededAt == nil
}

// CanDecide reports whether outcome may be applied to the case. A verified
// case only accepts a repeated verified outcome, which is a no-op.
func (c *Case) CanDecide(outcome Outcome, notes string) error {
	if !c.IsActive() {
		return dErrors.New(dErrors.CodeInvalidStateTransition, "case was superseded by a newer submission")
	}
	switch c.Status {
	case StatusPending, StatusRejected:
	case StatusVerified:
		if outcome != OutcomeVerified {
			return dErrors.New(dErrors.CodeInvalidStateTransition, "a verified case cannot be rejected without a new submission")
		}
	default:
		return dErrors.New(dErrors.CodeInvalidStateTransition, "case has not been submitted")
	}
	if outcome == OutcomeRejected && notes == "" {
		return dErrors.New(dErrors.CodeMissingReason, "rejection requires a reason")
	}
	return nil
}

// ApplyDecision records the verdict. Call CanDecide first.
func (c *Case) ApplyDecision(outcome Outcome, reviewer, notes string, now time.Time) {
	t := now
	c.Status = outcome.Status()
	c.ReviewedAt = &t
	c.ReviewedBy = reviewer
	c.Notes = notes
	if outcome == OutcomeRejected {
		reason := notes
		c.RejectionReason = &reason
	} else {
		c.RejectionReason = nil
	}
	c.Version++
}

// Supersede retires the case in favour of a newer submission.
func (c *Case) Supersede(now time.Time) {
	if c.SupersededAt != nil {
		return
	}
	t := now
	c.SupersededAt = &t
	c.Version++
}

// Clone returns a deep copy.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	out.Applicant = c.Applicant.Clone()
	out.DocumentIDs = slices.Clone(c.DocumentIDs)
	if c.ReviewedAt != nil {
		t := *c.ReviewedAt
		out.ReviewedAt = &t
	}
	if c.RejectionReason != nil {
		r := *c.RejectionReason
		out.RejectionReason = &r
	}
	if c.SupersededAt != nil {
		t := *c.SupersededAt
		out.SupersededAt = &t
	}
	return &out
}

// StatusRecord is the read-optimised view of a user's latest case status.
// It is rewritten on every case status change and is what subscribers see.
type StatusRecord struct {
	UserID      id.UserID  `json:"user_id"`
	Role        id.Role    `json:"role"`
	Status      Status     `json:"status"`
	CaseID      *id.CaseID `json:"case_id,omitempty"`
	LastUpdated time.Time  `json:"last_updated"`
}

// DefaultStatus is the record reported when nothing has been submitted or
// the store cannot be read.
func DefaultStatus(user id.UserID, role id.Role, now time.Time) StatusRecord {
	return StatusRecord{UserID: user, Role: role, Status: StatusNotSubmitted, LastUpdated: now}
}

// RecordFor derives the status record of a case.
func RecordFor(c *Case, now time.Time) StatusRecord {
	caseID := c.ID
	return StatusRecord{
		UserID:      c.UserID,
		Role:        c.Role,
		Status:      c.Status,
		CaseID:      &caseID,
		LastUpdated: now,
	}
}

// Fields is applicant-supplied metadata beyond the name. Its shape varies
// by role, e.g. license_number for agents or company_name for developers.
type Fields map[string]string

// Applicant is the metadata submitted with a case.
type Applicant struct {
	FullName string `json:"full_name"`
	Fields   Fields `json:"fields,omitempty"`
}

func (a Applicant) Clone() Applicant {
	return Applicant{FullName: a.FullName, Fields: maps.Clone(a.Fields)}
}
