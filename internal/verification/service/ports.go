package service

import (
	"context"

	docmodels "propverify/internal/documents/models"
	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
	audit "propverify/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks CaseStore,StatusStore,Documents,StatusPublisher,AuditPublisher

// CaseStore persists verification cases and the status record that mirrors
// them. Cases are never deleted.
//
// Create inserts c, writes the superseded state of previous when it is
// non-nil and upserts status, all in one atomic step. Update writes c and
// status together only while the stored version equals expectedVersion and
// returns sentinel.ErrConflict otherwise.
type CaseStore interface {
	Create(ctx context.Context, c *models.Case, previous *models.Case, status models.StatusRecord) error
	Update(ctx context.Context, c *models.Case, expectedVersion int, status models.StatusRecord) error
	FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	FindActive(ctx context.Context, user id.UserID, role id.Role) (*models.Case, error)
	ListByUser(ctx context.Context, user id.UserID, role id.Role) ([]*models.Case, error)
}

// StatusStore reads the latest status record per (user, role).
type StatusStore interface {
	GetStatus(ctx context.Context, user id.UserID, role id.Role) (models.StatusRecord, error)
}

// Documents is the slice of the document service a case needs.
type Documents interface {
	Owned(ctx context.Context, owner id.UserID, ids []id.DocumentID) ([]*docmodels.Document, error)
	MarkVerified(ctx context.Context, ids []id.DocumentID) error
}

// StatusPublisher pushes status records to live subscribers.
type StatusPublisher interface {
	Publish(ctx context.Context, rec models.StatusRecord) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
