package service

import (
	"context"
	"io"

	"propverify/internal/catalog"
	"propverify/internal/documents/models"
	id "propverify/pkg/domain"
	audit "propverify/pkg/platform/audit"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks ObjectStore,MetadataStore,AuditPublisher

// ObjectStore holds file bytes. Put streams body to path and returns a URL
// the record can reference. Implementations return sentinel.ErrNotFound from
// Get and Delete when the object is gone.
type ObjectStore interface {
	Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

// MetadataStore persists document records.
//
// Insert writes doc and removes every record listed in supersedes as one
// atomic step, so a slot never holds two live records.
type MetadataStore interface {
	Insert(ctx context.Context, doc *models.Document, supersedes []id.DocumentID) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	FindBySlot(ctx context.Context, owner id.UserID, category catalog.CategoryKey, docType string) ([]*models.Document, error)
	ListByOwner(ctx context.Context, owner id.UserID) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, docID id.DocumentID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
