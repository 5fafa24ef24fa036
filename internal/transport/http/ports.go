package httptransport

import (
	"context"
	"net/http"

	"propverify/internal/access"
	docmodels "propverify/internal/documents/models"
	docservice "propverify/internal/documents/service"
	"propverify/internal/verification/models"
	verification "propverify/internal/verification/service"
	id "propverify/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks DocumentService,VerificationService,AccessChecker,StatusSubscriber

// DocumentService is the document record API the handlers need.
type DocumentService interface {
	Upload(ctx context.Context, req docservice.UploadRequest) (*docmodels.Document, error)
	Replace(ctx context.Context, existing id.DocumentID, req docservice.ReplaceRequest) (*docmodels.Document, error)
	ListByOwner(ctx context.Context, owner id.UserID) ([]*docmodels.Document, error)
	Get(ctx context.Context, docID id.DocumentID) (*docmodels.Document, error)
	Content(ctx context.Context, docID id.DocumentID) (*docmodels.Document, []byte, error)
	Delete(ctx context.Context, caller id.UserID, docID id.DocumentID) error
	Review(ctx context.Context, docID id.DocumentID, req docservice.ReviewRequest) (*docmodels.Document, error)
}

// VerificationService is the case lifecycle API the handlers need.
type VerificationService interface {
	Submit(ctx context.Context, req verification.SubmitRequest) (*models.Case, error)
	Decide(ctx context.Context, req verification.DecideRequest) (*models.Case, error)
	Case(ctx context.Context, caseID id.CaseID) (*models.Case, error)
	ActiveCase(ctx context.Context, user id.UserID, role id.Role) (*models.Case, error)
	History(ctx context.Context, user id.UserID, role id.Role) ([]*models.Case, error)
	Status(ctx context.Context, user id.UserID, role id.Role) (models.StatusRecord, error)
}

// AccessChecker answers restricted-action checks and guards restricted routes.
type AccessChecker interface {
	CanPerformRestrictedAction(ctx context.Context, user id.UserID, role id.Role) (bool, error)
	Middleware(roleOf access.RoleFunc) func(http.Handler) http.Handler
}

type StatusSubscriber interface {
	Subscribe(ctx context.Context, user id.UserID, role id.Role, onUpdate func(models.StatusRecord)) (func(), error)
}
