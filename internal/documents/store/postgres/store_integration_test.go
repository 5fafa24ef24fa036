//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"propverify/internal/catalog"
	"propverify/internal/documents/models"
	id "propverify/pkg/domain"
	"propverify/pkg/platform/sentinel"
	"propverify/pkg/testutil/containers"
)

type StoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = New(s.pg.DB)
}

func (s *StoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background(), "documents"))
}

func (s *StoreSuite) newDoc(owner id.UserID, docType string) *models.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Document{
		ID:          id.NewDocumentID(),
		OwnerID:     owner,
		Role:        id.RoleAgent,
		Category:    catalog.CategoryPersonal,
		DocType:     docType,
		FileName:    "id.pdf",
		StoragePath: "verification/agent/" + owner.String() + "/personal/" + docType + "/id.pdf",
		URL:         "mem://id.pdf",
		SizeBytes:   1024,
		MimeType:    "application/pdf",
		Status:      models.StatusPending,
		Feedback:    []string{},
		UploadedAt:  now,
		UpdatedAt:   now,
	}
}

func (s *StoreSuite) TestInsertSupersedesInOneTransaction() {
	ctx := context.Background()
	first := s.newDoc("agent-1", "government_id")
	s.Require().NoError(s.store.Insert(ctx, first, nil))

	second := s.newDoc("agent-1", "government_id")
	err := s.store.Insert(ctx, second, nil)
	s.ErrorIs(err, sentinel.ErrConflict)

	s.Require().NoError(s.store.Insert(ctx, second, []id.DocumentID{first.ID}))

	inSlot, err := s.store.FindBySlot(ctx, "agent-1", catalog.CategoryPersonal, "government_id")
	s.Require().NoError(err)
	s.Require().Len(inSlot, 1)
	s.Equal(second.ID, inSlot[0].ID)

	_, err = s.store.FindByID(ctx, first.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *StoreSuite) TestUpdateRoundTripsReviewFields() {
	ctx := context.Background()
	doc := s.newDoc("agent-1", "profile_photo")
	s.Require().NoError(s.store.Insert(ctx, doc, nil))

	doc.ApplyReview(models.StatusVerified, 90, []string{"clear photo"}, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Update(ctx, doc))

	got, err := s.store.FindByID(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, got.Status)
	s.Equal(90, got.Score)
	s.Equal([]string{"clear photo"}, got.Feedback)
	s.True(got.Verified)
	s.Require().NotNil(got.VerifiedAt)
	s.WithinDuration(*doc.VerifiedAt, *got.VerifiedAt, time.Millisecond)
}

func (s *StoreSuite) TestDeleteAndListByOwner() {
	ctx := context.Background()
	a := s.newDoc("agent-1", "government_id")
	b := s.newDoc("agent-1", "profile_photo")
	other := s.newDoc("agent-2", "government_id")
	for _, d := range []*models.Document{a, b, other} {
		s.Require().NoError(s.store.Insert(ctx, d, nil))
	}

	docs, err := s.store.ListByOwner(ctx, "agent-1")
	s.Require().NoError(err)
	s.Len(docs, 2)

	s.Require().NoError(s.store.Delete(ctx, a.ID))
	s.ErrorIs(s.store.Delete(ctx, a.ID), sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(ctx, a), sentinel.ErrNotFound)
}
