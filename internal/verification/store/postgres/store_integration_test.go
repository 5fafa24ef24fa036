//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"propverify/internal/verification/models"
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
	s.Require().NoError(s.pg.Truncate(context.Background(), "verification_cases", "verification_status"))
}

func (s *StoreSuite) newCase(at time.Time) *models.Case {
	return models.NewCase("agent-1", id.RoleAgent,
		models.Applicant{FullName: "Maria Santos", Fields: models.Fields{"license_number": "PRC-1"}},
		[]id.DocumentID{id.NewDocumentID(), id.NewDocumentID()},
		at.UTC().Truncate(time.Microsecond))
}

func statusOf(c *models.Case) models.StatusRecord {
	return models.RecordFor(c, time.Now().UTC().Truncate(time.Microsecond))
}

func (s *StoreSuite) TestCreateAndSupersede() {
	ctx := context.Background()
	now := time.Now()

	first := s.newCase(now)
	s.Require().NoError(s.store.Create(ctx, first, nil, statusOf(first)))

	got, err := s.store.FindByID(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(first.Applicant, got.Applicant)
	s.Equal(first.DocumentIDs, got.DocumentIDs)
	s.True(got.IsActive())

	dup := s.newCase(now)
	s.ErrorIs(s.store.Create(ctx, dup, nil, statusOf(dup)), sentinel.ErrConflict)
	rec, err := s.store.GetStatus(ctx, "agent-1", id.RoleAgent)
	s.Require().NoError(err)
	s.Equal(first.ID, *rec.CaseID, "rolled back create must not move the status record")

	got.Supersede(now.Add(time.Minute))
	second := s.newCase(now.Add(time.Minute))
	s.Require().NoError(s.store.Create(ctx, second, got, statusOf(second)))

	rec, err = s.store.GetStatus(ctx, "agent-1", id.RoleAgent)
	s.Require().NoError(err)
	s.Equal(second.ID, *rec.CaseID)

	active, err := s.store.FindActive(ctx, "agent-1", id.RoleAgent)
	s.Require().NoError(err)
	s.Equal(second.ID, active.ID)

	history, err := s.store.ListByUser(ctx, "agent-1", id.RoleAgent)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(second.ID, history[0].ID)
	s.NotNil(history[1].SupersededAt)
}

func (s *StoreSuite) TestUpdateIsVersionChecked() {
	ctx := context.Background()
	c := s.newCase(time.Now())
	s.Require().NoError(s.store.Create(ctx, c, nil, statusOf(c)))

	c.ApplyDecision(models.OutcomeRejected, "reviewer-1", "license expired", time.Now().UTC().Truncate(time.Microsecond))
	s.ErrorIs(s.store.Update(ctx, c, 7, statusOf(c)), sentinel.ErrConflict)
	rec, err := s.store.GetStatus(ctx, "agent-1", id.RoleAgent)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, rec.Status)

	s.Require().NoError(s.store.Update(ctx, c, 1, statusOf(c)))
	rec, err = s.store.GetStatus(ctx, "agent-1", id.RoleAgent)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, rec.Status)

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, got.Status)
	s.Require().NotNil(got.RejectionReason)
	s.Equal("license expired", *got.RejectionReason)
	s.Equal("reviewer-1", got.ReviewedBy)

	missing := s.newCase(time.Now())
	s.ErrorIs(s.store.Update(ctx, missing, 1, statusOf(missing)), sentinel.ErrNotFound)
}

func (s *StoreSuite) TestStatusUpsert() {
	ctx := context.Background()
	_, err := s.store.GetStatus(ctx, "agent-1", id.RoleAgent)
	s.ErrorIs(err, sentinel.ErrNotFound)

	c := s.newCase(time.Now())
	rec := models.RecordFor(c, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.PutStatus(ctx, rec))

	rec.Status = models.StatusVerified
	s.Require().NoError(s.store.PutStatus(ctx, rec))

	got, err := s.store.GetStatus(ctx, "agent-1", id.RoleAgent)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, got.Status)
	s.Require().NotNil(got.CaseID)
	s.Equal(c.ID, *got.CaseID)
}
