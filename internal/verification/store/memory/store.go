// Package memory keeps verification cases and status records in process
// memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
	"propverify/pkg/platform/sentinel"
)

type statusKey struct {
	user id.UserID
	role id.Role
}

type InMemoryStore struct {
	mu       sync.RWMutex
	cases    map[id.CaseID]*models.Case
	statuses map[statusKey]models.StatusRecord
}

func New() *InMemoryStore {
	return &InMemoryStore{
		cases:    make(map[id.CaseID]*models.Case),
		statuses: make(map[statusKey]models.StatusRecord),
	}
}

// Create inserts c, stores previous in its superseded form and replaces the
// status record under one lock. It fails with sentinel.ErrConflict if another
// active case exists for the pair, leaving everything unchanged.
func (s *InMemoryStore) Create(_ context.Context, c *models.Case, previous *models.Case, status models.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[c.ID]; exists {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrConflict)
	}
	if previous != nil {
		stored, ok := s.cases[previous.ID]
		if !ok {
			return fmt.Errorf("previous case %s: %w", previous.ID, sentinel.ErrNotFound)
		}
		if stored.Version+1 != previous.Version {
			return fmt.Errorf("previous case %s changed: %w", previous.ID, sentinel.ErrConflict)
		}
	}
	for _, other := range s.cases {
		if other.UserID == c.UserID && other.Role == c.Role && other.IsActive() &&
			(previous == nil || other.ID != previous.ID) {
			return fmt.Errorf("active case already exists for %s/%s: %w", c.UserID, c.Role, sentinel.ErrConflict)
		}
	}

	if previous != nil {
		s.cases[previous.ID] = previous.Clone()
	}
	s.cases[c.ID] = c.Clone()
	s.statuses[statusKey{status.UserID, status.Role}] = status
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, c *models.Case, expectedVersion int, status models.StatusRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.cases[c.ID]
	if !ok {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("case %s at version %d, expected %d: %w", c.ID, stored.Version, expectedVersion, sentinel.ErrConflict)
	}
	s.cases[c.ID] = c.Clone()
	s.statuses[statusKey{status.UserID, status.Role}] = status
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", caseID, sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *InMemoryStore) FindActive(_ context.Context, user id.UserID, role id.Role) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cases {
		if c.UserID == user && c.Role == role && c.IsActive() {
			return c.Clone(), nil
		}
	}
	return nil, fmt.Errorf("active case for %s/%s: %w", user, role, sentinel.ErrNotFound)
}

// ListByUser returns every case for the pair, newest submission first.
func (s *InMemoryStore) ListByUser(_ context.Context, user id.UserID, role id.Role) ([]*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Case
	for _, c := range s.cases {
		if c.UserID == user && c.Role == role {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Case) int {
		return b.SubmittedAt.Compare(a.SubmittedAt)
	})
	return out, nil
}

func (s *InMemoryStore) GetStatus(_ context.Context, user id.UserID, role id.Role) (models.StatusRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.statuses[statusKey{user, role}]
	if !ok {
		return models.StatusRecord{}, fmt.Errorf("status for %s/%s: %w", user, role, sentinel.ErrNotFound)
	}
	return rec, nil
}
