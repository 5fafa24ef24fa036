// Package memory keeps document records in process memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"propverify/internal/catalog"
	"propverify/internal/documents/models"
	id "propverify/pkg/domain"
	"propverify/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*models.Document
}

func New() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DocumentID]*models.Document)}
}

// Insert adds doc and removes the superseded records under one lock.
func (s *InMemoryStore) Insert(_ context.Context, doc *models.Document, supersedes []id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrConflict)
	}
	for _, old := range supersedes {
		delete(s.docs, old)
	}
	for _, other := range s.docs {
		if other.OwnerID == doc.OwnerID && other.Slot() == doc.Slot() {
			return fmt.Errorf("slot %s/%s already filled: %w", doc.Category, doc.DocType, sentinel.ErrConflict)
		}
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (s *InMemoryStore) FindBySlot(_ context.Context, owner id.UserID, category catalog.CategoryKey, docType string) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.OwnerID == owner && doc.Category == category && doc.DocType == docType {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.UserID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, doc := range s.docs {
		if doc.OwnerID == owner {
			out = append(out, doc.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Document) int {
		return a.UploadedAt.Compare(b.UploadedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; !ok {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrNotFound)
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, docID id.DocumentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		return fmt.Errorf("document %s: %w", docID, sentinel.ErrNotFound)
	}
	delete(s.docs, docID)
	return nil
}
