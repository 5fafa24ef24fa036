package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"propverify/internal/catalog"
	"propverify/internal/documents/models"
	"propverify/internal/platform/metrics"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	audit "propverify/pkg/platform/audit"
	"propverify/pkg/platform/retry"
	"propverify/pkg/platform/sentinel"
	strutil "propverify/pkg/platform/strings"
	"propverify/pkg/platform/tx"
	"propverify/pkg/requestcontext"
)

const (
	defaultUploadTimeout  = 2 * time.Minute
	defaultCleanupTimeout = 10 * time.Second
	defaultStoreTimeout   = 5 * time.Second
	defaultLockShards     = 64
)

var tracer = otel.Tracer("propverify/internal/documents/service")

// Service manages uploaded verification documents. It keeps at most one
// record per (owner, category, doc type) slot.
type Service struct {
	objects  ObjectStore
	records  MetadataStore
	slots    *tx.ShardedLock
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	maxBytes int64

	uploadTimeout  time.Duration
	cleanupTimeout time.Duration
	storeTimeout   time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMaxBytes caps accepted file size. Values above models.MaxFileBytes are
// clamped to it.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 && n <= models.MaxFileBytes {
			s.maxBytes = n
		}
	}
}

// WithUploadTimeout bounds one upload, object write and record insert included.
func WithUploadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.uploadTimeout = d
		}
	}
}

// WithCleanupTimeout bounds the removal of an orphaned object after a
// failed or cancelled upload.
func WithCleanupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cleanupTimeout = d
		}
	}
}

// WithStoreTimeout bounds each metadata read attempt.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithSlotLock replaces the per-slot lock, mainly so tests can size it.
func WithSlotLock(l *tx.ShardedLock) Option {
	return func(s *Service) {
		if l != nil {
			s.slots = l
		}
	}
}

func New(objects ObjectStore, records MetadataStore, opts ...Option) *Service {
	s := &Service{
		objects:        objects,
		records:        records,
		logger:         slog.Default(),
		maxBytes:       models.MaxFileBytes,
		uploadTimeout:  defaultUploadTimeout,
		cleanupTimeout: defaultCleanupTimeout,
		storeTimeout:   defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.slots == nil {
		s.slots = tx.NewShardedLock(defaultLockShards, s.uploadTimeout)
	}
	return s
}

// UploadRequest carries one file for a catalog slot.
type UploadRequest struct {
	Owner    id.UserID
	Role     id.Role
	Category catalog.CategoryKey
	DocType  string
	File     models.File
	Progress ProgressFunc
}

// ReplaceRequest swaps the file behind an existing record.
type ReplaceRequest struct {
	Caller   id.UserID
	File     models.File
	Progress ProgressFunc
}

// ReviewRequest is a reviewer's per-document assessment.
type ReviewRequest struct {
	Reviewer id.UserID
	Status   models.Status
	Score    int
	Feedback []string
}

// Upload stores a file into its catalog slot and supersedes whatever the
// slot held before. The returned record is pending with a zero score.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*models.Document, error) {
	if err := req.File.Validate(s.maxBytes); err != nil {
		s.countFailure(err)
		return nil, err
	}
	if err := s.checkSlot(req); err != nil {
		s.countFailure(err)
		return nil, err
	}
	doc, err := s.upload(ctx, req, audit.EventDocumentUploaded)
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	return doc, nil
}

// Replace uploads a new file into the slot of an existing record owned by
// the caller.
func (s *Service) Replace(ctx context.Context, existing id.DocumentID, req ReplaceRequest) (*models.Document, error) {
	if err := req.File.Validate(s.maxBytes); err != nil {
		s.countFailure(err)
		return nil, err
	}
	current, err := s.find(ctx, existing)
	if err != nil {
		return nil, err
	}
	if !current.IsOwnedBy(req.Caller) {
		return nil, dErrors.New(dErrors.CodeForbidden, "document belongs to another user")
	}
	doc, err := s.upload(ctx, UploadRequest{
		Owner:    current.OwnerID,
		Role:     current.Role,
		Category: current.Category,
		DocType:  current.DocType,
		File:     req.File,
		Progress: req.Progress,
	}, audit.EventDocumentReplaced)
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	return doc, nil
}

func (s *Service) checkSlot(req UploadRequest) error {
	if req.Owner.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "owner is required")
	}
	if !req.Role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown role: "+string(req.Role))
	}
	if _, ok := catalog.For(req.Role).Lookup(req.Category, req.DocType); !ok {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s/%s is not a %s document", req.Category, req.DocType, req.Role))
	}
	return nil
}

func (s *Service) upload(ctx context.Context, req UploadRequest, action audit.AuditEvent) (*models.Document, error) {
	ctx, span := tracer.Start(ctx, "documents.upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("role", req.Role.String()),
		attribute.String("category", string(req.Category)),
		attribute.String("doc_type", req.DocType),
		attribute.Int64("size_bytes", req.File.Size()),
	)

	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	start := time.Now()
	var doc *models.Document
	err := s.slots.Run(ctx, slotKey(req.Owner, req.Category, req.DocType), func(ctx context.Context) error {
		var err error
		doc, err = s.uploadLocked(ctx, req)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return nil, dErrors.Classify(err)
	}

	if s.metrics != nil {
		s.metrics.ObserveUpload(req.Role.String(), string(req.Category), doc.SizeBytes, time.Since(start).Seconds())
	}
	s.logger.InfoContext(ctx, "document stored",
		"document_id", doc.ID.String(),
		"user_id", doc.OwnerID.String(),
		"category", string(doc.Category),
		"doc_type", doc.DocType,
		"size_bytes", doc.SizeBytes,
	)
	s.emit(ctx, audit.Event{
		UserID:  doc.OwnerID,
		Role:    doc.Role.String(),
		Subject: doc.ID.String(),
		Action:  string(action),
	})
	return doc, nil
}

func (s *Service) uploadLocked(ctx context.Context, req UploadRequest) (*models.Document, error) {
	previous, err := s.records.FindBySlot(ctx, req.Owner, req.Category, req.DocType)
	if err != nil {
		return nil, dErrors.Translate(err, "find documents in slot")
	}

	docID := id.NewDocumentID()
	path := objectPath(req)
	body := newProgressReader(req.File.Data, req.Progress)

	location, err := s.objects.Put(ctx, path, body, req.File.Size(), req.File.ContentType)
	if err != nil {
		s.discardObject(ctx, path)
		return nil, dErrors.Translate(err, "store document file")
	}
	body.complete()

	now := requestcontext.Now(ctx)
	doc := &models.Document{
		ID:          docID,
		OwnerID:     req.Owner,
		Role:        req.Role,
		Category:    req.Category,
		DocType:     req.DocType,
		FileName:    req.File.SafeName(),
		StoragePath: path,
		URL:         location,
		SizeBytes:   req.File.Size(),
		MimeType:    req.File.ContentType,
		Status:      models.StatusPending,
		Feedback:    []string{},
		UploadedAt:  now,
		UpdatedAt:   now,
	}

	supersedes := make([]id.DocumentID, 0, len(previous))
	for _, p := range previous {
		supersedes = append(supersedes, p.ID)
	}
	if err := s.records.Insert(ctx, doc, supersedes); err != nil {
		s.discardObject(ctx, path)
		return nil, dErrors.Translate(err, "save document record")
	}

	for _, p := range previous {
		if err := s.objects.Delete(ctx, p.StoragePath); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "failed to delete superseded document file",
				"document_id", p.ID.String(),
				"path", p.StoragePath,
				"error", err,
			)
		}
	}
	return doc, nil
}

// discardObject removes a partially written or orphaned object. It runs on
// a detached context so a cancelled upload still cleans up after itself.
func (s *Service) discardObject(ctx context.Context, path string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()
	if err := s.objects.Delete(cleanupCtx, path); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to remove orphaned document file",
			"path", path,
			"error", err,
		)
	}
}

// ListByOwner returns the owner's documents, oldest upload first.
func (s *Service) ListByOwner(ctx context.Context, owner id.UserID) ([]*models.Document, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "owner is required")
	}
	docs, err := retry.Once(ctx, func(ctx context.Context) ([]*models.Document, error) {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		return s.records.ListByOwner(ctx, owner)
	})
	if err != nil {
		return nil, dErrors.Translate(err, "list documents")
	}
	slices.SortStableFunc(docs, func(a, b *models.Document) int {
		return a.UploadedAt.Compare(b.UploadedAt)
	})
	return docs, nil
}

// Get returns one document by id.
func (s *Service) Get(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	return s.find(ctx, docID)
}

func (s *Service) find(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	doc, err := retry.Once(ctx, func(ctx context.Context) (*models.Document, error) {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		return s.records.FindByID(ctx, docID)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Translate(err, "load document")
	}
	return doc, nil
}

// Content returns a document together with its file bytes.
func (s *Service) Content(ctx context.Context, docID id.DocumentID) (*models.Document, []byte, error) {
	doc, err := s.find(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	data, err := retry.Once(ctx, func(ctx context.Context) ([]byte, error) {
		ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
		return s.objects.Get(ctx, doc.StoragePath)
	})
	if err != nil {
		return nil, nil, dErrors.Translate(err, "read document file")
	}
	return doc, data, nil
}

// Delete removes the document file and then its record. Deleting a document
// that no longer exists succeeds.
func (s *Service) Delete(ctx context.Context, caller id.UserID, docID id.DocumentID) error {
	doc, err := s.find(ctx, docID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if !doc.IsOwnedBy(caller) {
		return dErrors.New(dErrors.CodeForbidden, "document belongs to another user")
	}

	err = s.slots.Run(ctx, slotKey(doc.OwnerID, doc.Category, doc.DocType), func(ctx context.Context) error {
		if err := s.objects.Delete(ctx, doc.StoragePath); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Translate(err, "delete document file")
		}
		if err := s.records.Delete(ctx, doc.ID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Translate(err, "delete document record")
		}
		return nil
	})
	if err != nil {
		return dErrors.Classify(err)
	}

	if s.metrics != nil {
		s.metrics.IncDocumentDeleted()
	}
	s.logger.InfoContext(ctx, "document deleted",
		"document_id", doc.ID.String(),
		"user_id", caller.String(),
	)
	s.emit(ctx, audit.Event{
		UserID:  doc.OwnerID,
		Role:    doc.Role.String(),
		Subject: doc.ID.String(),
		Action:  string(audit.EventDocumentDeleted),
	})
	return nil
}

// Review applies a reviewer's status, score and feedback to one document.
func (s *Service) Review(ctx context.Context, docID id.DocumentID, req ReviewRequest) (*models.Document, error) {
	doc, err := s.find(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.CanReview(req.Status, req.Score); err != nil {
		return nil, err
	}

	err = s.slots.Run(ctx, slotKey(doc.OwnerID, doc.Category, doc.DocType), func(ctx context.Context) error {
		// Re-read under the lock so a concurrent upload is not overwritten.
		current, err := s.records.FindByID(ctx, docID)
		if err != nil {
			return dErrors.Translate(err, "load document")
		}
		if err := current.CanReview(req.Status, req.Score); err != nil {
			return err
		}
		current.ApplyReview(req.Status, req.Score, strutil.DedupeAndTrim(req.Feedback), requestcontext.Now(ctx))
		if err := s.records.Update(ctx, current); err != nil {
			return dErrors.Translate(err, "save document review")
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, dErrors.Classify(err)
	}

	s.emit(ctx, audit.Event{
		UserID:   doc.OwnerID,
		Role:     doc.Role.String(),
		Subject:  doc.ID.String(),
		Action:   string(audit.EventDocumentReviewed),
		Decision: string(doc.Status),
		ActorID:  req.Reviewer.String(),
	})
	return doc, nil
}

// MarkVerified flags every listed document verified. Already verified
// documents keep their original verification time.
func (s *Service) MarkVerified(ctx context.Context, ids []id.DocumentID) error {
	now := requestcontext.Now(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, docID := range ids {
		g.Go(func() error {
			doc, err := s.records.FindByID(gctx, docID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					s.logger.WarnContext(gctx, "verified document no longer exists", "document_id", docID.String())
					return nil
				}
				return dErrors.Translate(err, "load document "+docID.String())
			}
			if doc.Verified && doc.Status == models.StatusVerified {
				return nil
			}
			doc.ApplyVerification(now)
			if err := s.records.Update(gctx, doc); err != nil {
				return dErrors.Translate(err, "mark document verified")
			}
			return nil
		})
	}
	return g.Wait()
}

// Owned returns the listed documents, failing when any is missing or owned
// by someone else.
func (s *Service) Owned(ctx context.Context, owner id.UserID, ids []id.DocumentID) ([]*models.Document, error) {
	docs := make([]*models.Document, 0, len(ids))
	for _, docID := range ids {
		doc, err := s.find(ctx, docID)
		if err != nil {
			return nil, err
		}
		if !doc.IsOwnedBy(owner) {
			return nil, dErrors.New(dErrors.CodeForbidden, "document "+docID.String()+" belongs to another user")
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) countFailure(err error) {
	if s.metrics != nil {
		s.metrics.IncUploadFailure(string(dErrors.CodeOf(err)))
	}
}

func slotKey(owner id.UserID, category catalog.CategoryKey, docType string) string {
	return owner.String() + "|" + string(category) + "|" + docType
}

// objectPath lays objects out by role, owner and slot. The ULID prefix keeps
// keys unique and sorted by upload time within a slot.
func objectPath(req UploadRequest) string {
	key := ulid.MustNew(ulid.Now(), rand.Reader).String()
	return strings.Join([]string{
		"verification",
		req.Role.String(),
		url.PathEscape(req.Owner.String()),
		string(req.Category),
		req.DocType,
		key + "-" + req.File.SafeName(),
	}, "/")
}
