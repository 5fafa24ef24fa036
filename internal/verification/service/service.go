package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"propverify/internal/platform/metrics"
	"propverify/internal/verification/models"
	"propverify/internal/verification/policy"
	id "propverify/pkg/domain"
	dErrors "propverify/pkg/domain-errors"
	audit "propverify/pkg/platform/audit"
	"propverify/pkg/platform/retry"
	"propverify/pkg/platform/sentinel"
	"propverify/pkg/platform/tx"
	"propverify/pkg/requestcontext"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultLockShards   = 32
)

var tracer = otel.Tracer("propverify/internal/verification/service")

// Service runs the verification case lifecycle for (user, role) pairs.
// Writes for one pair are serialised by a sharded lock and guarded by the
// case version, so a stale decision fails instead of overwriting.
type Service struct {
	cases     CaseStore
	statuses  StatusStore
	documents Documents
	policy    policy.DecisionPolicy
	locks     *tx.ShardedLock
	publisher StatusPublisher
	auditor   AuditPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	storeTimeout time.Duration
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

// WithStatusPublisher pushes every status change to live subscribers.
func WithStatusPublisher(p StatusPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithPolicy replaces the default auto-approve policy.
func WithPolicy(p policy.DecisionPolicy) Option {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func WithLocks(l *tx.ShardedLock) Option {
	return func(s *Service) {
		if l != nil {
			s.locks = l
		}
	}
}

func New(cases CaseStore, statuses StatusStore, documents Documents, opts ...Option) *Service {
	s := &Service{
		cases:        cases,
		statuses:     statuses,
		documents:    documents,
		policy:       policy.AutoApprove{},
		logger:       slog.Default(),
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locks == nil {
		s.locks = tx.NewShardedLock(defaultLockShards, s.storeTimeout)
	}
	return s
}

// SubmitRequest is an applicant's submission.
type SubmitRequest struct {
	UserID      id.UserID
	Role        id.Role
	Applicant   models.Applicant
	DocumentIDs []id.DocumentID
}

// DecideRequest is a verdict on one case. ExpectedVersion, when non-zero,
// must match the stored case version.
type DecideRequest struct {
	CaseID          id.CaseID
	Outcome         models.Outcome
	Reviewer        string
	Notes           string
	ExpectedVersion int
}

func lockKey(user id.UserID, role id.Role) string {
	return user.String() + "|" + role.String()
}

// Submit opens a new pending case, supersedes the previous active one and
// then lets the decision policy act on it. The returned case reflects the
// policy's verdict when it made one.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*models.Case, error) {
	if len(req.DocumentIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeNoDocumentsProvided, "at least one document is required")
	}
	if req.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user is required")
	}
	if !req.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown role: "+string(req.Role))
	}
	if err := req.Applicant.Validate(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "verification.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("role", req.Role.String()),
		attribute.Int("documents", len(req.DocumentIDs)),
	)

	docIDs := dedupe(req.DocumentIDs)
	docs, err := s.documents.Owned(ctx, req.UserID, docIDs)
	if err != nil {
		return nil, s.fail(span, err)
	}
	for _, doc := range docs {
		if doc.Role != req.Role {
			return nil, s.fail(span, dErrors.New(dErrors.CodeValidation,
				"document "+doc.ID.String()+" was uploaded for the "+doc.Role.String()+" role"))
		}
	}

	var created *models.Case
	err = s.locks.Run(ctx, lockKey(req.UserID, req.Role), func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		previous, err := s.cases.FindActive(ctx, req.UserID, req.Role)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Translate(err, "load active case")
		}
		if previous != nil {
			previous.Supersede(now)
		}
		c := models.NewCase(req.UserID, req.Role, req.Applicant.Normalized(), docIDs, now)
		rec := models.RecordFor(c, now)
		if err := s.cases.Create(ctx, c, previous, rec); err != nil {
			return dErrors.Translate(err, "create case")
		}
		created = c
		s.publishStatus(ctx, rec)
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(attribute.String("case_id", created.ID.String()))

	if s.metrics != nil {
		s.metrics.IncSubmission(req.Role.String())
	}
	s.logger.InfoContext(ctx, "verification submitted",
		"case_id", created.ID.String(),
		"user_id", req.UserID.String(),
		"role", req.Role.String(),
		"documents", len(docIDs),
	)
	s.emit(ctx, audit.Event{
		UserID:   created.UserID,
		Role:     created.Role.String(),
		Subject:  created.ID.String(),
		Action:   string(audit.EventVerificationSubmitted),
		Decision: string(created.Status),
	})

	verdict, err := s.policy.Decide(ctx, created.Clone())
	if err != nil {
		s.logger.WarnContext(ctx, "decision policy failed, case left pending",
			"case_id", created.ID.String(),
			"error", err,
		)
		return created, nil
	}
	if !verdict.Decide {
		return created, nil
	}
	return s.Decide(ctx, DecideRequest{
		CaseID:          created.ID,
		Outcome:         verdict.Outcome,
		Reviewer:        verdict.Reviewer,
		Notes:           verdict.Notes,
		ExpectedVersion: created.Version,
	})
}

// Decide applies a verdict. Verifying an already verified case re-applies
// document verification and changes nothing else.
func (s *Service) Decide(ctx context.Context, req DecideRequest) (*models.Case, error) {
	if req.Outcome != models.OutcomeVerified && req.Outcome != models.OutcomeRejected {
		return nil, dErrors.New(dErrors.CodeValidation, "outcome must be verified or rejected")
	}
	if req.Reviewer == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "reviewer is required")
	}

	ctx, span := tracer.Start(ctx, "verification.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("case_id", req.CaseID.String()),
		attribute.String("outcome", string(req.Outcome)),
	)

	current, err := s.Case(ctx, req.CaseID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	var (
		decided   *models.Case
		unchanged bool
	)
	err = s.locks.Run(ctx, lockKey(current.UserID, current.Role), func(ctx context.Context) error {
		c, err := s.cases.FindByID(ctx, req.CaseID)
		if err != nil {
			return dErrors.Translate(err, "load case")
		}
		if req.ExpectedVersion != 0 && req.ExpectedVersion != c.Version {
			return dErrors.New(dErrors.CodeConflict, "case was modified by another request")
		}
		if err := c.CanDecide(req.Outcome, req.Notes); err != nil {
			return err
		}
		if c.Status == models.StatusVerified {
			decided, unchanged = c, true
			return nil
		}

		expected := c.Version
		now := requestcontext.Now(ctx)
		c.ApplyDecision(req.Outcome, req.Reviewer, req.Notes, now)
		rec := models.RecordFor(c, now)
		if err := s.cases.Update(ctx, c, expected, rec); err != nil {
			return dErrors.Translate(err, "save decision")
		}
		decided = c
		s.publishStatus(ctx, rec)
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	if decided.Status == models.StatusVerified {
		if err := s.documents.MarkVerified(ctx, decided.DocumentIDs); err != nil {
			return nil, s.fail(span, dErrors.Translate(err, "mark documents verified"))
		}
	}
	if unchanged {
		return decided, nil
	}

	if s.metrics != nil {
		kind := "manual"
		if req.Reviewer == models.AutoReviewer {
			kind = "auto"
		}
		s.metrics.IncDecision(string(req.Outcome), kind)
	}
	s.logger.InfoContext(ctx, "verification decided",
		"case_id", decided.ID.String(),
		"user_id", decided.UserID.String(),
		"status", string(decided.Status),
		"reviewer", req.Reviewer,
	)
	s.emit(ctx, audit.Event{
		UserID:   decided.UserID,
		Role:     decided.Role.String(),
		Subject:  decided.ID.String(),
		Action:   string(audit.EventVerificationDecided),
		Decision: string(decided.Status),
		Reason:   req.Notes,
		ActorID:  req.Reviewer,
	})
	return decided, nil
}

// publishStatus notifies subscribers of a committed status record. A failed
// notification is logged; subscribers refetch on reconnect.
func (s *Service) publishStatus(ctx context.Context, rec models.StatusRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "failed to publish status change",
			"user_id", rec.UserID.String(),
			"role", rec.Role.String(),
			"status", string(rec.Status),
			"error", err,
		)
	}
}

// Case returns one case by id.
func (s *Service) Case(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	c, err := read(ctx, s.storeTimeout, func(ctx context.Context) (*models.Case, error) {
		return s.cases.FindByID(ctx, caseID)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "verification case not found")
		}
		return nil, dErrors.Translate(err, "load case")
	}
	return c, nil
}

// ActiveCase returns the current case for (user, role).
func (s *Service) ActiveCase(ctx context.Context, user id.UserID, role id.Role) (*models.Case, error) {
	c, err := read(ctx, s.storeTimeout, func(ctx context.Context) (*models.Case, error) {
		return s.cases.FindActive(ctx, user, role)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no verification submitted")
		}
		return nil, dErrors.Translate(err, "load active case")
	}
	return c, nil
}

// History lists every case for (user, role), newest first.
func (s *Service) History(ctx context.Context, user id.UserID, role id.Role) ([]*models.Case, error) {
	cases, err := read(ctx, s.storeTimeout, func(ctx context.Context) ([]*models.Case, error) {
		return s.cases.ListByUser(ctx, user, role)
	})
	if err != nil {
		return nil, dErrors.Translate(err, "list cases")
	}
	return cases, nil
}

// Status returns the latest status record, or a not_submitted record when
// the user has never submitted.
func (s *Service) Status(ctx context.Context, user id.UserID, role id.Role) (models.StatusRecord, error) {
	rec, err := read(ctx, s.storeTimeout, func(ctx context.Context) (models.StatusRecord, error) {
		return s.statuses.GetStatus(ctx, user, role)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return models.DefaultStatus(user, role, requestcontext.Now(ctx)), nil
		}
		return models.StatusRecord{}, dErrors.Translate(err, "load status")
	}
	return rec, nil
}

// read runs an idempotent store read with a per-attempt timeout and a
// single retry.
func read[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return retry.Once(ctx, func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return fn(ctx)
	})
}

func (s *Service) fail(span trace.Span, err error) error {
	err = dErrors.Classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	return err
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

func dedupe(ids []id.DocumentID) []id.DocumentID {
	seen := make(map[id.DocumentID]struct{}, len(ids))
	out := make([]id.DocumentID, 0, len(ids))
	for _, docID := range ids {
		if _, ok := seen[docID]; ok {
			continue
		}
		seen[docID] = struct{}{}
		out = append(out, docID)
	}
	return out
}
