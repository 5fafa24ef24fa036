// Package postgres persists verification cases and status records.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	pgplatform "propverify/internal/platform/postgres"
	"propverify/internal/verification/models"
	id "propverify/pkg/domain"
	"propverify/pkg/platform/sentinel"
	txcontext "propverify/pkg/platform/tx"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const caseColumns = `
	id, user_id, role, status, applicant_name, applicant_fields, document_ids,
	submitted_at, reviewed_at, reviewed_by, rejection_reason, notes, version, superseded_at`

// Create supersedes previous, inserts c and upserts status in one
// transaction. The partial unique index on active cases rejects a second
// active case for the pair.
func (s *Store) Create(ctx context.Context, c *models.Case, previous *models.Case, status models.StatusRecord) error {
	fields, err := json.Marshal(nonNilFields(c.Applicant.Fields))
	if err != nil {
		return fmt.Errorf("marshal applicant fields: %w", err)
	}
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if previous != nil {
			res, err := s.execer(ctx).ExecContext(ctx, `
				UPDATE verification_cases
				SET superseded_at = $2, version = $3
				WHERE id = $1 AND version = $4 AND superseded_at IS NULL`,
				previous.ID.String(), previous.SupersededAt, previous.Version, previous.Version-1)
			if err != nil {
				return pgplatform.MapError(err, "supersede case")
			}
			if n, err := res.RowsAffected(); err != nil {
				return fmt.Errorf("supersede case: rows affected: %w", err)
			} else if n == 0 {
				return fmt.Errorf("supersede case %s: %w", previous.ID, sentinel.ErrConflict)
			}
		}

		_, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO verification_cases (`+caseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			c.ID.String(),
			c.UserID.String(),
			c.Role.String(),
			string(c.Status),
			c.Applicant.FullName,
			fields,
			pq.Array(documentIDStrings(c.DocumentIDs)),
			c.SubmittedAt,
			c.ReviewedAt,
			nullString(c.ReviewedBy),
			c.RejectionReason,
			c.Notes,
			c.Version,
			c.SupersededAt,
		)
		if err != nil {
			return pgplatform.MapError(err, "insert case")
		}
		return s.PutStatus(ctx, status)
	})
}

// Update writes the decision fields and upserts status in one transaction
// when the stored version matches.
func (s *Store) Update(ctx context.Context, c *models.Case, expectedVersion int, status models.StatusRecord) error {
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if err := s.updateCase(ctx, c, expectedVersion); err != nil {
			return err
		}
		return s.PutStatus(ctx, status)
	})
}

func (s *Store) updateCase(ctx context.Context, c *models.Case, expectedVersion int) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE verification_cases
		SET status = $2, reviewed_at = $3, reviewed_by = $4, rejection_reason = $5,
			notes = $6, version = $7, superseded_at = $8
		WHERE id = $1 AND version = $9`,
		c.ID.String(),
		string(c.Status),
		c.ReviewedAt,
		nullString(c.ReviewedBy),
		c.RejectionReason,
		c.Notes,
		c.Version,
		c.SupersededAt,
		expectedVersion,
	)
	if err != nil {
		return pgplatform.MapError(err, "update case")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case: rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	// Distinguish a missing case from a lost race.
	if _, err := s.FindByID(ctx, c.ID); err != nil {
		return err
	}
	return fmt.Errorf("case %s is no longer at version %d: %w", c.ID, expectedVersion, sentinel.ErrConflict)
}

func (s *Store) FindByID(ctx context.Context, caseID id.CaseID) (*models.Case, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM verification_cases WHERE id = $1`, caseID.String())
	c, err := scanCase(row)
	if err != nil {
		return nil, pgplatform.MapError(err, "find case "+caseID.String())
	}
	return c, nil
}

func (s *Store) FindActive(ctx context.Context, user id.UserID, role id.Role) (*models.Case, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+caseColumns+` FROM verification_cases
		WHERE user_id = $1 AND role = $2 AND superseded_at IS NULL`,
		user.String(), role.String())
	c, err := scanCase(row)
	if err != nil {
		return nil, pgplatform.MapError(err, "find active case")
	}
	return c, nil
}

// ListByUser returns every case for the pair, newest submission first.
func (s *Store) ListByUser(ctx context.Context, user id.UserID, role id.Role) ([]*models.Case, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+caseColumns+` FROM verification_cases
		WHERE user_id = $1 AND role = $2
		ORDER BY submitted_at DESC`,
		user.String(), role.String())
	if err != nil {
		return nil, pgplatform.MapError(err, "query cases")
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

func (s *Store) PutStatus(ctx context.Context, rec models.StatusRecord) error {
	var caseID *string
	if rec.CaseID != nil {
		v := rec.CaseID.String()
		caseID = &v
	}
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO verification_status (user_id, role, status, case_id, last_updated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, role) DO UPDATE SET
			status = EXCLUDED.status,
			case_id = EXCLUDED.case_id,
			last_updated = EXCLUDED.last_updated`,
		rec.UserID.String(), rec.Role.String(), string(rec.Status), caseID, rec.LastUpdated)
	if err != nil {
		return pgplatform.MapError(err, "upsert status")
	}
	return nil
}

func (s *Store) GetStatus(ctx context.Context, user id.UserID, role id.Role) (models.StatusRecord, error) {
	var (
		status string
		caseID sql.NullString
		rec    = models.StatusRecord{UserID: user, Role: role}
	)
	err := s.execer(ctx).QueryRowContext(ctx, `
		SELECT status, case_id, last_updated FROM verification_status
		WHERE user_id = $1 AND role = $2`,
		user.String(), role.String()).Scan(&status, &caseID, &rec.LastUpdated)
	if err != nil {
		return models.StatusRecord{}, pgplatform.MapError(err, "get status")
	}
	rec.Status = models.Status(status)
	if caseID.Valid {
		parsed, err := id.ParseCaseID(caseID.String)
		if err != nil {
			return models.StatusRecord{}, fmt.Errorf("stored case id %q: %w", caseID.String, err)
		}
		rec.CaseID = &parsed
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCase(row scanner) (*models.Case, error) {
	var (
		c          models.Case
		caseID     string
		user       string
		role       string
		status     string
		fields     []byte
		docIDs     pq.StringArray
		reviewedAt sql.NullTime
		reviewedBy sql.NullString
		reason     sql.NullString
		superseded sql.NullTime
	)
	err := row.Scan(
		&caseID, &user, &role, &status, &c.Applicant.FullName, &fields, &docIDs,
		&c.SubmittedAt, &reviewedAt, &reviewedBy, &reason, &c.Notes, &c.Version, &superseded,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := id.ParseCaseID(caseID)
	if err != nil {
		return nil, fmt.Errorf("stored case id %q: %w", caseID, err)
	}
	c.ID = parsed
	c.UserID = id.UserID(user)
	c.Role = id.Role(role)
	c.Status = models.Status(status)
	if !c.Status.IsValid() {
		return nil, fmt.Errorf("stored case %s has unknown status %q", caseID, status)
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &c.Applicant.Fields); err != nil {
			return nil, fmt.Errorf("applicant fields of case %s: %w", caseID, err)
		}
	}
	for _, raw := range docIDs {
		docID, err := id.ParseDocumentID(raw)
		if err != nil {
			return nil, fmt.Errorf("document id of case %s: %w", caseID, err)
		}
		c.DocumentIDs = append(c.DocumentIDs, docID)
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		c.ReviewedAt = &t
	}
	c.ReviewedBy = reviewedBy.String
	if reason.Valid {
		r := reason.String
		c.RejectionReason = &r
	}
	if superseded.Valid {
		t := superseded.Time
		c.SupersededAt = &t
	}
	return &c, nil
}

func documentIDStrings(ids []id.DocumentID) []string {
	out := make([]string, len(ids))
	for i, docID := range ids {
		out[i] = docID.String()
	}
	return out
}

func nonNilFields(f models.Fields) models.Fields {
	if f == nil {
		return models.Fields{}
	}
	return f
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
