// Package postgres persists document records in the documents table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"propverify/internal/catalog"
	"propverify/internal/documents/models"
	pgplatform "propverify/internal/platform/postgres"
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

const documentColumns = `
	id, owner_id, role, category, doc_type, file_name, storage_path, url,
	size_bytes, mime_type, status, score, feedback, verified, verified_at,
	uploaded_at, updated_at`

// Insert deletes the superseded rows and inserts doc in one transaction. The
// slot unique index turns a lost race into sentinel.ErrConflict.
func (s *Store) Insert(ctx context.Context, doc *models.Document, supersedes []id.DocumentID) error {
	return txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		if len(supersedes) > 0 {
			ids := make([]string, len(supersedes))
			for i, old := range supersedes {
				ids[i] = old.String()
			}
			if _, err := s.execer(ctx).ExecContext(ctx,
				`DELETE FROM documents WHERE id = ANY($1::uuid[])`, pq.Array(ids)); err != nil {
				return pgplatform.MapError(err, "delete superseded documents")
			}
		}

		query := `INSERT INTO documents (` + documentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
		_, err := s.execer(ctx).ExecContext(ctx, query,
			doc.ID.String(),
			doc.OwnerID.String(),
			doc.Role.String(),
			string(doc.Category),
			doc.DocType,
			doc.FileName,
			doc.StoragePath,
			doc.URL,
			doc.SizeBytes,
			doc.MimeType,
			string(doc.Status),
			doc.Score,
			pq.Array(nonNil(doc.Feedback)),
			doc.Verified,
			doc.VerifiedAt,
			doc.UploadedAt,
			doc.UpdatedAt,
		)
		if err != nil {
			return pgplatform.MapError(err, "insert document")
		}
		return nil
	})
}

func (s *Store) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, docID.String())
	doc, err := scanDocument(row)
	if err != nil {
		return nil, pgplatform.MapError(err, "find document "+docID.String())
	}
	return doc, nil
}

func (s *Store) FindBySlot(ctx context.Context, owner id.UserID, category catalog.CategoryKey, docType string) ([]*models.Document, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents
		WHERE owner_id = $1 AND category = $2 AND doc_type = $3
		ORDER BY uploaded_at ASC`,
		owner.String(), string(category), docType)
	if err != nil {
		return nil, pgplatform.MapError(err, "query documents by slot")
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (s *Store) ListByOwner(ctx context.Context, owner id.UserID) ([]*models.Document, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 ORDER BY uploaded_at ASC`,
		owner.String())
	if err != nil {
		return nil, pgplatform.MapError(err, "query documents by owner")
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// Update writes the review fields. File fields are immutable once stored.
func (s *Store) Update(ctx context.Context, doc *models.Document) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE documents
		SET status = $2, score = $3, feedback = $4, verified = $5, verified_at = $6, updated_at = $7
		WHERE id = $1`,
		doc.ID.String(),
		string(doc.Status),
		doc.Score,
		pq.Array(nonNil(doc.Feedback)),
		doc.Verified,
		doc.VerifiedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return pgplatform.MapError(err, "update document")
	}
	return requireAffected(res, "update document "+doc.ID.String())
}

func (s *Store) Delete(ctx context.Context, docID id.DocumentID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, docID.String())
	if err != nil {
		return pgplatform.MapError(err, "delete document")
	}
	return requireAffected(res, "delete document "+docID.String())
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	var (
		doc        models.Document
		docID      string
		owner      string
		role       string
		category   string
		status     string
		feedback   pq.StringArray
		verifiedAt sql.NullTime
	)
	err := row.Scan(
		&docID, &owner, &role, &category, &doc.DocType, &doc.FileName, &doc.StoragePath, &doc.URL,
		&doc.SizeBytes, &doc.MimeType, &status, &doc.Score, &feedback, &doc.Verified, &verifiedAt,
		&doc.UploadedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParseDocumentID(docID)
	if err != nil {
		return nil, fmt.Errorf("stored document id %q: %w", docID, err)
	}
	doc.ID = parsed
	doc.OwnerID = id.UserID(owner)
	doc.Role = id.Role(role)
	doc.Category = catalog.CategoryKey(category)
	doc.Status = models.Status(status)
	doc.Feedback = []string(feedback)
	if doc.Feedback == nil {
		doc.Feedback = []string{}
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		doc.VerifiedAt = &t
	}
	if !doc.Status.IsValid() {
		return nil, fmt.Errorf("stored document %s has unknown status %q", docID, status)
	}
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
