package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "propverify/pkg/domain-errors"
)

// UserID is the opaque, stable identifier supplied by the identity provider.
// It is a string rather than a UUID because external providers and the
// anonymous fallback mint their own formats.
type UserID string

// ParseUserID validates a user id at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "user id cannot be empty")
	}
	if len(s) > 128 {
		return "", dErrors.New(dErrors.CodeBadRequest, "user id must be 128 characters or less")
	}
	return UserID(s), nil
}

func (u UserID) String() string { return string(u) }

func (u UserID) IsNil() bool { return u == "" }

// CaseID identifies a verification case.
type CaseID uuid.UUID

// DocumentID identifies an uploaded document record.
type DocumentID uuid.UUID

func NewCaseID() CaseID { return CaseID(uuid.New()) }

func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

func (c CaseID) String() string { return uuid.UUID(c).String() }

func (c CaseID) IsNil() bool { return uuid.UUID(c) == uuid.Nil }

func (d DocumentID) String() string { return uuid.UUID(d).String() }

func (d DocumentID) IsNil() bool { return uuid.UUID(d) == uuid.Nil }

// ParseCaseID parses a case id from external input.
func ParseCaseID(s string) (CaseID, error) {
	parsed, err := parseUUID(s, "case id")
	return CaseID(parsed), err
}

// ParseDocumentID parses a document id from external input.
func ParseDocumentID(s string) (DocumentID, error) {
	parsed, err := parseUUID(s, "document id")
	return DocumentID(parsed), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be empty")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "invalid "+label)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" cannot be nil")
	}
	return parsed, nil
}

func (c CaseID) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *CaseID) UnmarshalText(b []byte) error {
	parsed, err := ParseCaseID(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (d DocumentID) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *DocumentID) UnmarshalText(b []byte) error {
	parsed, err := ParseDocumentID(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
