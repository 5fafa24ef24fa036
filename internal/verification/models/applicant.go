package models

import (
	"regexp"
	"strconv"
	"strings"

	dErrors "propverify/pkg/domain-errors"
)

const (
	maxNameLength  = 200
	maxFieldCount  = 32
	maxFieldLength = 500

	FieldYearsOfExperience = "years_of_experience"
)

// nameToken accepts letters followed by letters, apostrophes, dots or
// hyphens, so "O'Brien", "Jr." and "Dela-Cruz" pass and "john_doe" does not.
var nameToken = regexp.MustCompile(`^\p{L}[\p{L}'.\-]*$`)

// Validate applies the minimal checks a submission must pass: a real
// two-token name and bounded free-form fields.
func (a Applicant) Validate() error {
	name := strings.Join(strings.Fields(a.FullName), " ")
	if name == "" || len(name) > maxNameLength || strings.Contains(name, "@") {
		return dErrors.New(dErrors.CodeInvalidApplicantName, "full name must be a first and last name")
	}
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return dErrors.New(dErrors.CodeInvalidApplicantName, "full name must contain at least two words")
	}
	for _, tok := range tokens {
		if !nameToken.MatchString(tok) {
			return dErrors.New(dErrors.CodeInvalidApplicantName, "full name looks like a username")
		}
	}

	if len(a.Fields) > maxFieldCount {
		return dErrors.New(dErrors.CodeValidation, "too many applicant fields")
	}
	for k, v := range a.Fields {
		if strings.TrimSpace(k) == "" || len(v) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "invalid applicant field "+strconv.Quote(k))
		}
	}
	if v, ok := a.Fields[FieldYearsOfExperience]; ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return dErrors.New(dErrors.CodeValidation, "years_of_experience must be a non-negative whole number")
		}
	}
	return nil
}

// Normalized returns the applicant with whitespace in the name collapsed.
func (a Applicant) Normalized() Applicant {
	out := a.Clone()
	out.FullName = strings.Join(strings.Fields(a.FullName), " ")
	return out
}
