package domainerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propverify/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"deadline", fmt.Errorf("put object: %w", context.DeadlineExceeded), CodeTimeout},
		{"cancelled", context.Canceled, CodeTimeout},
		{"not found", fmt.Errorf("find: %w", sentinel.ErrNotFound), CodeNotFound},
		{"conflict", sentinel.ErrConflict, CodeConflict},
		{"permission", sentinel.ErrPermissionDenied, CodeForbidden},
		{"unauthenticated", sentinel.ErrUnauthenticated, CodeUnauthorized},
		{"unavailable", sentinel.ErrUnavailable, CodeUnavailable},
		{"unknown lands in store bucket", errors.New("connection reset by peer"), CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := Classify(tt.err)
			require.Error(t, classified)
			assert.True(t, HasCode(classified, tt.want), "got %v", classified)
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestClassify_KeepsExistingCode(t *testing.T) {
	err := New(CodeMissingReason, "reason required")
	assert.Same(t, err, Classify(err))
	assert.Nil(t, Classify(nil))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "x"))

	base := errors.New("boom")
	err := Wrap(base, CodeUnavailable, "list documents")
	assert.True(t, HasCode(err, CodeUnavailable))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, CodeUnavailable, CodeOf(err))
}

func TestMessage_DistinctPerCode(t *testing.T) {
	codes := []Code{
		CodeInvalidFile, CodeNoDocumentsProvided, CodeInvalidApplicantName,
		CodeInvalidStateTransition, CodeMissingReason, CodeForbidden,
		CodeUnauthorized, CodeNotFound, CodeTimeout, CodeConflict, CodeUnavailable,
	}
	seen := make(map[string]Code)
	for _, code := range codes {
		msg := Message(code)
		require.NotEmpty(t, msg)
		if prev, dup := seen[msg]; dup {
			t.Fatalf("codes %s and %s share message %q", prev, code, msg)
		}
		seen[msg] = code
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(sentinel.ErrUnavailable))
	assert.True(t, Retryable(context.DeadlineExceeded))
	assert.True(t, Retryable(New(CodeForbidden, "denied")))
	assert.False(t, Retryable(New(CodeInvalidFile, "too big")))
	assert.False(t, Retryable(sentinel.ErrNotFound))
}

func TestTranslate(t *testing.T) {
	assert.Nil(t, Translate(nil, "op"))

	err := Translate(fmt.Errorf("find slot: %w", sentinel.ErrPermissionDenied), "list documents")
	assert.True(t, HasCode(err, CodeForbidden))
	assert.Contains(t, err.Error(), "list documents")

	coded := New(CodeMissingReason, "why")
	assert.Same(t, coded, Translate(coded, "decide"))
}
