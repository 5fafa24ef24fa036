package models

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "propverify/pkg/domain-errors"
)

var (
	pdfBytes  = append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), 256)...)
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)
	jpegBytes = append([]byte("\xff\xd8\xff\xe0"), bytes.Repeat([]byte{0}, 64)...)
)

func TestFileValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		wantErr bool
	}{
		{"pdf", File{Name: "license.pdf", ContentType: "application/pdf", Data: pdfBytes}, false},
		{"png", File{Name: "photo.png", ContentType: "image/png", Data: pngBytes}, false},
		{"jpeg with jpg alias", File{Name: "id.jpg", ContentType: "image/jpg", Data: jpegBytes}, false},
		{"declared type with params", File{Name: "a.pdf", ContentType: "application/pdf; charset=binary", Data: pdfBytes}, false},
		{"empty", File{Name: "a.pdf", ContentType: "application/pdf"}, true},
		{"unsupported declared type", File{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a....")}, true},
		{"declared pdf but png content", File{Name: "a.pdf", ContentType: "application/pdf", Data: pngBytes}, true},
		{"declared png but text content", File{Name: "a.png", ContentType: "image/png", Data: []byte("hello world")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.file.Validate(MaxFileBytes)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFile))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFileValidate_RejectsOversizedPDF(t *testing.T) {
	data := make([]byte, 15*1024*1024)
	copy(data, "%PDF-1.7\n")
	err := File{Name: "big.pdf", ContentType: "application/pdf", Data: data}.Validate(MaxFileBytes)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFile))
}

func TestFileValidate_LimitCannotExceedTenMB(t *testing.T) {
	data := make([]byte, MaxFileBytes+1)
	copy(data, "%PDF-1.7\n")
	err := File{ContentType: "application/pdf", Data: data}.Validate(50 * 1024 * 1024)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFile))
}

func TestFileSafeName(t *testing.T) {
	assert.Equal(t, "passwd", File{Name: "../../etc/passwd"}.SafeName())
	assert.Equal(t, "my_license.pdf", File{Name: `C:\Users\me\my license.pdf`}.SafeName())
	assert.Equal(t, "upload", File{Name: ""}.SafeName())
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusProcessing))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusVerified))
	assert.False(t, StatusProcessing.CanTransitionTo(StatusPending))
	assert.False(t, StatusVerified.CanTransitionTo(StatusRejected))
	assert.False(t, StatusRejected.CanTransitionTo(StatusVerified))
}

func TestDocumentReview(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("rejects invalid score", func(t *testing.T) {
		doc := &Document{Status: StatusPending}
		err := doc.CanReview(StatusProcessing, 101)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects terminal transition", func(t *testing.T) {
		doc := &Document{Status: StatusVerified}
		err := doc.CanReview(StatusRejected, 10)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
	})

	t.Run("appends feedback and verifies", func(t *testing.T) {
		doc := &Document{Status: StatusProcessing, Feedback: []string{"blurry"}}
		require.NoError(t, doc.CanReview(StatusVerified, 88))
		doc.ApplyReview(StatusVerified, 88, []string{"", "legible now"}, now)

		assert.Equal(t, StatusVerified, doc.Status)
		assert.True(t, doc.Verified)
		assert.Equal(t, 88, doc.Score)
		assert.Equal(t, []string{"blurry", "legible now"}, doc.Feedback)
		require.NotNil(t, doc.VerifiedAt)
		assert.Equal(t, now, *doc.VerifiedAt)
	})
}

func TestApplyVerification_Idempotent(t *testing.T) {
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := &Document{Status: StatusPending}
	doc.ApplyVerification(first)
	doc.ApplyVerification(first.Add(time.Hour))

	assert.True(t, doc.Verified)
	assert.Equal(t, StatusVerified, doc.Status)
	assert.Equal(t, first, *doc.VerifiedAt)
	assert.Equal(t, first, doc.UpdatedAt)
}

func TestClone(t *testing.T) {
	at := time.Now()
	doc := &Document{Feedback: []string{"a"}, VerifiedAt: &at}
	cp := doc.Clone()
	cp.Feedback[0] = "b"
	*cp.VerifiedAt = at.Add(time.Hour)

	assert.Equal(t, "a", doc.Feedback[0])
	assert.Equal(t, at, *doc.VerifiedAt)
}
