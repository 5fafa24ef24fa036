package models

import (
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	dErrors "propverify/pkg/domain-errors"
)

// MaxFileBytes is the largest accepted upload.
const MaxFileBytes int64 = 10 * 1024 * 1024

var allowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// File is an upload held in memory. Uploads are bounded by MaxFileBytes, so
// buffering keeps validation and retries of the object write simple.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// Validate enforces the size bound and checks that both the declared and the
// sniffed content type are allowed. It never touches a store.
func (f File) Validate(maxBytes int64) error {
	if maxBytes <= 0 || maxBytes > MaxFileBytes {
		maxBytes = MaxFileBytes
	}
	if len(f.Data) == 0 {
		return dErrors.New(dErrors.CodeInvalidFile, "file is empty")
	}
	if f.Size() > maxBytes {
		return dErrors.New(dErrors.CodeInvalidFile, "file exceeds the 10 MB limit")
	}
	declared := normalizeMIME(f.ContentType)
	if !allowedMIMETypes[declared] {
		return dErrors.New(dErrors.CodeInvalidFile, "only PDF, JPEG and PNG files are accepted")
	}
	sniffed := normalizeMIME(http.DetectContentType(f.Data))
	if sniffed != declared {
		return dErrors.New(dErrors.CodeInvalidFile, "file content does not match its declared type")
	}
	return nil
}

// SafeName strips directories and control characters from a client file name.
func (f File) SafeName() string {
	name := filepath.Base(strings.ReplaceAll(f.Name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == '/' {
			return -1
		}
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	if len(name) > 128 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:128-len(ext)] + ext
	}
	return name
}

func normalizeMIME(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}
