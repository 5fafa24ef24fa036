package service

import (
	"bytes"
	"io"
	"sync"
)

// ProgressFunc receives upload progress in percent, 0 to 100.
type ProgressFunc func(percent float64)

// progressReader reports how much of a buffered upload has been consumed.
// Object store clients may seek back to retry or checksum a body, so the
// reported value is the high-water mark and never decreases.
type progressReader struct {
	r        *bytes.Reader
	size     int64
	report   ProgressFunc
	mu       sync.Mutex
	reported float64
}

var (
	_ io.ReadSeeker = (*progressReader)(nil)
	_ io.ReaderAt   = (*progressReader)(nil)
)

func newProgressReader(data []byte, report ProgressFunc) *progressReader {
	return &progressReader{r: bytes.NewReader(data), size: int64(len(data)), report: report}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.emit()
	}
	return n, err
}

func (p *progressReader) Seek(offset int64, whence int) (int64, error) {
	return p.r.Seek(offset, whence)
}

func (p *progressReader) ReadAt(b []byte, off int64) (int, error) {
	return p.r.ReadAt(b, off)
}

func (p *progressReader) emit() {
	if p.report == nil || p.size == 0 {
		return
	}
	consumed := p.size - int64(p.r.Len())
	// 100 is reserved for confirmed completion.
	pct := float64(consumed) / float64(p.size) * 99

	p.mu.Lock()
	if pct <= p.reported {
		p.mu.Unlock()
		return
	}
	p.reported = pct
	p.mu.Unlock()
	p.report(pct)
}

// complete reports 100 once the object store has acknowledged the write.
func (p *progressReader) complete() {
	if p.report == nil {
		return
	}
	p.mu.Lock()
	p.reported = 100
	p.mu.Unlock()
	p.report(100)
}
