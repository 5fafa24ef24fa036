// Package memory keeps document files in process memory.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"propverify/pkg/platform/sentinel"
)

type ObjectStore struct {
	mu      sync.RWMutex
	objects map[string]object
}

type object struct {
	data        []byte
	contentType string
}

func New() *ObjectStore {
	return &ObjectStore{objects: make(map[string]object)}
}

// Put reads body fully before storing it, so a cancelled context leaves no
// partial object behind.
func (s *ObjectStore) Put(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error) {
	data := make([]byte, 0, size)
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("put %s: %w", path, err)
		}
		n, err := body.Read(buf)
		data = append(data, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("put %s: read body: %w", path, err)
		}
	}
	if size >= 0 && int64(len(data)) != size {
		return "", fmt.Errorf("put %s: read %d bytes, expected %d", path, len(data), size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = object{data: data, contentType: contentType}
	return "mem://" + path, nil
}

func (s *ObjectStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[path]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", path, sentinel.ErrNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (s *ObjectStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; !ok {
		return fmt.Errorf("object %s: %w", path, sentinel.ErrNotFound)
	}
	delete(s.objects, path)
	return nil
}

// Len reports how many objects are stored.
func (s *ObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
