package assets

import (
	"bytes"
	"context"
	"io"
	"sync"
)

// MemoryUploader keeps assets in process memory; used in demo mode and
// in tests.
type MemoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{objects: make(map[string][]byte)}
}

func (u *MemoryUploader) Upload(_ context.Context, projectID, filename string, r io.Reader, size int64) (string, error) {
	if err := checkSize(size); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := copyCapped(&buf, r, MaxBytes); err != nil {
		return "", err
	}

	path := objectPath("assets", projectID, filename)

	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[path] = buf.Bytes()

	return "memory://" + path, nil
}

// Get returns a stored object by the path part of its URL.
func (u *MemoryUploader) Get(path string) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.objects[path]
	return data, ok
}
