package assets

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"

	"github.com/google/uuid"
)

// MaxBytes is the per-object size cap for uploaded reference assets.
const MaxBytes = 10 << 20

var ErrTooLarge = fmt.Errorf("asset exceeds %d bytes", int64(MaxBytes))

// Uploader stores one uploaded asset and returns a durable URL for it.
type Uploader interface {
	Upload(ctx context.Context, projectID, filename string, r io.Reader, size int64) (string, error)
}

// objectPath builds the hierarchical key: prefix/projectID/uuid-filename.
// The uuid keeps repeated uploads of the same filename from colliding.
func objectPath(prefix, projectID, filename string) string {
	name := filepath.Base(filename)
	if name == "." || name == "/" || name == "" {
		name = "asset"
	}
	return fmt.Sprintf("%s/%s/%s-%s", prefix, projectID, uuid.NewString(), name)
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// copyCapped copies at most maxBytes and fails with ErrTooLarge when the
// source holds more.
func copyCapped(dst io.Writer, src io.Reader, maxBytes int64) error {
	n, err := io.Copy(dst, io.LimitReader(src, maxBytes+1))
	if err != nil {
		return fmt.Errorf("copy asset: %w", err)
	}
	if n > maxBytes {
		return ErrTooLarge
	}
	return nil
}

func checkSize(size int64) error {
	if size > MaxBytes {
		return ErrTooLarge
	}
	return nil
}
