package assets

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestMemoryUploaderRoundTrip(t *testing.T) {
	uploader := NewMemoryUploader()

	data := []byte("fake image bytes")
	url, err := uploader.Upload(context.Background(), "proj-1", "logo.png", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if !strings.HasPrefix(url, "memory://assets/proj-1/") {
		t.Errorf("unexpected url %q", url)
	}
	if !strings.HasSuffix(url, "-logo.png") {
		t.Errorf("expected filename preserved in url, got %q", url)
	}

	got, ok := uploader.Get(strings.TrimPrefix(url, "memory://"))
	if !ok {
		t.Fatal("expected object stored")
	}
	if !bytes.Equal(got, data) {
		t.Error("stored bytes differ from uploaded bytes")
	}
}

func TestUploadUniquePaths(t *testing.T) {
	uploader := NewMemoryUploader()
	ctx := context.Background()

	first, err := uploader.Upload(ctx, "proj-1", "logo.png", strings.NewReader("a"), 1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	second, err := uploader.Upload(ctx, "proj-1", "logo.png", strings.NewReader("b"), 1)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if first == second {
		t.Error("expected unique paths for repeated filenames")
	}
}

func TestUploadDeclaredSizeTooLarge(t *testing.T) {
	uploader := NewMemoryUploader()

	_, err := uploader.Upload(context.Background(), "proj-1", "big.bin", strings.NewReader(""), MaxBytes+1)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestUploadActualSizeTooLarge(t *testing.T) {
	uploader := NewMemoryUploader()

	// Declared size is within the cap but the stream holds more.
	oversized := bytes.NewReader(make([]byte, MaxBytes+1))
	_, err := uploader.Upload(context.Background(), "proj-1", "big.bin", oversized, 100)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestObjectPathSanitizesFilename(t *testing.T) {
	path := objectPath("assets", "proj-1", "../../etc/passwd")
	if strings.Contains(path, "..") {
		t.Errorf("expected traversal stripped, got %q", path)
	}

	path = objectPath("assets", "proj-1", "")
	if !strings.HasSuffix(path, "-asset") {
		t.Errorf("expected placeholder name for empty filename, got %q", path)
	}
}

func TestContentType(t *testing.T) {
	if ct := contentType("photo.png"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if ct := contentType("mystery"); ct != "application/octet-stream" {
		t.Errorf("expected fallback content type, got %q", ct)
	}
}
