package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestMedia(t *testing.T, maxBytes int64) *Media {
	t.Helper()
	m, err := NewMedia(t.TempDir(), maxBytes)
	if err != nil {
		t.Fatalf("NewMedia() error: %v", err)
	}
	return m
}

func TestSaveImage(t *testing.T) {
	m := newTestMedia(t, 1<<20)

	name, err := m.SaveImage(bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("SaveImage() error: %v", err)
	}
	if !strings.HasPrefix(name, "posts/") || !strings.HasSuffix(name, ".png") {
		t.Errorf("SaveImage() name = %q, want posts/<id>.png", name)
	}

	got, err := os.ReadFile(filepath.Join(m.Root(), name))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if !bytes.Equal(got, pngHeader) {
		t.Error("stored bytes differ from upload")
	}

	if err := m.Remove(name); err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(m.Root(), name)); !errors.Is(err, os.ErrNotExist) {
		t.Error("file still exists after Remove()")
	}
	if err := m.Remove(name); err != nil {
		t.Errorf("Remove() of a missing file = %v, want nil", err)
	}
}

func TestSaveImage_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		max     int64
		data    []byte
		wantErr error
	}{
		{"plain text", 1 << 20, []byte("just some text"), ErrNotImage},
		{"html", 1 << 20, []byte("<html><body>x</body></html>"), ErrNotImage},
		{"too large", 8, pngHeader, ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMedia(t, tt.max)
			_, err := m.SaveImage(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SaveImage() error = %v, want %v", err, tt.wantErr)
			}

			entries, _ := os.ReadDir(filepath.Join(m.Root(), "posts"))
			if len(entries) != 0 {
				t.Errorf("rejected upload left %d files behind", len(entries))
			}
		})
	}
}
