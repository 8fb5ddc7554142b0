// Package storage saves uploaded post images to the media directory.
//
// Files are named by a fresh xid plus an extension derived from the sniffed
// content type, never from the client's filename:
//
//	posts/cv37rs3pp9olc6atsptg.png
//
// The returned name is what Post.Image stores; /media/{name} serves it.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/xid"
)

// ErrNotImage is returned when an upload is not one of the accepted image
// types.
var ErrNotImage = errors.New("storage: upload is not a supported image")

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("storage: upload is too large")

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

const subdir = "posts"

// Media writes images under a root directory.
type Media struct {
	root     string
	maxBytes int64
}

// NewMedia creates the root directory if needed.
func NewMedia(root string, maxBytes int64) (*Media, error) {
	if err := os.MkdirAll(filepath.Join(root, subdir), 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating media dir: %w", err)
	}
	return &Media{root: root, maxBytes: maxBytes}, nil
}

// Root is the directory served under /media/.
func (m *Media) Root() string {
	return m.root
}

// SaveImage stores the image read from r and returns its name relative to
// the media root.
func (m *Media) SaveImage(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, m.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("storage: reading upload: %w", err)
	}
	if int64(len(data)) > m.maxBytes {
		return "", ErrTooLarge
	}

	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrNotImage
	}

	name := filepath.ToSlash(filepath.Join(subdir, xid.New().String()+ext))
	dst := filepath.Join(m.root, filepath.FromSlash(name))

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: creating %s: %w", name, err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(dst)
		return "", fmt.Errorf("storage: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("storage: closing %s: %w", name, err)
	}
	return name, nil
}

// Remove deletes a stored image. Missing files are not an error.
func (m *Media) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(m.root, filepath.FromSlash(filepath.Clean("/"+name))))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: removing %s: %w", name, err)
	}
	return nil
}
