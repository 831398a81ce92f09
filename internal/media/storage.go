package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrBadExtension is returned for uploads with an unsupported extension.
	ErrBadExtension = errors.New("unsupported file extension")
	// ErrOutsideRoot is returned when a stored path escapes the upload root.
	ErrOutsideRoot = errors.New("path escapes upload directory")
)

var (
	videoExtensions = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true}
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true}
)

// VideoExtension reports whether ext (with dot, any case) is an accepted video type.
func VideoExtension(ext string) bool { return videoExtensions[strings.ToLower(ext)] }

// ImageExtension reports whether ext (with dot, any case) is an accepted image type.
func ImageExtension(ext string) bool { return imageExtensions[strings.ToLower(ext)] }

// Storage writes uploaded media under a single root directory. File names are
// generated, never taken from the client, so stored paths cannot collide or
// traverse.
type Storage struct {
	root string
}

// NewStorage creates a local media store rooted at dir.
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		dir = "uploads"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{root: abs}, nil
}

// Save streams src into the store and returns the absolute stored path.
// The on-disk name is id + the original extension.
func (s *Storage) Save(id uuid.UUID, originalName string, src io.Reader) (string, int64, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	path := filepath.Join(s.root, id.String()+ext)

	dst, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create media file: %w", err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write media file: %w", err)
	}
	return path, n, nil
}

// Open returns a reader for a stored path after verifying it is inside the
// root. Guards against rows pointing outside the store.
func (s *Storage) Open(path string) (*os.File, error) {
	clean, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	if clean != s.root && !strings.HasPrefix(clean, s.root+string(filepath.Separator)) {
		return nil, ErrOutsideRoot
	}
	return os.Open(clean)
}

// Remove deletes a stored file, verifying it lives under the root first.
func (s *Storage) Remove(path string) error {
	clean, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(clean, s.root+string(filepath.Separator)) {
		return ErrOutsideRoot
	}
	return os.Remove(clean)
}
