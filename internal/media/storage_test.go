package media

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestStorageSaveOpenRoundTrip(t *testing.T) {
	store, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	id := uuid.New()
	path, size, err := store.Save(id, "clip.MP4", strings.NewReader("video bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("video bytes")) {
		t.Errorf("size = %d, want %d", size, len("video bytes"))
	}
	if got := filepath.Base(path); got != id.String()+".mp4" {
		t.Errorf("stored name = %q, want %q", got, id.String()+".mp4")
	}

	f, err := store.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "video bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestStorageOpenRejectsOutsideRoot(t *testing.T) {
	store, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	for _, path := range []string{
		"/etc/passwd",
		filepath.Join(store.root, "..", "escape.mp4"),
	} {
		if _, err := store.Open(path); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Open(%q): err = %v, want ErrOutsideRoot", path, err)
		}
	}
}

func TestStorageRemove(t *testing.T) {
	store, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	path, _, err := store.Save(uuid.New(), "a.jpg", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := store.Remove("/etc/passwd"); !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("Remove outside root: err = %v, want ErrOutsideRoot", err)
	}
}

func TestExtensionPredicates(t *testing.T) {
	cases := []struct {
		ext   string
		video bool
		image bool
	}{
		{".mp4", true, false},
		{".MOV", true, false},
		{".webm", true, false},
		{".jpg", false, true},
		{".PNG", false, true},
		{".exe", false, false},
		{"", false, false},
	}
	for _, tc := range cases {
		if got := VideoExtension(tc.ext); got != tc.video {
			t.Errorf("VideoExtension(%q) = %v, want %v", tc.ext, got, tc.video)
		}
		if got := ImageExtension(tc.ext); got != tc.image {
			t.Errorf("ImageExtension(%q) = %v, want %v", tc.ext, got, tc.image)
		}
	}
}
