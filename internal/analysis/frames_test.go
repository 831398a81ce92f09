package analysis

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestExtractImageYieldsSingleFrame(t *testing.T) {
	path := writePNG(t, t.TempDir(), "still.png")
	e := NewExtractor("ffmpeg", 30, 0, nil)

	seq, err := e.Extract(context.Background(), path, models.MediaKindImage)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	defer seq.Close()

	if seq.Len() != 1 {
		t.Fatalf("Len = %d, want 1", seq.Len())
	}
	if seq.Frames[0].Index != 0 {
		t.Errorf("Index = %d, want 0", seq.Frames[0].Index)
	}
	img, err := seq.Frames[0].Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if img.Bounds().Dx() != 32 {
		t.Errorf("width = %d, want 32", img.Bounds().Dx())
	}
}

func TestExtractImageDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	e := NewExtractor("ffmpeg", 30, 0, nil)

	_, err := e.Extract(context.Background(), path, models.MediaKindImage)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestExtractImageMissingFile(t *testing.T) {
	e := NewExtractor("ffmpeg", 30, 0, nil)
	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.png"), models.MediaKindImage)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func solidFrame(index int, c color.RGBA) *Frame {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return &Frame{Index: index, img: img}
}

// quadrantFrame is a black frame with a white top-left quadrant, far from
// any solid frame in perceptual-hash space.
func quadrantFrame(index int) *Frame {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, 32, 32), image.White, image.Point{}, draw.Src)
	return &Frame{Index: index, img: img}
}

func TestDedupKeepsSampledIndexes(t *testing.T) {
	e := NewExtractor("ffmpeg", 30, 2, nil)
	grey := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	seq := &FrameSeq{Frames: []*Frame{
		solidFrame(0, grey),
		solidFrame(1, grey),
		quadrantFrame(2),
	}}

	if err := e.dedup(seq); err != nil {
		t.Fatalf("dedup: %v", err)
	}
	if seq.Len() != 2 {
		t.Fatalf("Len = %d, want 2", seq.Len())
	}
	if seq.Frames[0].Index != 0 {
		t.Errorf("first kept Index = %d, want 0", seq.Frames[0].Index)
	}
	// The duplicate at index 1 was dropped. The survivor keeps its sampled
	// index so offsets computed from it stay aligned with the source.
	if seq.Frames[1].Index != 2 {
		t.Errorf("second kept Index = %d, want 2", seq.Frames[1].Index)
	}
}

func TestFrameSeqCloseRemovesDir(t *testing.T) {
	dir, err := os.MkdirTemp("", "frames-*")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	writePNG(t, dir, "frame_0001.png")

	seq := &FrameSeq{tempDir: dir}
	if err := seq.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("temp dir still exists after Close")
	}
	// Second close is a no-op.
	if err := seq.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
