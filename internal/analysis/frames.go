package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

// ErrDecode is returned when the media file cannot be decoded into frames.
var ErrDecode = errors.New("media decode failed")

// Frame is one sampled frame of an uploaded media asset. Pixel data is
// decoded lazily on first access and cached.
type Frame struct {
	// Index is the 0-based position in the sampled sequence.
	Index int

	path string
	img  image.Image
}

// Image returns the decoded pixels for the frame.
func (f *Frame) Image() (image.Image, error) {
	if f.img != nil {
		return f.img, nil
	}
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	f.img = img
	return img, nil
}

// FrameSeq is a sequence of sampled frames backed by a temp directory.
// Close releases the backing files.
type FrameSeq struct {
	Frames  []*Frame
	tempDir string
}

// Close removes the temp frame files. Safe to call more than once.
func (s *FrameSeq) Close() error {
	if s.tempDir == "" {
		return nil
	}
	dir := s.tempDir
	s.tempDir = ""
	return os.RemoveAll(dir)
}

// Len returns the number of frames in the sequence.
func (s *FrameSeq) Len() int { return len(s.Frames) }

// Extractor samples frames from uploaded media via ffmpeg. Images yield a
// single frame without shelling out.
type Extractor struct {
	ffmpegPath    string
	interval      int
	dedupDistance int
	logger        *zap.Logger
}

// NewExtractor creates a frame extractor. interval is the sampling stride in
// source frames. dedupDistance enables perceptual-hash dedup when > 0: a frame
// within that Hamming distance of the previously kept frame is dropped.
func NewExtractor(ffmpegPath string, interval, dedupDistance int, logger *zap.Logger) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if interval < 1 {
		interval = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{ffmpegPath: ffmpegPath, interval: interval, dedupDistance: dedupDistance, logger: logger}
}

// Extract samples frames from the media file at path.
// Returns ErrDecode when the file cannot be decoded or yields no frames.
func (e *Extractor) Extract(ctx context.Context, path string, kind models.MediaKind) (*FrameSeq, error) {
	if kind == models.MediaKindImage {
		return e.extractImage(path)
	}
	return e.extractVideo(ctx, path)
}

func (e *Extractor) extractImage(path string) (*FrameSeq, error) {
	frame := &Frame{Index: 0, path: path}
	if _, err := frame.Image(); err != nil {
		return nil, err
	}
	return &FrameSeq{Frames: []*Frame{frame}}, nil
}

func (e *Extractor) extractVideo(ctx context.Context, path string) (*FrameSeq, error) {
	tempDir, err := os.MkdirTemp("", "frames-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	pattern := filepath.Join(tempDir, "frame_%04d.jpg")
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vf", fmt.Sprintf("select=not(mod(n\\,%d))", e.interval),
		"-vsync", "vfr",
		"-q:v", "2",
		pattern,
	}
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.RemoveAll(tempDir)
		e.logger.Warn("ffmpeg frame extraction failed",
			zap.String("path", path), zap.String("stderr", stderr.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: ffmpeg: %v", ErrDecode, err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("read frame dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("%w: no frames produced", ErrDecode)
	}
	sort.Strings(names)

	seq := &FrameSeq{tempDir: tempDir}
	for i, name := range names {
		seq.Frames = append(seq.Frames, &Frame{Index: i, path: filepath.Join(tempDir, name)})
	}

	if e.dedupDistance > 0 {
		if err := e.dedup(seq); err != nil {
			e.logger.Warn("frame dedup failed, keeping full sequence", zap.Error(err))
		}
	}
	return seq, nil
}

// dedup drops frames perceptually close to the previously kept frame. Kept
// frames retain their sampled Index so timestamp offsets derived from it
// still point at the right spot in the source.
func (e *Extractor) dedup(seq *FrameSeq) error {
	var kept []*Frame
	var prev *goimagehash.ImageHash
	for _, frame := range seq.Frames {
		img, err := frame.Image()
		if err != nil {
			return err
		}
		small := resize.Resize(64, 64, img, resize.Bilinear)
		hash, err := goimagehash.PerceptionHash(small)
		if err != nil {
			return err
		}
		if prev != nil {
			dist, err := prev.Distance(hash)
			if err == nil && dist <= e.dedupDistance {
				continue
			}
		}
		prev = hash
		kept = append(kept, frame)
	}
	seq.Frames = kept
	return nil
}
