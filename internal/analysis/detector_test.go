package analysis

import (
	"image"
	"image/color"
	"math/rand"
	"testing"
)

var (
	skinTone  = color.RGBA{R: 210, G: 150, B: 120, A: 255}
	blueCloth = color.RGBA{R: 60, G: 90, B: 200, A: 255}
	darkBG    = color.RGBA{R: 20, G: 20, B: 20, A: 255}
)

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c)
		}
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.Set(x, y, c)
		}
	}
}

// addNoise perturbs pixel brightness so the frame has live-capture texture.
func addNoise(img *image.RGBA, seed int64, amp int) {
	rng := rand.New(rand.NewSource(seed))
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			d := rng.Intn(2*amp+1) - amp
			clamp := func(v int) uint8 {
				if v < 0 {
					return 0
				}
				if v > 255 {
					return 255
				}
				return uint8(v)
			}
			img.Set(x, y, color.RGBA{
				R: clamp(int(r>>8) + d),
				G: clamp(int(g>>8) + d),
				B: clamp(int(bl>>8) + d),
				A: 255,
			})
		}
	}
}

func frameOf(img image.Image) *Frame { return &Frame{img: img} }

func TestFaceDetectorFindsSkinRegion(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	fill(img, darkBG)
	fillRect(img, 50, 30, 150, 130, skinTone)

	dets, err := newFaceDetector().Analyze(frameOf(img))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(dets) == 0 {
		t.Fatal("expected a face detection for a large skin region")
	}
	if dets[0].Kind != KindFaceDetected {
		t.Errorf("kind = %s, want %s", dets[0].Kind, KindFaceDetected)
	}
	if dets[0].Confidence <= 0 {
		t.Errorf("confidence = %f, want > 0", dets[0].Confidence)
	}
}

func TestFaceDetectorQuietOnEmptyScene(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	fill(img, darkBG)

	dets, err := newFaceDetector().Analyze(frameOf(img))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("expected no detections on an empty scene, got %d", len(dets))
	}
}

func TestMaskDetectorCoverage(t *testing.T) {
	t.Run("uncovered lower face reads as low coverage", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 200, 200))
		fill(img, darkBG)
		// Skin in the upper part and across the mouth band: no mask.
		fillRect(img, 50, 20, 150, 200, skinTone)

		dets, err := newMaskDetector().Analyze(frameOf(img))
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if len(dets) != 1 {
			t.Fatalf("expected one mask detection, got %d", len(dets))
		}
		if dets[0].Confidence >= 0.5 {
			t.Errorf("coverage = %f, want < 0.5 for an uncovered face", dets[0].Confidence)
		}
	})

	t.Run("blue covered band reads as high coverage", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 200, 200))
		fill(img, darkBG)
		fillRect(img, 50, 20, 150, 120, skinTone)
		// Blue cloth over the whole lower band.
		fillRect(img, 0, 120, 200, 200, blueCloth)

		dets, err := newMaskDetector().Analyze(frameOf(img))
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if len(dets) != 1 {
			t.Fatalf("expected one mask detection, got %d", len(dets))
		}
		if dets[0].Confidence < 0.5 {
			t.Errorf("coverage = %f, want >= 0.5 for a covered band", dets[0].Confidence)
		}
	})

	t.Run("no face means no detection", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 200, 200))
		fill(img, darkBG)

		dets, err := newMaskDetector().Analyze(frameOf(img))
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if len(dets) != 0 {
			t.Errorf("expected no detection without a face, got %d", len(dets))
		}
	})
}

func TestSpoofDetectorFlagsFlatTexture(t *testing.T) {
	flat := image.NewRGBA(image.Rect(0, 0, 200, 200))
	fill(flat, skinTone)

	dets, err := newSpoofDetector().Analyze(frameOf(flat))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("expected a spoof detection for a perfectly flat frame, got %d", len(dets))
	}
	if dets[0].Confidence <= 0.6 {
		t.Errorf("confidence = %f, want > 0.6 for zero texture", dets[0].Confidence)
	}

	textured := image.NewRGBA(image.Rect(0, 0, 200, 200))
	fill(textured, skinTone)
	addNoise(textured, 1, 40)

	dets, err = newSpoofDetector().Analyze(frameOf(textured))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, d := range dets {
		if d.Confidence > 0.6 {
			t.Errorf("noisy frame scored %f, should stay at or below the alert band", d.Confidence)
		}
	}
}

func TestActivityDetectorNeedsMotion(t *testing.T) {
	det := newActivityDetector(0.05)

	still := image.NewRGBA(image.Rect(0, 0, 160, 160))
	fill(still, darkBG)
	fillRect(still, 10, 10, 50, 50, skinTone)

	// First frame only primes the baseline.
	dets, err := det.Analyze(frameOf(still))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(dets) != 0 {
		t.Fatal("first frame must not produce motion")
	}

	// Identical frame: no motion.
	dets, err = det.Analyze(frameOf(still))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("identical frame produced %d detections", len(dets))
	}

	// Block moved across the frame: motion fraction above threshold.
	moved := image.NewRGBA(image.Rect(0, 0, 160, 160))
	fill(moved, darkBG)
	fillRect(moved, 100, 100, 140, 140, skinTone)

	dets, err = det.Analyze(frameOf(moved))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("expected a motion detection, got %d", len(dets))
	}
	if dets[0].Kind != KindSuspiciousActivity {
		t.Errorf("kind = %s, want %s", dets[0].Kind, KindSuspiciousActivity)
	}
	if dets[0].Confidence <= 0.05 {
		t.Errorf("confidence = %f, want above threshold", dets[0].Confidence)
	}
}

func TestDetectorSetOrder(t *testing.T) {
	set := NewDetectorSet(0.5)
	want := []string{"face", "mask", "spoof", "activity"}
	if len(set) != len(want) {
		t.Fatalf("detector set size = %d, want %d", len(set), len(want))
	}
	for i, d := range set {
		if d.Name() != want[i] {
			t.Errorf("detector[%d] = %s, want %s", i, d.Name(), want[i])
		}
	}
}
