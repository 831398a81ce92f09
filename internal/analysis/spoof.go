package analysis

import "fmt"

const (
	spoofScaleMax = 256
	// spoofSharpness is the Laplacian variance of a typically sharp live
	// capture. Flat, low-texture frames (photos of photos, screens) fall
	// well below it.
	spoofSharpness    = 100.0
	spoofFacePresence = 0.02
)

// spoofDetector flags frames whose texture is too flat for a live capture.
// Confidence rises as the Laplacian variance falls below spoofSharpness.
type spoofDetector struct{}

func newSpoofDetector() *spoofDetector { return &spoofDetector{} }

func (d *spoofDetector) Name() string { return "spoof" }

func (d *spoofDetector) Analyze(frame *Frame) ([]Detection, error) {
	img, err := frame.Image()
	if err != nil {
		return nil, err
	}
	img = scaled(img, spoofScaleMax)

	if skinFraction(img, 0, 1) < spoofFacePresence {
		return nil, nil
	}

	gray := toGray(img)
	b := gray.Bounds()
	if b.Dx() < 3 || b.Dy() < 3 {
		return nil, nil
	}

	// 4-neighbour Laplacian, then variance of the response.
	var sum, sumSq float64
	n := 0
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			c := float64(gray.GrayAt(x, y).Y)
			lap := float64(gray.GrayAt(x-1, y).Y) + float64(gray.GrayAt(x+1, y).Y) +
				float64(gray.GrayAt(x, y-1).Y) + float64(gray.GrayAt(x, y+1).Y) - 4*c
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean

	conf := 1 - variance/spoofSharpness
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	if conf == 0 {
		return nil, nil
	}
	return []Detection{{
		Kind:       KindFaceSpoof,
		Confidence: conf,
		Message:    fmt.Sprintf("low texture variance %.1f suggests presented media", variance),
	}}, nil
}
