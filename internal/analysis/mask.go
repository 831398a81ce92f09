package analysis

import "fmt"

const (
	maskScaleMax = 256
	// maskBandTop is where the mouth/chin band starts, as a fraction of height.
	maskBandTop = 0.6
	// maskFacePresence is the minimum skin fraction in the upper image for the
	// detector to assume a face is in view at all.
	maskFacePresence = 0.02
)

// maskDetector estimates mask coverage from blue/white pixels in the lower
// face band. Confidence is the coverage fraction; low coverage means the
// person is likely unmasked.
type maskDetector struct{}

func newMaskDetector() *maskDetector { return &maskDetector{} }

func (d *maskDetector) Name() string { return "mask" }

func (d *maskDetector) Analyze(frame *Frame) ([]Detection, error) {
	img, err := frame.Image()
	if err != nil {
		return nil, err
	}
	img = scaled(img, maskScaleMax)

	if skinFraction(img, 0, maskBandTop) < maskFacePresence {
		return nil, nil
	}

	b := img.Bounds()
	y0 := b.Min.Y + int(float64(b.Dy())*maskBandTop)
	total, covered := 0, 0
	for y := y0; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			total++
			h, s, v := rgbToHSV(rgb8(img.At(x, y)))
			blue := h >= 160 && h <= 260 && s > 0.25 && v > 0.3
			white := s < 0.2 && v > 0.7
			if blue || white {
				covered++
			}
		}
	}
	if total == 0 {
		return nil, nil
	}
	coverage := float64(covered) / float64(total)
	return []Detection{{
		Kind:       KindMaskViolation,
		Confidence: coverage,
		Message:    fmt.Sprintf("mask coverage %.2f in lower face band", coverage),
	}}, nil
}
