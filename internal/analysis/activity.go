package analysis

import (
	"fmt"
	"image"
)

const (
	activityScaleMax  = 160
	activityPixelDiff = 25 // grayscale delta for a pixel to count as motion
)

// activityDetector measures frame-to-frame motion. It is stateful: the first
// frame of a run only primes the baseline.
type activityDetector struct {
	threshold float64
	prev      *image.Gray
}

func newActivityDetector(threshold float64) *activityDetector {
	return &activityDetector{threshold: threshold}
}

func (d *activityDetector) Name() string { return "activity" }

func (d *activityDetector) Analyze(frame *Frame) ([]Detection, error) {
	img, err := frame.Image()
	if err != nil {
		return nil, err
	}
	gray := toGray(scaled(img, activityScaleMax))

	prev := d.prev
	d.prev = gray
	if prev == nil {
		return nil, nil
	}

	pb, cb := prev.Bounds(), gray.Bounds()
	if pb.Dx() != cb.Dx() || pb.Dy() != cb.Dy() {
		// Resolution changed mid-run; re-prime.
		return nil, nil
	}

	total, moved := 0, 0
	for y := 0; y < cb.Dy(); y++ {
		for x := 0; x < cb.Dx(); x++ {
			total++
			diff := int(gray.GrayAt(cb.Min.X+x, cb.Min.Y+y).Y) - int(prev.GrayAt(pb.Min.X+x, pb.Min.Y+y).Y)
			if diff < 0 {
				diff = -diff
			}
			if diff > activityPixelDiff {
				moved++
			}
		}
	}
	if total == 0 {
		return nil, nil
	}
	fraction := float64(moved) / float64(total)
	if fraction <= d.threshold {
		return nil, nil
	}
	return []Detection{{
		Kind:       KindSuspiciousActivity,
		Confidence: fraction,
		Message:    fmt.Sprintf("motion across %.0f%% of the frame", fraction*100),
	}}, nil
}
