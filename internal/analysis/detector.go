package analysis

import (
	"image"

	"github.com/nfnt/resize"
)

// Detection kinds. These double as activity types on the observation log.
const (
	KindFaceDetected       = "face_detected"
	KindMaskViolation      = "mask_violation"
	KindFaceSpoof          = "face_spoof"
	KindSuspiciousActivity = "suspicious_activity"
)

// Detection is a single detector hit on one frame.
type Detection struct {
	Kind       string
	Confidence float64
	Message    string
}

// Detector inspects a single frame. Implementations may keep state across
// frames of one run (e.g. motion needs the previous frame), so a fresh
// detector set is built per run.
type Detector interface {
	Name() string
	Analyze(frame *Frame) ([]Detection, error)
}

// NewDetectorSet builds a fresh ordered detector set for one analysis run.
// The order is fixed: face, mask, spoof, activity. activityThreshold is the
// motion fraction below which the activity detector stays silent.
func NewDetectorSet(activityThreshold float64) []Detector {
	return []Detector{
		newFaceDetector(),
		newMaskDetector(),
		newSpoofDetector(),
		newActivityDetector(activityThreshold),
	}
}

// scaled returns the image downsampled so its longer side is at most max.
// Keeps detector cost bounded on large uploads.
func scaled(img image.Image, max uint) image.Image {
	b := img.Bounds()
	w, h := uint(b.Dx()), uint(b.Dy())
	if w <= max && h <= max {
		return img
	}
	if w >= h {
		return resize.Resize(max, 0, img, resize.Bilinear)
	}
	return resize.Resize(0, max, img, resize.Bilinear)
}
