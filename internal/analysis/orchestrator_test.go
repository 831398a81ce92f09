package analysis

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

type stubFrames struct {
	frames int
	err    error
}

func (s *stubFrames) Extract(ctx context.Context, path string, kind models.MediaKind) (*FrameSeq, error) {
	if s.err != nil {
		return nil, s.err
	}
	seq := &FrameSeq{}
	for i := 0; i < s.frames; i++ {
		seq.Frames = append(seq.Frames, &Frame{Index: i, img: image.NewRGBA(image.Rect(0, 0, 1, 1))})
	}
	return seq, nil
}

type stubDetector struct {
	name    string
	analyze func(*Frame) ([]Detection, error)
}

func (d *stubDetector) Name() string { return d.name }
func (d *stubDetector) Analyze(f *Frame) ([]Detection, error) {
	return d.analyze(f)
}

type memSink struct {
	mu          sync.Mutex
	alerts      []*models.Alert
	activities  []*models.Activity
	alertErr    error
	activityErr error
}

func (s *memSink) CreateAlert(ctx context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alertErr != nil {
		return s.alertErr
	}
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *memSink) CreateActivity(ctx context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activityErr != nil {
		return s.activityErr
	}
	s.activities = append(s.activities, a)
	return nil
}

func testAssets() (*models.Camera, *models.MediaAsset) {
	cam := &models.Camera{ID: uuid.New()}
	asset := &models.MediaAsset{ID: uuid.New(), CameraID: cam.ID, Kind: models.MediaKindVideo, StoragePath: "x.mp4"}
	return cam, asset
}

func newTestPipeline(frames FrameProvider, sink Sink, detectors ...Detector) *Pipeline {
	p := NewPipeline(frames, sink, Options{MaskThreshold: 0.5, SpoofThreshold: 0.6, ActivityThreshold: 0.5, Concurrency: 2}, nil)
	p.SetDetectorFactory(func() []Detector { return detectors })
	return p
}

func TestAnalyzeAlertDedupAcrossFrames(t *testing.T) {
	// Mask confidence 0.3 on frames 2 and 5, a higher qualifying 0.4 on 5.
	// One alert expected, first-seen frame recorded, max confidence kept.
	det := &stubDetector{name: "mask", analyze: func(f *Frame) ([]Detection, error) {
		switch f.Index {
		case 2:
			return []Detection{{Kind: KindMaskViolation, Confidence: 0.3, Message: "first"}}, nil
		case 5:
			return []Detection{{Kind: KindMaskViolation, Confidence: 0.4, Message: "second"}}, nil
		}
		return []Detection{{Kind: KindFaceDetected, Confidence: 0.9, Message: "face"}}, nil
	}}
	sink := &memSink{}
	p := newTestPipeline(&stubFrames{frames: 10}, sink, det)

	cam, asset := testAssets()
	res, err := p.Analyze(context.Background(), cam, asset)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.FramesAnalyzed != 10 {
		t.Errorf("FramesAnalyzed = %d, want 10", res.FramesAnalyzed)
	}
	if res.ActivitiesCreated != 10 {
		t.Errorf("ActivitiesCreated = %d, want 10", res.ActivitiesCreated)
	}
	if res.AlertsCreated != 1 {
		t.Fatalf("AlertsCreated = %d, want 1", res.AlertsCreated)
	}
	alert := sink.alerts[0]
	if alert.AlertType != models.AlertTypeMaskViolation {
		t.Errorf("alert type = %s, want %s", alert.AlertType, models.AlertTypeMaskViolation)
	}
	if alert.Severity != models.SeverityMedium {
		t.Errorf("severity = %s, want medium", alert.Severity)
	}
	if alert.Message != "first" {
		t.Errorf("message = %q, want first-seen message", alert.Message)
	}
	if alert.CameraID != cam.ID {
		t.Errorf("camera id mismatch")
	}
}

func TestAnalyzeDetectorErrorsAreCounted(t *testing.T) {
	boom := errors.New("boom")
	failing := &stubDetector{name: "face", analyze: func(*Frame) ([]Detection, error) { return nil, boom }}
	working := &stubDetector{name: "activity", analyze: func(*Frame) ([]Detection, error) {
		return []Detection{{Kind: KindSuspiciousActivity, Confidence: 0.8, Message: "motion"}}, nil
	}}
	sink := &memSink{}
	p := newTestPipeline(&stubFrames{frames: 3}, sink, failing, working)

	cam, asset := testAssets()
	res, err := p.Analyze(context.Background(), cam, asset)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.DetectorFailures != 3 {
		t.Errorf("DetectorFailures = %d, want 3", res.DetectorFailures)
	}
	if res.ActivitiesCreated != 3 {
		t.Errorf("ActivitiesCreated = %d, want 3", res.ActivitiesCreated)
	}
	if res.AlertsCreated != 1 {
		t.Errorf("AlertsCreated = %d, want 1", res.AlertsCreated)
	}
	if sink.alerts[0].Severity != models.SeverityHigh {
		t.Errorf("activity alert severity = %s, want high", sink.alerts[0].Severity)
	}
}

func TestAnalyzeFallbackAlert(t *testing.T) {
	quiet := &stubDetector{name: "face", analyze: func(*Frame) ([]Detection, error) { return nil, nil }}
	sink := &memSink{}
	p := newTestPipeline(&stubFrames{frames: 4}, sink, quiet)

	cam, asset := testAssets()
	res, err := p.Analyze(context.Background(), cam, asset)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.AlertsCreated != 1 {
		t.Fatalf("AlertsCreated = %d, want 1 fallback", res.AlertsCreated)
	}
	alert := sink.alerts[0]
	if alert.AlertType != models.AlertTypeMediaProcessed {
		t.Errorf("alert type = %s, want %s", alert.AlertType, models.AlertTypeMediaProcessed)
	}
	if alert.Severity != models.SeverityLow {
		t.Errorf("severity = %s, want low", alert.Severity)
	}
}

func TestAnalyzeNoFallbackWhenAlertQualified(t *testing.T) {
	det := &stubDetector{name: "spoof", analyze: func(f *Frame) ([]Detection, error) {
		if f.Index == 0 {
			return []Detection{{Kind: KindFaceSpoof, Confidence: 0.9, Message: "flat"}}, nil
		}
		return nil, nil
	}}
	sink := &memSink{}
	p := newTestPipeline(&stubFrames{frames: 2}, sink, det)

	cam, asset := testAssets()
	res, err := p.Analyze(context.Background(), cam, asset)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.AlertsCreated != 1 {
		t.Fatalf("AlertsCreated = %d, want 1", res.AlertsCreated)
	}
	if sink.alerts[0].AlertType != models.AlertTypeFaceSpoof {
		t.Errorf("alert type = %s, want %s", sink.alerts[0].AlertType, models.AlertTypeFaceSpoof)
	}
}

func TestAnalyzeSubThresholdSpoofDoesNotAlert(t *testing.T) {
	det := &stubDetector{name: "spoof", analyze: func(*Frame) ([]Detection, error) {
		return []Detection{{Kind: KindFaceSpoof, Confidence: 0.5, Message: "borderline"}}, nil
	}}
	sink := &memSink{}
	p := newTestPipeline(&stubFrames{frames: 1}, sink, det)

	cam, asset := testAssets()
	res, err := p.Analyze(context.Background(), cam, asset)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// Only the fallback fires; the sub-threshold spoof still logs an activity.
	if res.ActivitiesCreated != 1 {
		t.Errorf("ActivitiesCreated = %d, want 1", res.ActivitiesCreated)
	}
	if len(sink.alerts) != 1 || sink.alerts[0].AlertType != models.AlertTypeMediaProcessed {
		t.Errorf("expected only the fallback alert, got %+v", sink.alerts)
	}
}

func TestAnalyzeSinkFailuresDoNotAbort(t *testing.T) {
	det := &stubDetector{name: "activity", analyze: func(*Frame) ([]Detection, error) {
		return []Detection{{Kind: KindSuspiciousActivity, Confidence: 0.9, Message: "motion"}}, nil
	}}
	sink := &memSink{activityErr: errors.New("db down")}
	p := newTestPipeline(&stubFrames{frames: 5}, sink, det)

	cam, asset := testAssets()
	res, err := p.Analyze(context.Background(), cam, asset)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.SinkFailures != 5 {
		t.Errorf("SinkFailures = %d, want 5", res.SinkFailures)
	}
	if res.ActivitiesCreated != 0 {
		t.Errorf("ActivitiesCreated = %d, want 0", res.ActivitiesCreated)
	}
	if res.AlertsCreated != 1 {
		t.Errorf("AlertsCreated = %d, want the activity alert", res.AlertsCreated)
	}
}

func TestAnalyzeDecodeErrorAborts(t *testing.T) {
	sink := &memSink{}
	p := newTestPipeline(&stubFrames{err: ErrDecode}, sink)

	cam, asset := testAssets()
	_, err := p.Analyze(context.Background(), cam, asset)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if len(sink.alerts) != 0 || len(sink.activities) != 0 {
		t.Errorf("sink should be untouched on decode failure")
	}
}

func TestAnalyzeMissingRows(t *testing.T) {
	sink := &memSink{}
	p := newTestPipeline(&stubFrames{frames: 1}, sink)

	cam, asset := testAssets()
	if _, err := p.Analyze(context.Background(), cam, nil); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("nil asset err = %v, want ErrAssetNotFound", err)
	}
	if _, err := p.Analyze(context.Background(), nil, asset); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("nil camera err = %v, want ErrCameraNotFound", err)
	}
}
