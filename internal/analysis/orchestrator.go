package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

var (
	// ErrAssetNotFound is returned when the media asset does not exist.
	ErrAssetNotFound = errors.New("media asset not found")
	// ErrCameraNotFound is returned when the asset's camera does not exist.
	ErrCameraNotFound = errors.New("camera not found")
)

// Result summarises one analysis run.
type Result struct {
	AlertsCreated     int `json:"alerts_created"`
	ActivitiesCreated int `json:"activities_created"`
	FramesAnalyzed    int `json:"frames_analyzed"`
	DetectorFailures  int `json:"detector_failures"`
	SinkFailures      int `json:"sink_failures"`
}

// Sink receives the alerts and activities a run produces. Implemented by the
// alert and activity repositories, optionally wrapped for live broadcast.
type Sink interface {
	CreateAlert(ctx context.Context, a *models.Alert) error
	CreateActivity(ctx context.Context, a *models.Activity) error
}

// FrameProvider samples frames from a media file.
type FrameProvider interface {
	Extract(ctx context.Context, path string, kind models.MediaKind) (*FrameSeq, error)
}

// Options are the tunables for a pipeline.
type Options struct {
	MaskThreshold     float64 // mask coverage below this is a violation
	SpoofThreshold    float64 // spoof confidence above this raises an alert
	ActivityThreshold float64 // motion fraction the activity detector needs
	Concurrency       int64   // max concurrent analysis runs
	FrameInterval     int     // sampling stride, for frame-to-timestamp mapping
	NominalFPS        int     // assumed source frame rate, for frame-to-timestamp mapping
}

// Pipeline runs the detector set over uploaded media and writes the
// resulting alerts and activities through the sink.
type Pipeline struct {
	frames       FrameProvider
	sink         Sink
	newDetectors func() []Detector
	sem          *semaphore.Weighted
	opts         Options
	logger       *zap.Logger
}

// NewPipeline creates an analysis pipeline.
func NewPipeline(frames FrameProvider, sink Sink, opts Options, logger *zap.Logger) *Pipeline {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		frames: frames,
		sink:   sink,
		sem:    semaphore.NewWeighted(opts.Concurrency),
		opts:   opts,
		logger: logger,
	}
	p.newDetectors = func() []Detector { return NewDetectorSet(opts.ActivityThreshold) }
	return p
}

// SetDetectorFactory overrides the detector set construction. Used by tests
// and callers that bring their own detectors.
func (p *Pipeline) SetDetectorFactory(f func() []Detector) {
	p.newDetectors = f
}

// frameOffset maps a sampled frame index to seconds since the start of the
// source video. Zero when the sampling parameters are not configured.
func (p *Pipeline) frameOffset(index int) float64 {
	if p.opts.FrameInterval < 1 || p.opts.NominalFPS < 1 {
		return 0
	}
	return float64(index*p.opts.FrameInterval) / float64(p.opts.NominalFPS)
}

// pendingAlert aggregates qualifying detections of one type across a run.
type pendingAlert struct {
	severity   string
	message    string
	firstFrame int
	maxConf    float64
}

// Analyze runs the full detector set over the asset's frames. Detector and
// sink failures are counted, not fatal; only decode failures and missing
// rows abort the run.
func (p *Pipeline) Analyze(ctx context.Context, camera *models.Camera, asset *models.MediaAsset) (*Result, error) {
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	if camera == nil {
		return nil, ErrCameraNotFound
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire analysis slot: %w", err)
	}
	defer p.sem.Release(1)

	seq, err := p.frames.Extract(ctx, asset.StoragePath, asset.Kind)
	if err != nil {
		return nil, err
	}
	defer seq.Close()

	p.logger.Info("analysis run started",
		zap.String("media_id", asset.ID.String()),
		zap.String("camera_id", camera.ID.String()),
		zap.Int("frames", seq.Len()))

	res := &Result{}
	detectors := p.newDetectors()
	pending := make(map[string]*pendingAlert)

	for _, frame := range seq.Frames {
		res.FramesAnalyzed++
		for _, det := range detectors {
			detections, err := det.Analyze(frame)
			if err != nil {
				res.DetectorFailures++
				p.logger.Warn("detector failed",
					zap.String("detector", det.Name()),
					zap.Int("frame", frame.Index),
					zap.Error(err))
				continue
			}
			for _, hit := range detections {
				p.recordActivity(ctx, camera, asset, frame, hit, res)
				p.qualify(frame, hit, pending)
			}
		}
	}

	// Aggregation: one alert per type, first-seen message, max confidence.
	for alertType, pa := range pending {
		meta, _ := json.Marshal(map[string]interface{}{
			"media_id":      asset.ID,
			"frame":         pa.firstFrame,
			"ts_offset_sec": p.frameOffset(pa.firstFrame),
			"confidence":    pa.maxConf,
		})
		alert := &models.Alert{
			CameraID:  camera.ID,
			AlertType: alertType,
			Severity:  pa.severity,
			Message:   pa.message,
			Metadata:  meta,
		}
		if err := p.sink.CreateAlert(ctx, alert); err != nil {
			res.SinkFailures++
			p.logger.Warn("alert write failed", zap.String("alert_type", alertType), zap.Error(err))
			continue
		}
		res.AlertsCreated++
	}

	// Nothing qualified but media was readable: leave an informational trace.
	if res.FramesAnalyzed >= 1 && len(pending) == 0 {
		meta, _ := json.Marshal(map[string]interface{}{
			"media_id": asset.ID,
			"frames":   res.FramesAnalyzed,
		})
		alert := &models.Alert{
			CameraID:  camera.ID,
			AlertType: models.AlertTypeMediaProcessed,
			Severity:  models.SeverityLow,
			Message:   fmt.Sprintf("media processed, %d frames analyzed, no findings", res.FramesAnalyzed),
			Metadata:  meta,
		}
		if err := p.sink.CreateAlert(ctx, alert); err != nil {
			res.SinkFailures++
			p.logger.Warn("fallback alert write failed", zap.Error(err))
		} else {
			res.AlertsCreated++
		}
	}

	p.logger.Info("analysis run completed",
		zap.String("media_id", asset.ID.String()),
		zap.Int("frames_analyzed", res.FramesAnalyzed),
		zap.Int("alerts_created", res.AlertsCreated),
		zap.Int("activities_created", res.ActivitiesCreated),
		zap.Int("detector_failures", res.DetectorFailures),
		zap.Int("sink_failures", res.SinkFailures))
	return res, nil
}

func (p *Pipeline) recordActivity(ctx context.Context, camera *models.Camera, asset *models.MediaAsset, frame *Frame, hit Detection, res *Result) {
	meta, _ := json.Marshal(map[string]interface{}{
		"media_id":      asset.ID,
		"frame":         frame.Index,
		"ts_offset_sec": p.frameOffset(frame.Index),
		"detector":      hit.Kind,
	})
	activity := &models.Activity{
		CameraID:        camera.ID,
		ActivityType:    hit.Kind,
		Description:     hit.Message,
		ConfidenceScore: hit.Confidence,
		Metadata:        meta,
	}
	if err := p.sink.CreateActivity(ctx, activity); err != nil {
		res.SinkFailures++
		p.logger.Warn("activity write failed", zap.String("type", hit.Kind), zap.Error(err))
		return
	}
	res.ActivitiesCreated++
}

// qualify maps a detection to its alert rule and folds it into the pending
// set. First qualifying detection fixes message and frame, later ones only
// raise the recorded confidence.
func (p *Pipeline) qualify(frame *Frame, hit Detection, pending map[string]*pendingAlert) {
	var alertType, severity string
	switch hit.Kind {
	case KindMaskViolation:
		if hit.Confidence >= p.opts.MaskThreshold {
			return
		}
		alertType, severity = models.AlertTypeMaskViolation, models.SeverityMedium
	case KindFaceSpoof:
		if hit.Confidence <= p.opts.SpoofThreshold {
			return
		}
		alertType, severity = models.AlertTypeFaceSpoof, models.SeverityHigh
	case KindSuspiciousActivity:
		// The detector already applies the motion threshold.
		alertType, severity = models.AlertTypeSuspiciousActivity, models.SeverityHigh
	default:
		return
	}

	pa, ok := pending[alertType]
	if !ok {
		pending[alertType] = &pendingAlert{
			severity:   severity,
			message:    hit.Message,
			firstFrame: frame.Index,
			maxConf:    hit.Confidence,
		}
		return
	}
	if hit.Confidence > pa.maxConf {
		pa.maxConf = hit.Confidence
	}
}
