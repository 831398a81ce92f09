package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/asmita-kamble/smart-cctv-app/internal/media"
	"github.com/asmita-kamble/smart-cctv-app/pkg/queue"
	"github.com/asmita-kamble/smart-cctv-app/pkg/storage"
)

// ArchiveProcessor processes media archive jobs: stream the stored file to
// S3 and record the archive URL on the asset.
type ArchiveProcessor struct {
	mediaRepo *media.Repository
	store     *media.Storage
	s3        *storage.S3
	queue     *queue.Queue
	logger    *zap.Logger
}

// NewArchiveProcessor creates a media archive processor.
func NewArchiveProcessor(mediaRepo *media.Repository, store *media.Storage, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *ArchiveProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveProcessor{mediaRepo: mediaRepo, store: store, s3: s3, queue: q, logger: logger}
}

// Process executes one media archive job.
func (p *ArchiveProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeMediaArchive {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.MediaArchivePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	asset, err := p.mediaRepo.GetByID(ctx, payload.MediaID)
	if err != nil {
		return fmt.Errorf("media asset not found: %s", payload.MediaID)
	}
	if asset.ArchiveURL != "" {
		p.logger.Info("media already archived", zap.String("media_id", asset.ID.String()))
		return nil
	}

	file, err := p.store.Open(asset.StoragePath)
	if err != nil {
		return fmt.Errorf("open media file: %w", err)
	}
	defer file.Close()

	contentType := asset.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(asset.OriginalName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := storage.MediaKey(asset.CameraID.String(), asset.ID.String(), asset.OriginalName)

	// Stream upload to S3, no full buffer.
	s3URL, err := p.s3.Upload(ctx, p.s3.ArchiveBucket(), key, contentType, file, asset.SizeBytes)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	if err := p.mediaRepo.SetArchiveURL(ctx, asset.ID, s3URL); err != nil {
		p.logger.Error("record archive url failed", zap.Error(err), zap.String("media_id", asset.ID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("media archived", zap.String("media_id", asset.ID.String()), zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ArchiveProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("archive worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
