package media

import (
	"context"
	"errors"
	"mime/multipart"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asmita-kamble/smart-cctv-app/internal/analysis"
	"github.com/asmita-kamble/smart-cctv-app/internal/middleware"
	"github.com/asmita-kamble/smart-cctv-app/internal/models"
	"github.com/asmita-kamble/smart-cctv-app/pkg/queue"
	"github.com/asmita-kamble/smart-cctv-app/pkg/response"
	"github.com/asmita-kamble/smart-cctv-app/pkg/storage"
)

// CameraGetter loads cameras for upload validation.
type CameraGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Camera, error)
}

// Archiver enqueues archive jobs. Satisfied by the Redis queue; nil disables
// archiving.
type Archiver interface {
	EnqueueMediaArchive(ctx context.Context, payload queue.MediaArchivePayload) error
}

// ArchiveSigner produces time-limited download URLs for archived media.
// Satisfied by the S3 store; nil disables archive downloads.
type ArchiveSigner interface {
	PresignArchiveDownload(ctx context.Context, key string) (string, error)
}

// UploadResponse is the JSON shape returned after a successful upload.
type UploadResponse struct {
	Media    *models.MediaAsset `json:"media"`
	Analysis *analysis.Result   `json:"analysis"`
}

// Handler handles media upload and serving endpoints.
type Handler struct {
	repo     *Repository
	store    *Storage
	cameras  CameraGetter
	pipeline *analysis.Pipeline
	archiver Archiver
	signer   ArchiveSigner
	maxBytes int64
	logger   *zap.Logger
}

// NewHandler creates a media handler.
func NewHandler(repo *Repository, store *Storage, cameras CameraGetter, pipeline *analysis.Pipeline, archiver Archiver, maxBytes int64, logger *zap.Logger) *Handler {
	return &Handler{
		repo:     repo,
		store:    store,
		cameras:  cameras,
		pipeline: pipeline,
		archiver: archiver,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// SetArchiveSigner enables the archive download endpoint.
func (h *Handler) SetArchiveSigner(s ArchiveSigner) { h.signer = s }

// Upload handles POST /media/upload (video files).
func (h *Handler) Upload(c *gin.Context) {
	h.upload(c, models.MediaKindVideo, VideoExtension)
}

// UploadImage handles POST /media/upload-image.
func (h *Handler) UploadImage(c *gin.Context) {
	h.upload(c, models.MediaKindImage, ImageExtension)
}

func (h *Handler) upload(c *gin.Context, kind models.MediaKind, allowed func(string) bool) {
	cameraID, err := uuid.Parse(c.PostForm("camera_id"))
	if err != nil {
		response.BadRequest(c, "invalid camera_id")
		return
	}
	cam, err := h.cameras.GetByID(c.Request.Context(), cameraID)
	if err != nil {
		response.NotFound(c, "camera not found")
		return
	}
	if !middleware.IsAdmin(c) && cam.UserID != middleware.UserID(c) {
		response.Forbidden(c, "not your camera")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}
	if h.maxBytes > 0 && fileHeader.Size > h.maxBytes {
		response.BadRequest(c, "file too large")
		return
	}
	if !allowed(filepath.Ext(fileHeader.Filename)) {
		response.BadRequest(c, ErrBadExtension.Error())
		return
	}

	asset, err := h.saveAsset(c, cam, kind, fileHeader)
	if err != nil {
		response.Internal(c, "failed to store upload")
		return
	}

	result, err := h.pipeline.Analyze(c.Request.Context(), cam, asset)
	if err != nil {
		if errors.Is(err, analysis.ErrDecode) {
			response.BadRequest(c, "media could not be decoded")
			return
		}
		response.Internal(c, "analysis failed")
		return
	}

	if h.archiver != nil {
		// Best effort: an unreachable queue must not fail the upload.
		if err := h.archiver.EnqueueMediaArchive(c.Request.Context(), queue.MediaArchivePayload{
			MediaID:  asset.ID,
			CameraID: cam.ID,
		}); err != nil {
			h.logger.Warn("archive enqueue failed", zap.String("media_id", asset.ID.String()), zap.Error(err))
		}
	}

	response.Created(c, UploadResponse{Media: asset, Analysis: result})
}

func (h *Handler) saveAsset(c *gin.Context, cam *models.Camera, kind models.MediaKind, fh *multipart.FileHeader) (*models.MediaAsset, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	id := uuid.New()
	path, size, err := h.store.Save(id, fh.Filename, src)
	if err != nil {
		return nil, err
	}

	asset := &models.MediaAsset{
		ID:           id,
		CameraID:     cam.ID,
		Kind:         kind,
		StoragePath:  path,
		OriginalName: fh.Filename,
		ContentType:  fh.Header.Get("Content-Type"),
		SizeBytes:    size,
	}
	if err := h.repo.Create(c.Request.Context(), asset); err != nil {
		h.store.Remove(path)
		return nil, err
	}
	return asset, nil
}

// ListByCamera handles GET /cameras/:id/media.
func (h *Handler) ListByCamera(c *gin.Context) {
	cameraID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid camera id")
		return
	}
	cam, err := h.cameras.GetByID(c.Request.Context(), cameraID)
	if err != nil {
		response.NotFound(c, "camera not found")
		return
	}
	if !middleware.IsAdmin(c) && cam.UserID != middleware.UserID(c) {
		response.Forbidden(c, "not your camera")
		return
	}
	list, err := h.repo.ListByCamera(c.Request.Context(), cam.ID)
	if err != nil {
		response.Internal(c, "failed to list media")
		return
	}
	response.OK(c, list)
}

// ServeFile handles GET /media/:id/file.
func (h *Handler) ServeFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}
	asset, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "media not found")
		} else {
			response.Internal(c, "failed to load media")
		}
		return
	}
	cam, err := h.cameras.GetByID(c.Request.Context(), asset.CameraID)
	if err == nil && !middleware.IsAdmin(c) && cam.UserID != middleware.UserID(c) {
		response.Forbidden(c, "not your camera")
		return
	}

	file, err := h.store.Open(asset.StoragePath)
	if err != nil {
		response.NotFound(c, "media file missing")
		return
	}
	file.Close()

	if asset.ContentType != "" {
		c.Header("Content-Type", asset.ContentType)
	}
	c.File(asset.StoragePath)
}

// ArchiveURL handles GET /media/:id/archive-url. Returns a pre-signed
// download link once the asset has been archived.
func (h *Handler) ArchiveURL(c *gin.Context) {
	if h.signer == nil {
		response.ServiceUnavailable(c, "archive storage not configured")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid media id")
		return
	}
	asset, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "media not found")
		} else {
			response.Internal(c, "failed to load media")
		}
		return
	}
	cam, err := h.cameras.GetByID(c.Request.Context(), asset.CameraID)
	if err == nil && !middleware.IsAdmin(c) && cam.UserID != middleware.UserID(c) {
		response.Forbidden(c, "not your camera")
		return
	}
	if asset.ArchiveURL == "" {
		response.NotFound(c, "media not archived yet")
		return
	}

	key := storage.MediaKey(asset.CameraID.String(), asset.ID.String(), asset.OriginalName)
	url, err := h.signer.PresignArchiveDownload(c.Request.Context(), key)
	if err != nil {
		h.logger.Warn("presign archive download failed", zap.String("media_id", asset.ID.String()), zap.Error(err))
		response.Internal(c, "failed to sign download url")
		return
	}
	response.OK(c, gin.H{"url": url})
}
