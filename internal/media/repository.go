package media

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

// ErrNotFound is returned when a media asset does not exist.
var ErrNotFound = errors.New("media asset not found")

// Repository handles media asset persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a media repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a media asset row. The caller supplies the ID so the stored
// file name and the row agree.
func (r *Repository) Create(ctx context.Context, m *models.MediaAsset) error {
	const q = `INSERT INTO media_assets (id, camera_id, kind, storage_path, original_name, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7)
		RETURNING uploaded_at`
	return r.pool.QueryRow(ctx, q, m.ID, m.CameraID, m.Kind, m.StoragePath, m.OriginalName, m.ContentType, m.SizeBytes).
		Scan(&m.UploadedAt)
}

// GetByID returns a media asset by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaAsset, error) {
	const q = `SELECT id, camera_id, kind, storage_path, original_name, COALESCE(content_type,''), size_bytes, COALESCE(archive_url,''), uploaded_at
		FROM media_assets WHERE id = $1`
	var m models.MediaAsset
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.CameraID, &m.Kind, &m.StoragePath, &m.OriginalName, &m.ContentType, &m.SizeBytes, &m.ArchiveURL, &m.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByCamera returns a camera's media assets newest first.
func (r *Repository) ListByCamera(ctx context.Context, cameraID uuid.UUID) ([]models.MediaAsset, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, camera_id, kind, storage_path, original_name, COALESCE(content_type,''), size_bytes, COALESCE(archive_url,''), uploaded_at
		FROM media_assets WHERE camera_id = $1 ORDER BY uploaded_at DESC`, cameraID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.MediaAsset
	for rows.Next() {
		var m models.MediaAsset
		if err := rows.Scan(&m.ID, &m.CameraID, &m.Kind, &m.StoragePath, &m.OriginalName, &m.ContentType, &m.SizeBytes, &m.ArchiveURL, &m.UploadedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// SetArchiveURL records the S3 location written by the archive worker.
func (r *Repository) SetArchiveURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE media_assets SET archive_url = $1 WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
