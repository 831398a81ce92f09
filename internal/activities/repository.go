package activities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

// ErrNotFound is returned when an activity does not exist.
var ErrNotFound = errors.New("activity not found")

// Repository handles activity persistence. Activities are append-only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an activity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new activity record.
func (r *Repository) Create(ctx context.Context, a *models.Activity) error {
	const q = `INSERT INTO activities (id, camera_id, activity_type, description, confidence_score, metadata, ts)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING id, ts, created_at`
	var ts interface{}
	if !a.Timestamp.IsZero() {
		ts = a.Timestamp
	}
	return r.pool.QueryRow(ctx, q, a.CameraID, a.ActivityType, a.Description, a.ConfidenceScore, a.Metadata, ts).
		Scan(&a.ID, &a.Timestamp, &a.CreatedAt)
}

// Filter narrows activity listings.
type Filter struct {
	CameraID     *uuid.UUID
	ActivityType string
	Limit        int
}

// List returns activities newest first, joined with the camera name.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Activity, error) {
	q := `SELECT a.id, a.camera_id, COALESCE(c.name,''), a.activity_type, a.description, a.confidence_score, a.metadata, a.ts, a.created_at
		FROM activities a LEFT JOIN cameras c ON c.id = a.camera_id`
	var args []interface{}
	var conds []string
	if f.CameraID != nil {
		args = append(args, *f.CameraID)
		conds = append(conds, fmt.Sprintf("a.camera_id = $%d", len(args)))
	}
	if f.ActivityType != "" {
		args = append(args, f.ActivityType)
		conds = append(conds, fmt.Sprintf("a.activity_type = $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY a.ts DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.CameraID, &a.CameraName, &a.ActivityType, &a.Description, &a.ConfidenceScore, &a.Metadata, &a.Timestamp, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// CountSince returns the number of activities recorded at or after the given timestamp.
func (r *Repository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities WHERE ts >= $1`, since).Scan(&n)
	return n, err
}

// GetByID returns an activity by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Activity, error) {
	const q = `SELECT a.id, a.camera_id, COALESCE(c.name,''), a.activity_type, a.description, a.confidence_score, a.metadata, a.ts, a.created_at
		FROM activities a LEFT JOIN cameras c ON c.id = a.camera_id WHERE a.id = $1`
	var a models.Activity
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.CameraID, &a.CameraName, &a.ActivityType, &a.Description, &a.ConfidenceScore, &a.Metadata, &a.Timestamp, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}
