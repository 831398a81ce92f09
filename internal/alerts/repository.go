package alerts

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

// ErrNotFound is returned when an alert does not exist.
var ErrNotFound = errors.New("alert not found")

// Repository handles alert persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an alert repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new alert in pending status.
func (r *Repository) Create(ctx context.Context, a *models.Alert) error {
	const q = `INSERT INTO alerts (id, camera_id, alert_type, severity, message, status, metadata)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	if a.Status == "" {
		a.Status = models.AlertStatusPending
	}
	return r.pool.QueryRow(ctx, q, a.CameraID, a.AlertType, a.Severity, a.Message, a.Status, a.Metadata).
		Scan(&a.ID, &a.CreatedAt)
}

// Filter narrows alert listings.
type Filter struct {
	CameraID *uuid.UUID
	Status   string
	Severity string
	Limit    int
}

// List returns alerts newest first, joined with the camera name.
func (r *Repository) List(ctx context.Context, f Filter) ([]models.Alert, error) {
	q := `SELECT a.id, a.camera_id, COALESCE(c.name,''), a.alert_type, a.severity, a.message, a.status, a.metadata, a.created_at, a.resolved_at
		FROM alerts a LEFT JOIN cameras c ON c.id = a.camera_id`
	var args []interface{}
	var conds []string
	if f.CameraID != nil {
		args = append(args, *f.CameraID)
		conds = append(conds, fmt.Sprintf("a.camera_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.Severity != "" {
		args = append(args, f.Severity)
		conds = append(conds, fmt.Sprintf("a.severity = $%d", len(args)))
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY a.created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.CameraID, &a.CameraName, &a.AlertType, &a.Severity, &a.Message, &a.Status, &a.Metadata, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// GetByID returns an alert by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	const q = `SELECT a.id, a.camera_id, COALESCE(c.name,''), a.alert_type, a.severity, a.message, a.status, a.metadata, a.created_at, a.resolved_at
		FROM alerts a LEFT JOIN cameras c ON c.id = a.camera_id WHERE a.id = $1`
	var a models.Alert
	err := r.pool.QueryRow(ctx, q, id).Scan(&a.ID, &a.CameraID, &a.CameraName, &a.AlertType, &a.Severity, &a.Message, &a.Status, &a.Metadata, &a.CreatedAt, &a.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Resolve marks an alert resolved. Resolving an already resolved alert is a no-op.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	const q = `UPDATE alerts SET status = $1, resolved_at = COALESCE(resolved_at, NOW())
		WHERE id = $2`
	tag, err := r.pool.Exec(ctx, q, models.AlertStatusResolved, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Statistics summarises alerts for the dashboard.
type Statistics struct {
	Total      int            `json:"total"`
	Pending    int            `json:"pending"`
	Resolved   int            `json:"resolved"`
	BySeverity map[string]int `json:"by_severity"`
	ByType     map[string]int `json:"by_type"`
	Last24h    int            `json:"last_24h"`
}

// Stats computes alert counts grouped by status, severity and type.
func (r *Repository) Stats(ctx context.Context) (*Statistics, error) {
	s := &Statistics{BySeverity: map[string]int{}, ByType: map[string]int{}}

	rows, err := r.pool.Query(ctx, `SELECT status, severity, alert_type, COUNT(*) FROM alerts GROUP BY status, severity, alert_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status, severity, alertType string
		var n int
		if err := rows.Scan(&status, &severity, &alertType, &n); err != nil {
			return nil, err
		}
		s.Total += n
		if status == models.AlertStatusResolved {
			s.Resolved += n
		} else {
			s.Pending += n
		}
		s.BySeverity[severity] += n
		s.ByType[alertType] += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts WHERE created_at >= $1`, cutoff).Scan(&s.Last24h); err != nil {
		return nil, err
	}
	return s, nil
}
