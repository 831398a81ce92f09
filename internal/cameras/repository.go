package cameras

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

var (
	// ErrNotFound is returned when a camera does not exist.
	ErrNotFound = errors.New("camera not found")
	// ErrNameTaken is returned when creating or renaming to a name already in use.
	ErrNameTaken = errors.New("camera name already in use")
)

const cameraCols = `id, name, location, COALESCE(ip_address,''), rtsp_port,
	COALESCE(rtsp_username,''), COALESCE(rtsp_password,''), COALESCE(rtsp_path,''),
	is_restricted_zone, status, user_id, created_at, updated_at`

// Repository handles camera persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a camera repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCamera(row pgx.Row) (*models.Camera, error) {
	var cam models.Camera
	err := row.Scan(&cam.ID, &cam.Name, &cam.Location, &cam.IPAddress, &cam.RTSPPort,
		&cam.RTSPUsername, &cam.RTSPPassword, &cam.RTSPPath,
		&cam.IsRestrictedZone, &cam.Status, &cam.UserID, &cam.CreatedAt, &cam.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cam, nil
}

// NameExists reports whether a camera with the given name already exists,
// excluding the camera with excludeID (pass uuid.Nil for creations).
func (r *Repository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	const q = `SELECT 1 FROM cameras WHERE name = $1 AND id <> $2`
	var one int
	err := r.pool.QueryRow(ctx, q, name, excludeID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts a new camera.
func (r *Repository) Create(ctx context.Context, cam *models.Camera) error {
	const q = `INSERT INTO cameras (id, name, location, ip_address, rtsp_port, rtsp_username, rtsp_password, rtsp_path, is_restricted_zone, status, user_id)
		VALUES (gen_random_uuid(), $1, $2, NULLIF($3,''), $4, NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), $8, $9, $10)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, cam.Name, cam.Location, cam.IPAddress, cam.RTSPPort,
		cam.RTSPUsername, cam.RTSPPassword, cam.RTSPPath, cam.IsRestrictedZone, cam.Status, cam.UserID).
		Scan(&cam.ID, &cam.CreatedAt, &cam.UpdatedAt)
}

// GetByID returns a camera by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Camera, error) {
	return scanCamera(r.pool.QueryRow(ctx, `SELECT `+cameraCols+` FROM cameras WHERE id = $1`, id))
}

// List returns cameras visible to the given user. Admins see every camera,
// operators only their own.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]models.Camera, error) {
	q := `SELECT ` + cameraCols + ` FROM cameras`
	var args []interface{}
	if !isAdmin {
		q += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	rows, err := r.pool.Query(ctx, q+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Camera
	for rows.Next() {
		cam, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *cam)
	}
	return list, rows.Err()
}

// Update applies non-nil fields to the camera.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, upd *UpdateParams) (*models.Camera, error) {
	const q = `UPDATE cameras SET
		name = COALESCE($1, name),
		location = COALESCE($2, location),
		ip_address = COALESCE($3, ip_address),
		rtsp_port = COALESCE($4, rtsp_port),
		rtsp_username = COALESCE($5, rtsp_username),
		rtsp_password = COALESCE($6, rtsp_password),
		rtsp_path = COALESCE($7, rtsp_path),
		is_restricted_zone = COALESCE($8, is_restricted_zone),
		status = COALESCE($9, status),
		updated_at = NOW()
		WHERE id = $10
		RETURNING ` + cameraCols
	return scanCamera(r.pool.QueryRow(ctx, q, upd.Name, upd.Location, upd.IPAddress, upd.RTSPPort,
		upd.RTSPUsername, upd.RTSPPassword, upd.RTSPPath, upd.IsRestrictedZone, upd.Status, id))
}

// UpdateParams holds optional camera fields for partial updates.
type UpdateParams struct {
	Name             *string
	Location         *string
	IPAddress        *string
	RTSPPort         *int
	RTSPUsername     *string
	RTSPPassword     *string
	RTSPPath         *string
	IsRestrictedZone *bool
	Status           *string
}

// Delete removes a camera by ID. Rows in dependent tables cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cameras WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of cameras visible to the user.
func (r *Repository) Count(ctx context.Context, userID uuid.UUID, isAdmin bool) (int, error) {
	q := `SELECT COUNT(*) FROM cameras`
	var args []interface{}
	if !isAdmin {
		q += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	var n int
	err := r.pool.QueryRow(ctx, q, args...).Scan(&n)
	return n, err
}
