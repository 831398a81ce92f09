package allowedpersons

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asmita-kamble/smart-cctv-app/internal/models"
)

// ErrNotFound is returned when an allowed person does not exist.
var ErrNotFound = errors.New("allowed person not found")

// Repository handles allowed person persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an allowed persons repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new allowed person.
func (r *Repository) Create(ctx context.Context, p *models.AllowedPerson) error {
	const q = `INSERT INTO allowed_persons (id, name, description, photo_path, created_by)
		VALUES (gen_random_uuid(), $1, NULLIF($2,''), NULLIF($3,''), $4)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, p.Name, p.Description, p.PhotoPath, p.CreatedBy).
		Scan(&p.ID, &p.CreatedAt)
}

// List returns all allowed persons ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.AllowedPerson, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(description,''), COALESCE(photo_path,''), created_by, created_at
		FROM allowed_persons ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.AllowedPerson
	for rows.Next() {
		var p models.AllowedPerson
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PhotoPath, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetByID returns an allowed person by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.AllowedPerson, error) {
	const q = `SELECT id, name, COALESCE(description,''), COALESCE(photo_path,''), created_by, created_at
		FROM allowed_persons WHERE id = $1`
	var p models.AllowedPerson
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.Description, &p.PhotoPath, &p.CreatedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Delete removes an allowed person by ID.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM allowed_persons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
