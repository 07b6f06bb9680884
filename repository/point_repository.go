package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tedik0/TortygaZP/database"
	"github.com/Tedik0/TortygaZP/models"
	"github.com/Tedik0/TortygaZP/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks
const uniqueViolation = "23505"

// PointRepository implements the service.PointRepository interface
type PointRepository struct {
	q queryable
}

// NewPointRepository creates a new point repository
func NewPointRepository(db *database.DB) *PointRepository {
	return &PointRepository{q: db.Pool}
}

// newPointRepositoryWithTx creates a new point repository with a transaction
func newPointRepositoryWithTx(tx queryable) *PointRepository {
	return &PointRepository{q: tx}
}

// Create creates a new point owned by ownerID
func (r *PointRepository) Create(ctx context.Context, name string, ownerID int64) (*models.Point, error) {
	query := `
		INSERT INTO points (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, name, owner_id, created_at
	`

	var point models.Point
	err := r.q.QueryRow(ctx, query, name, ownerID).Scan(
		&point.ID,
		&point.Name,
		&point.OwnerID,
		&point.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("point %q: %w", name, service.ErrDuplicateName)
		}
		return nil, fmt.Errorf("failed to create point %q: %w", name, err)
	}

	return &point, nil
}

// GetByID retrieves a point by id
func (r *PointRepository) GetByID(ctx context.Context, id int64) (*models.Point, error) {
	return r.getOne(ctx, `
		SELECT id, name, owner_id, created_at
		FROM points
		WHERE id = $1
	`, id)
}

// GetByName retrieves a point by exact name match
func (r *PointRepository) GetByName(ctx context.Context, name string) (*models.Point, error) {
	return r.getOne(ctx, `
		SELECT id, name, owner_id, created_at
		FROM points
		WHERE name = $1
	`, name)
}

// GetByNameFold retrieves a point by case-insensitive name match. This is
// the legacy matching mode; with it enabled "Kiosk" and "kiosk" resolve to
// the same point. When several stored names differ only by case the oldest
// row wins.
func (r *PointRepository) GetByNameFold(ctx context.Context, name string) (*models.Point, error) {
	return r.getOne(ctx, `
		SELECT id, name, owner_id, created_at
		FROM points
		WHERE LOWER(name) = LOWER($1)
		ORDER BY id ASC
		LIMIT 1
	`, name)
}

func (r *PointRepository) getOne(ctx context.Context, query string, arg any) (*models.Point, error) {
	var point models.Point
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&point.ID,
		&point.Name,
		&point.OwnerID,
		&point.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}

	return &point, nil
}

// GetAll returns all points ordered by name
func (r *PointRepository) GetAll(ctx context.Context) ([]*models.Point, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM points
		ORDER BY name ASC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all points: %w", err)
	}
	defer rows.Close()

	var points []*models.Point
	for rows.Next() {
		var point models.Point
		err := rows.Scan(
			&point.ID,
			&point.Name,
			&point.OwnerID,
			&point.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, &point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate points: %w", err)
	}

	return points, nil
}

// Delete removes a point row
func (r *PointRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM points WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete point %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("point %d: %w", id, service.ErrPointNotFound)
	}

	return nil
}
