package gymclass

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gym-class-booking/internal/models"
	"gym-class-booking/internal/repository"

	"github.com/jmoiron/sqlx"
)

type gymClassRepository struct {
	db *sqlx.DB
}

func NewGymClassRepository(db *sqlx.DB) repository.GymClassRepository {
	return &gymClassRepository{db: db}
}

func (r *gymClassRepository) Create(ctx context.Context, class *models.GymClass) error {
	query := `
		INSERT INTO gym_classes (name, description, start_date, duration)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version, created_at, updated_at
	`
	return r.db.QueryRowxContext(
		ctx,
		query,
		class.Name,
		class.Description,
		class.StartDate,
		class.Duration,
	).Scan(&class.ID, &class.Version, &class.CreatedAt, &class.UpdatedAt)
}

func (r *gymClassRepository) GetByID(ctx context.Context, id int64) (*models.GymClass, error) {
	query := `
		SELECT id, name, description, start_date, duration, version, created_at, updated_at
		FROM gym_classes
		WHERE id = $1
	`

	class := &models.GymClass{}
	err := r.db.GetContext(ctx, class, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get class %d: %w", id, err)
	}
	return class, nil
}

func (r *gymClassRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM gym_classes WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("check class %d: %w", id, err)
	}
	return exists, nil
}

func (r *gymClassRepository) Update(ctx context.Context, class *models.GymClass) (bool, error) {
	query := `
		UPDATE gym_classes
		SET name = $1, description = $2, start_date = $3, duration = $4,
		    version = version + 1, updated_at = now()
		WHERE id = $5 AND version = $6
		RETURNING version, created_at, updated_at
	`
	err := r.db.QueryRowxContext(
		ctx,
		query,
		class.Name,
		class.Description,
		class.StartDate,
		class.Duration,
		class.ID,
		class.Version,
	).Scan(&class.Version, &class.CreatedAt, &class.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("update class %d: %w", class.ID, err)
	}
	return true, nil
}

func (r *gymClassRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gym_classes WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete class %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete class %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *gymClassRepository) ListAll(ctx context.Context) ([]models.ClassView, error) {
	query := `
		SELECT id, name, start_date, duration, FALSE AS attending
		FROM gym_classes
		ORDER BY start_date ASC, id ASC
	`

	var classes []models.ClassView
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

func (r *gymClassRepository) ListUpcomingForUser(ctx context.Context, userID string, after time.Time) ([]models.ClassView, error) {
	query := `
		SELECT
			g.id, g.name, g.start_date, g.duration,
			EXISTS (
				SELECT 1 FROM bookings b
				WHERE b.class_id = g.id AND b.user_id = $1
			) AS attending
		FROM gym_classes g
		WHERE g.start_date > $2
		ORDER BY g.start_date ASC, g.id ASC
	`

	var classes []models.ClassView
	if err := r.db.SelectContext(ctx, &classes, query, userID, after); err != nil {
		return nil, fmt.Errorf("list upcoming classes: %w", err)
	}
	return classes, nil
}
