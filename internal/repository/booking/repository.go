package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gym-class-booking/internal/models"
	"gym-class-booking/internal/repository"

	"github.com/jmoiron/sqlx"
)

type bookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) InTx(ctx context.Context, fn func(tx repository.BookingTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return repository.Classify(fmt.Errorf("commit booking tx: %w", err))
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, userID string, classID int64) (*models.Booking, error) {
	return getBooking(ctx, r.db, userID, classID)
}

func (r *bookingRepository) ListClassesBookedBy(ctx context.Context, userID string) ([]models.ClassView, error) {
	query := `
		SELECT g.id, g.name, g.start_date, g.duration, TRUE AS attending
		FROM bookings b
		JOIN gym_classes g ON g.id = b.class_id
		WHERE b.user_id = $1
		ORDER BY g.start_date ASC, g.id ASC
	`

	var classes []models.ClassView
	if err := r.db.SelectContext(ctx, &classes, query, userID); err != nil {
		return nil, fmt.Errorf("list booked classes: %w", err)
	}
	return classes, nil
}

type bookingTx struct {
	tx *sqlx.Tx
}

func (t *bookingTx) LockClass(ctx context.Context, classID int64) (bool, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `SELECT id FROM gym_classes WHERE id = $1 FOR SHARE`, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock class %d: %w", classID, err)
	}
	return true, nil
}

func (t *bookingTx) Get(ctx context.Context, userID string, classID int64) (*models.Booking, error) {
	return getBooking(ctx, t.tx, userID, classID)
}

func (t *bookingTx) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (user_id, class_id)
		VALUES ($1, $2)
		RETURNING created_at
	`
	err := t.tx.QueryRowxContext(ctx, query, booking.UserID, booking.ClassID).Scan(&booking.CreatedAt)
	if err != nil {
		return repository.Classify(fmt.Errorf("create booking: %w", err))
	}
	return nil
}

func (t *bookingTx) Delete(ctx context.Context, userID string, classID int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM bookings WHERE user_id = $1 AND class_id = $2`, userID, classID)
	if err != nil {
		return false, fmt.Errorf("delete booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete booking: %w", err)
	}
	return n > 0, nil
}

func getBooking(ctx context.Context, q sqlx.QueryerContext, userID string, classID int64) (*models.Booking, error) {
	query := `
		SELECT user_id, class_id, created_at
		FROM bookings
		WHERE user_id = $1 AND class_id = $2
	`

	booking := &models.Booking{}
	err := sqlx.GetContext(ctx, q, booking, query, userID, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}
