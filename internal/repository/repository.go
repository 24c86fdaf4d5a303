package repository

import (
	"context"
	"time"

	"gym-class-booking/internal/models"
)

type GymClassRepository interface {
	Create(ctx context.Context, class *models.GymClass) error
	// GetByID returns nil, nil when the class does not exist.
	GetByID(ctx context.Context, id int64) (*models.GymClass, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// Update writes class if its version still matches and bumps the version.
	// It reports false when no row matched.
	Update(ctx context.Context, class *models.GymClass) (bool, error)
	// Delete removes the class and, through the foreign key, its bookings.
	Delete(ctx context.Context, id int64) (bool, error)

	// Projections
	ListAll(ctx context.Context) ([]models.ClassView, error)
	ListUpcomingForUser(ctx context.Context, userID string, after time.Time) ([]models.ClassView, error)
}

type BookingRepository interface {
	// InTx runs fn inside one transaction. Any error from fn rolls it back.
	InTx(ctx context.Context, fn func(tx BookingTx) error) error
	Get(ctx context.Context, userID string, classID int64) (*models.Booking, error)
	// ListClassesBookedBy walks from the user's bookings to their classes,
	// ignoring the default upcoming-only catalog filter.
	ListClassesBookedBy(ctx context.Context, userID string) ([]models.ClassView, error)
}

// BookingTx is the set of booking operations available inside a transaction.
type BookingTx interface {
	// LockClass takes a share lock on the class row and reports whether it exists.
	LockClass(ctx context.Context, classID int64) (bool, error)
	Get(ctx context.Context, userID string, classID int64) (*models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, userID string, classID int64) (bool, error)
}
