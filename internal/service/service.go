package service

import (
	"context"

	"gym-class-booking/internal/models"
)

// BookingService flips a member's attendance for a class.
type BookingService interface {
	// ToggleBooking creates the viewer's booking when absent and removes it
	// when present, in a single transaction.
	ToggleBooking(ctx context.Context, viewer *models.Identity, classID int64) (models.ToggleResult, error)
}

// CatalogService lists classes per viewer and administers the catalog.
type CatalogService interface {
	// Listings
	ProjectClasses(ctx context.Context, viewer *models.Identity, mode models.ViewMode) ([]models.ClassView, error)
	ListBookings(ctx context.Context, viewer *models.Identity) ([]models.ClassView, error)
	ClassDetails(ctx context.Context, viewer *models.Identity, id int64) (*models.ClassDetails, error)

	// Administration, admin role only
	CreateClass(ctx context.Context, viewer *models.Identity, in models.ClassInput) (*models.GymClass, error)
	UpdateClass(ctx context.Context, viewer *models.Identity, id, version int64, in models.ClassInput) (*models.GymClass, error)
	DeleteClass(ctx context.Context, viewer *models.Identity, id int64) error
}
