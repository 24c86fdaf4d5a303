package catalog_service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gym-class-booking/internal/apperr"
	"gym-class-booking/internal/models"
	"gym-class-booking/internal/repository"
	"gym-class-booking/internal/service"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	maxNameLength = 100
	maxDuration   = 24 * time.Hour
)

var tracer = otel.Tracer("gym-class-booking/internal/service/catalog")

type catalogService struct {
	classRepo   repository.GymClassRepository
	bookingRepo repository.BookingRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewCatalogService(
	classRepo repository.GymClassRepository,
	bookingRepo repository.BookingRepository,
	logger *zap.Logger,
) service.CatalogService {
	return &catalogService{
		classRepo:   classRepo,
		bookingRepo: bookingRepo,
		logger:      logger.Named("catalog"),
		now:         time.Now,
	}
}

// ProjectClasses lists classes for viewer using the data-access path of mode.
// Members get only classes starting after now, while anonymous viewers get
// the whole catalog including past classes; this asymmetry is intended.
func (s *catalogService) ProjectClasses(ctx context.Context, viewer *models.Identity, mode models.ViewMode) ([]models.ClassView, error) {
	ctx, span := tracer.Start(ctx, "catalog.ProjectClasses")
	defer span.End()
	span.SetAttributes(attribute.String("gym.view_mode", mode.String()))

	var (
		views []models.ClassView
		err   error
	)
	switch mode {
	case models.ModeAnonymous:
		views, err = s.classRepo.ListAll(ctx)
		for i := range views {
			views[i].Attending = false
		}
	case models.ModeUpcoming:
		if !viewer.Authenticated() {
			return nil, apperr.Unauthorized("upcoming view requires a member")
		}
		views, err = s.classRepo.ListUpcomingForUser(ctx, viewer.UserID, s.now())
	case models.ModeHistory:
		if !viewer.Authenticated() {
			return nil, apperr.Unauthorized("history view requires a member")
		}
		// Starts from the bookings so past classes are included.
		views, err = s.bookingRepo.ListClassesBookedBy(ctx, viewer.UserID)
		for i := range views {
			views[i].Attending = true
		}
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown view mode %d", int(mode)))
	}
	if err != nil {
		span.RecordError(err)
		return nil, apperr.Wrap(apperr.CodeInternal, "project classes", err)
	}

	if views == nil {
		views = []models.ClassView{}
	}
	span.SetAttributes(attribute.Int("gym.class_count", len(views)))
	return views, nil
}

func (s *catalogService) ListBookings(ctx context.Context, viewer *models.Identity) ([]models.ClassView, error) {
	if !viewer.Authenticated() {
		return nil, apperr.Unauthorized("login required to see bookings")
	}
	return s.ProjectClasses(ctx, viewer, models.ModeHistory)
}

func (s *catalogService) ClassDetails(ctx context.Context, viewer *models.Identity, id int64) (*models.ClassDetails, error) {
	if id <= 0 {
		return nil, apperr.Validation("class id is required")
	}

	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "get class", err)
	}
	if class == nil {
		return nil, apperr.NotFound(fmt.Sprintf("class %d not found", id))
	}

	details := &models.ClassDetails{GymClass: *class}
	if viewer.Authenticated() {
		booking, err := s.bookingRepo.Get(ctx, viewer.UserID, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "get booking", err)
		}
		details.Attending = booking != nil
	}
	return details, nil
}

func (s *catalogService) CreateClass(ctx context.Context, viewer *models.Identity, in models.ClassInput) (*models.GymClass, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	class := &models.GymClass{
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		Duration:    in.Duration,
	}
	if err := s.classRepo.Create(ctx, class); err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "create class", err)
	}

	s.logger.Info("class created",
		zap.Int64("class_id", class.ID),
		zap.String("name", class.Name),
		zap.String("by", viewer.UserID),
	)
	return class, nil
}

// UpdateClass overwrites the editable fields if version is still current.
func (s *catalogService) UpdateClass(ctx context.Context, viewer *models.Identity, id, version int64, in models.ClassInput) (*models.GymClass, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, apperr.Validation("class id is required")
	}
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	class := &models.GymClass{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		Duration:    in.Duration,
		Version:     version,
	}
	updated, err := s.classRepo.Update(ctx, class)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "update class", err)
	}
	if !updated {
		exists, err := s.classRepo.Exists(ctx, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.CodeInternal, "update class", err)
		}
		if !exists {
			return nil, apperr.NotFound(fmt.Sprintf("class %d not found", id))
		}
		return nil, apperr.Conflict(fmt.Sprintf("class %d was modified concurrently", id))
	}

	s.logger.Info("class updated", zap.Int64("class_id", id), zap.Int64("version", class.Version))
	return class, nil
}

func (s *catalogService) DeleteClass(ctx context.Context, viewer *models.Identity, id int64) error {
	if err := requireAdmin(viewer); err != nil {
		return err
	}
	if id <= 0 {
		return apperr.Validation("class id is required")
	}

	deleted, err := s.classRepo.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "delete class", err)
	}
	if !deleted {
		return apperr.NotFound(fmt.Sprintf("class %d not found", id))
	}

	s.logger.Info("class deleted", zap.Int64("class_id", id), zap.String("by", viewer.UserID))
	return nil
}

func requireAdmin(viewer *models.Identity) error {
	if !viewer.Authenticated() {
		return apperr.Unauthorized("login required")
	}
	if !viewer.IsAdmin() {
		return apperr.Unauthorized("admin role required")
	}
	return nil
}

func normalizeInput(in models.ClassInput) (models.ClassInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	var problems []string
	if in.Name == "" {
		problems = append(problems, "name is required")
	} else if utf8.RuneCountInString(in.Name) > maxNameLength {
		problems = append(problems, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}
	if in.StartDate.IsZero() {
		problems = append(problems, "start date is required")
	}
	if in.Duration <= 0 || in.Duration > maxDuration {
		problems = append(problems, "duration must be positive and at most 24h")
	}

	if len(problems) > 0 {
		return in, apperr.Validation(strings.Join(problems, ", "))
	}
	return in, nil
}
