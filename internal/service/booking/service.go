package booking_service

import (
	"context"
	"errors"
	"fmt"

	"gym-class-booking/internal/apperr"
	"gym-class-booking/internal/models"
	"gym-class-booking/internal/repository"
	"gym-class-booking/internal/service"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("gym-class-booking/internal/service/booking")

type bookingService struct {
	bookingRepo repository.BookingRepository
	logger      *zap.Logger
}

func NewBookingService(bookingRepo repository.BookingRepository, logger *zap.Logger) service.BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		logger:      logger.Named("booking"),
	}
}

func (s *bookingService) ToggleBooking(ctx context.Context, viewer *models.Identity, classID int64) (models.ToggleResult, error) {
	if !viewer.Authenticated() {
		return "", apperr.Unauthorized("login required to book a class")
	}
	if classID <= 0 {
		return "", apperr.Validation("class id is required")
	}

	ctx, span := tracer.Start(ctx, "booking.Toggle")
	defer span.End()
	span.SetAttributes(attribute.Int64("gym.class_id", classID))

	// Only the caller's own row is ever read or written.
	userID := viewer.UserID

	var result models.ToggleResult
	err := s.bookingRepo.InTx(ctx, func(tx repository.BookingTx) error {
		exists, err := tx.LockClass(ctx, classID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound(fmt.Sprintf("class %d not found", classID))
		}

		existing, err := tx.Get(ctx, userID, classID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := tx.Create(ctx, &models.Booking{UserID: userID, ClassID: classID}); err != nil {
				return err
			}
			result = models.ToggleCreated
			return nil
		}

		// Zero rows means a concurrent toggle removed it first; the end state is the same.
		if _, err := tx.Delete(ctx, userID, classID); err != nil {
			return err
		}
		result = models.ToggleRemoved
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicateBooking):
		// Another request inserted the same pair between our read and write.
		s.logger.Debug("concurrent booking insert, already attending",
			zap.String("user_id", userID), zap.Int64("class_id", classID))
		result, err = models.ToggleCreated, nil
	case errors.Is(err, repository.ErrClassNotFound):
		err = apperr.Wrap(apperr.CodeNotFound, fmt.Sprintf("class %d not found", classID), err)
	case apperr.CodeOf(err) != apperr.CodeInternal:
	default:
		err = apperr.Wrap(apperr.CodeInternal, "toggle booking", err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.String("gym.toggle_result", string(result)))
	s.logger.Debug("booking toggled",
		zap.String("user_id", userID),
		zap.Int64("class_id", classID),
		zap.String("result", string(result)),
	)
	return result, nil
}
