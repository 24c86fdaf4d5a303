package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrDuplicateBooking = errors.New("booking already exists")
	ErrClassNotFound    = errors.New("referenced class does not exist")
)

const (
	uniqueViolation     pq.ErrorCode = "23505"
	foreignKeyViolation pq.ErrorCode = "23503"
)

// Classify maps postgres constraint violations onto the repository sentinels.
// Other errors are returned unchanged.
func Classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicateBooking, pqErr.Message)
	case foreignKeyViolation:
		return fmt.Errorf("%w: %s", ErrClassNotFound, pqErr.Message)
	}
	return err
}
