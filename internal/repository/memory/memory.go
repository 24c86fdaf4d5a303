// Package memory is an in-process implementation of the repository
// interfaces. Transactions are serialised on a single mutex.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gym-class-booking/internal/models"
	"gym-class-booking/internal/repository"
)

type bookingKey struct {
	userID  string
	classID int64
}

type Store struct {
	mu       sync.Mutex
	nextID   int64
	classes  map[int64]models.GymClass
	bookings map[bookingKey]models.Booking
	now      func() time.Time
}

func New() *Store {
	return &Store{
		classes:  make(map[int64]models.GymClass),
		bookings: make(map[bookingKey]models.Booking),
		now:      time.Now,
	}
}

func (s *Store) Classes() repository.GymClassRepository {
	return &classRepository{s: s}
}

func (s *Store) Bookings() repository.BookingRepository {
	return &bookingRepository{s: s}
}

// BookingRows counts the stored rows for one (user, class) pair.
func (s *Store) BookingRows(userID string, classID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[bookingKey{userID, classID}]; ok {
		return 1
	}
	return 0
}

// BookingCount returns the total number of stored bookings.
func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func toView(c models.GymClass, attending bool) models.ClassView {
	return models.ClassView{
		ID:        c.ID,
		Name:      c.Name,
		StartDate: c.StartDate,
		Duration:  c.Duration,
		Attending: attending,
	}
}

func sortViews(views []models.ClassView) {
	sort.Slice(views, func(i, j int) bool {
		if !views[i].StartDate.Equal(views[j].StartDate) {
			return views[i].StartDate.Before(views[j].StartDate)
		}
		return views[i].ID < views[j].ID
	})
}

type classRepository struct {
	s *Store
}

func (r *classRepository) Create(ctx context.Context, class *models.GymClass) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextID++
	now := r.s.now()
	class.ID = r.s.nextID
	class.Version = 1
	class.CreatedAt = now
	class.UpdatedAt = now
	r.s.classes[class.ID] = *class
	return nil
}

func (r *classRepository) GetByID(ctx context.Context, id int64) (*models.GymClass, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.classes[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *classRepository) Exists(ctx context.Context, id int64) (bool, error) {
	c, err := r.GetByID(ctx, id)
	return c != nil, err
}

func (r *classRepository) Update(ctx context.Context, class *models.GymClass) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.classes[class.ID]
	if !ok || current.Version != class.Version {
		return false, nil
	}
	class.Version = current.Version + 1
	class.CreatedAt = current.CreatedAt
	class.UpdatedAt = r.s.now()
	r.s.classes[class.ID] = *class
	return true, nil
}

func (r *classRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.classes[id]; !ok {
		return false, nil
	}
	delete(r.s.classes, id)
	for key := range r.s.bookings {
		if key.classID == id {
			delete(r.s.bookings, key)
		}
	}
	return true, nil
}

func (r *classRepository) ListAll(ctx context.Context) ([]models.ClassView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	views := make([]models.ClassView, 0, len(r.s.classes))
	for _, c := range r.s.classes {
		views = append(views, toView(c, false))
	}
	sortViews(views)
	return views, nil
}

func (r *classRepository) ListUpcomingForUser(ctx context.Context, userID string, after time.Time) ([]models.ClassView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var views []models.ClassView
	for _, c := range r.s.classes {
		if !c.StartDate.After(after) {
			continue
		}
		_, attending := r.s.bookings[bookingKey{userID, c.ID}]
		views = append(views, toView(c, attending))
	}
	sortViews(views)
	return views, nil
}

type bookingRepository struct {
	s *Store
}

func (r *bookingRepository) InTx(ctx context.Context, fn func(tx repository.BookingTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx := &bookingTx{
		s:       r.s,
		added:   make(map[bookingKey]models.Booking),
		removed: make(map[bookingKey]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}
	// A cancelled context never commits.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit booking tx: %w", err)
	}
	for key := range tx.removed {
		delete(r.s.bookings, key)
	}
	for key, b := range tx.added {
		r.s.bookings[key] = b
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, userID string, classID int64) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[bookingKey{userID, classID}]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *bookingRepository) ListClassesBookedBy(ctx context.Context, userID string) ([]models.ClassView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var views []models.ClassView
	for key := range r.s.bookings {
		if key.userID != userID {
			continue
		}
		if c, ok := r.s.classes[key.classID]; ok {
			views = append(views, toView(c, true))
		}
	}
	sortViews(views)
	return views, nil
}

// bookingTx stages writes until InTx commits. The store mutex is held for
// its whole lifetime.
type bookingTx struct {
	s       *Store
	added   map[bookingKey]models.Booking
	removed map[bookingKey]bool
}

func (t *bookingTx) LockClass(ctx context.Context, classID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := t.s.classes[classID]
	return ok, nil
}

func (t *bookingTx) lookup(key bookingKey) (models.Booking, bool) {
	if b, ok := t.added[key]; ok {
		return b, true
	}
	if t.removed[key] {
		return models.Booking{}, false
	}
	b, ok := t.s.bookings[key]
	return b, ok
}

func (t *bookingTx) Get(ctx context.Context, userID string, classID int64) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := t.lookup(bookingKey{userID, classID})
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (t *bookingTx) Create(ctx context.Context, booking *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := bookingKey{booking.UserID, booking.ClassID}
	if _, ok := t.s.classes[booking.ClassID]; !ok {
		return fmt.Errorf("create booking: %w", repository.ErrClassNotFound)
	}
	if _, ok := t.lookup(key); ok {
		return fmt.Errorf("create booking: %w", repository.ErrDuplicateBooking)
	}
	booking.CreatedAt = t.s.now()
	t.added[key] = *booking
	delete(t.removed, key)
	return nil
}

func (t *bookingTx) Delete(ctx context.Context, userID string, classID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := bookingKey{userID, classID}
	if _, ok := t.lookup(key); !ok {
		return false, nil
	}
	delete(t.added, key)
	t.removed[key] = true
	return true, nil
}
