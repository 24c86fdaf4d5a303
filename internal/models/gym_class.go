package models

import (
	"time"
)

// GymClass is a single scheduled class in the catalog.
type GymClass struct {
	ID          int64         `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description,omitempty"`
	StartDate   time.Time     `db:"start_date" json:"start_date"`
	Duration    time.Duration `db:"duration" json:"duration"`
	Version     int64         `db:"version" json:"version"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// EndDate returns the moment the class finishes.
func (c GymClass) EndDate() time.Time {
	return c.StartDate.Add(c.Duration)
}

// Booking marks a member as attending a class. The pair (UserID, ClassID) is unique.
type Booking struct {
	UserID    string    `db:"user_id" json:"user_id"`
	ClassID   int64     `db:"class_id" json:"class_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassView is a class as seen by one viewer.
type ClassView struct {
	ID        int64         `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	StartDate time.Time     `db:"start_date" json:"start_date"`
	Duration  time.Duration `db:"duration" json:"duration"`
	Attending bool          `db:"attending" json:"attending"`
}

// ClassInput carries the administrator-editable fields of a class.
type ClassInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	StartDate   time.Time     `json:"start_date"`
	Duration    time.Duration `json:"duration"`
}
