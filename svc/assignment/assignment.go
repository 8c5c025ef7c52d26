package assignment

import (
	"time"

	"github.com/google/uuid"
)

// Assignment is a topic assigned to a classroom at a grade band.
type Assignment struct {
	ID           uuid.UUID
	ClassroomID  uuid.UUID
	TopicID      uuid.UUID
	GradeBand    string
	Instructions string
	DueAt        *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Overdue reports whether the due date has passed at the given time.
func (a *Assignment) Overdue(now time.Time) bool {
	return a.DueAt != nil && now.After(*a.DueAt)
}
