package progress

import (
	"time"

	"github.com/google/uuid"
)

// Record statuses. A record only exists once the student has started.
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
)

// ValidStatus reports whether s is a recordable status.
func ValidStatus(s string) bool {
	return s == StatusStarted || s == StatusCompleted
}

// Record is one student's state on one assignment. Score is optional and
// only meaningful once completed.
type Record struct {
	UserID       uuid.UUID
	AssignmentID uuid.UUID
	Status       string
	Score        *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Entry is a record joined with the student's profile, for teacher rollups.
type Entry struct {
	UserID      uuid.UUID
	DisplayName string
	Status      string
	Score       *int
	UpdatedAt   time.Time
}

// Summary is the teacher's view of an assignment: how many of the enrolled
// students have started and finished.
type Summary struct {
	AssignmentID uuid.UUID
	Enrolled     int
	Started      int
	Completed    int
	Entries      []Entry
}
