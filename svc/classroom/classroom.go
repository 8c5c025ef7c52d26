package classroom

import (
	"time"

	"github.com/google/uuid"
)

// Classroom is a teacher-owned group of students.
type Classroom struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	GradeBand string // e.g. "3-5", "6-8"
	JoinCode  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Enrollment links a student to a classroom.
type Enrollment struct {
	ClassroomID uuid.UUID
	UserID      uuid.UUID
	JoinedAt    time.Time
}

// RosterEntry is an enrollment joined with the student's profile fields the
// teacher sees.
type RosterEntry struct {
	UserID      uuid.UUID
	DisplayName string
	AvatarURL   string
	JoinedAt    time.Time
}
