package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roles a user can hold. Teachers own classrooms and subscriptions;
// students join classrooms through codes; admins manage content.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is a platform account.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	AvatarURL   string
	Role        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsTeacher reports whether the user can own classrooms. Admins can do
// everything a teacher can.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// displayNameFor picks a display name: provider profile name first, then the
// local part of the email. Something human-readable always ends up on the
// classroom roster.
func displayNameFor(profileName, email string) string {
	if name := strings.TrimSpace(profileName); name != "" {
		return name
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
