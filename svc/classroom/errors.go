package classroom

import "errors"

var (
	ErrNotFound        = errors.New("classroom not found")
	ErrNotOwner        = errors.New("classroom belongs to another teacher")
	ErrInvalidJoinCode = errors.New("join code is invalid")
	ErrClassroomFull   = errors.New("classroom has no free seats")
	ErrAlreadyEnrolled = errors.New("already enrolled in this classroom")
	ErrOwnerCannotJoin = errors.New("owner cannot join their own classroom")
	ErrCodeExhausted   = errors.New("could not generate a unique join code")
)
