package assignment

import "errors"

var (
	ErrNotFound   = errors.New("assignment not found")
	ErrNotOwner   = errors.New("classroom belongs to another teacher")
	ErrNotMember  = errors.New("not enrolled in this classroom")
	ErrTopicDraft = errors.New("topic is not published")
	ErrNoLesson   = errors.New("topic has no lesson for this grade band")
	ErrDueInPast  = errors.New("due date is in the past")
)
