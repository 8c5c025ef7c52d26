package content

import "errors"

var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrDuplicateSlug    = errors.New("topic slug already in use")
	ErrDuplicateLevel   = errors.New("topic already has a lesson for this grade band")
	ErrInvalidGradeBand = errors.New("invalid grade band")
	ErrInvalidKind      = errors.New("invalid lesson kind")
)
