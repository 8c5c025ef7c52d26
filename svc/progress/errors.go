package progress

import "errors"

var (
	ErrNotFound      = errors.New("progress record not found")
	ErrNotMember     = errors.New("not enrolled in this classroom")
	ErrNotOwner      = errors.New("classroom belongs to another teacher")
	ErrOwnerProgress = errors.New("teachers do not record progress")
	ErrInvalidStatus = errors.New("status must be started or completed")
	ErrInvalidScore  = errors.New("score must be between 0 and 100")
)
