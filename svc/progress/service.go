package progress

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/classloop/classloop/svc/assignment"
	"github.com/classloop/classloop/svc/classroom"
)

// AssignmentSource resolves assignments. assignment.Store satisfies it.
type AssignmentSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error)
}

// ClassroomSource answers ownership, membership, and roster size questions.
// classroom.Store satisfies it.
type ClassroomSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*classroom.Classroom, error)
	IsEnrolled(ctx context.Context, classroomID, userID uuid.UUID) (bool, error)
	CountEnrollments(ctx context.Context, classroomID uuid.UUID) (int, error)
}

// Service implements progress recording and teacher rollups.
type Service struct {
	store       Store
	assignments AssignmentSource
	classrooms  ClassroomSource
	log         *slog.Logger
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger. Defaults to slog.Default.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	if log == nil {
		panic("progress: logger cannot be nil")
	}
	return func(s *Service) { s.log = log }
}

// NewService creates the progress service.
func NewService(store Store, assignments AssignmentSource, classrooms ClassroomSource, opts ...ServiceOption) *Service {
	if store == nil {
		panic("progress: store cannot be nil")
	}
	if assignments == nil {
		panic("progress: assignment source cannot be nil")
	}
	if classrooms == nil {
		panic("progress: classroom source cannot be nil")
	}

	s := &Service{
		store:       store,
		assignments: assignments,
		classrooms:  classrooms,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record writes the student's state on an assignment as absolute state.
// Repeated submissions overwrite; the latest write wins.
func (s *Service) Record(ctx context.Context, userID, assignmentID uuid.UUID, status string, score *int) (*Record, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	if score != nil && (*score < 0 || *score > 100) {
		return nil, ErrInvalidScore
	}

	room, err := s.classroomFor(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if room.OwnerID == userID {
		return nil, ErrOwnerProgress
	}
	enrolled, err := s.classrooms.IsEnrolled(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotMember
	}

	record := &Record{
		UserID:       userID,
		AssignmentID: assignmentID,
		Status:       status,
		Score:        score,
	}
	if err := s.store.Upsert(ctx, record); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "progress recorded",
		slog.String("assignment_id", assignmentID.String()),
		slog.String("user_id", userID.String()),
		slog.String("status", status))
	return record, nil
}

// Own returns the caller's record for an assignment. ErrNotFound when the
// student has not started.
func (s *Service) Own(ctx context.Context, userID, assignmentID uuid.UUID) (*Record, error) {
	room, err := s.classroomFor(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.classrooms.IsEnrolled(ctx, room.ID, userID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, ErrNotMember
	}
	return s.store.Get(ctx, assignmentID, userID)
}

// Summary rolls up an assignment's records against the roster. Owner only.
func (s *Service) Summary(ctx context.Context, teacherID, assignmentID uuid.UUID) (*Summary, error) {
	room, err := s.classroomFor(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if room.OwnerID != teacherID {
		return nil, ErrNotOwner
	}

	entries, err := s.store.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.classrooms.CountEnrollments(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		AssignmentID: assignmentID,
		Enrolled:     enrolled,
		Entries:      entries,
	}
	for _, entry := range entries {
		switch entry.Status {
		case StatusStarted:
			summary.Started++
		case StatusCompleted:
			summary.Completed++
		}
	}
	return summary, nil
}

func (s *Service) classroomFor(ctx context.Context, assignmentID uuid.UUID) (*classroom.Classroom, error) {
	a, err := s.assignments.GetByID(ctx, assignmentID)
	if errors.Is(err, assignment.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.classrooms.GetByID(ctx, a.ClassroomID)
}
