package assignment

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/classloop/classloop/svc/classroom"
	"github.com/classloop/classloop/svc/content"
)

// ClassroomSource answers ownership and membership questions.
// classroom.Store satisfies it.
type ClassroomSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*classroom.Classroom, error)
	IsEnrolled(ctx context.Context, classroomID, userID uuid.UUID) (bool, error)
}

// TopicSource resolves topics and their leveled lessons. content.Store
// satisfies it.
type TopicSource interface {
	GetTopicByID(ctx context.Context, id uuid.UUID) (*content.Topic, error)
	GetLesson(ctx context.Context, topicID uuid.UUID, gradeBand string) (*content.Lesson, error)
}

// AssignInput carries the teacher's request to assign a topic.
type AssignInput struct {
	ClassroomID  uuid.UUID
	TopicID      uuid.UUID
	GradeBand    string
	Instructions string
	DueAt        *time.Time
}

// Service implements assignment management.
type Service struct {
	store      Store
	classrooms ClassroomSource
	topics     TopicSource
	now        func() time.Time
	log        *slog.Logger
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger. Defaults to slog.Default.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	if log == nil {
		panic("assignment: logger cannot be nil")
	}
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source used for due date validation.
func WithClock(now func() time.Time) ServiceOption {
	if now == nil {
		panic("assignment: clock cannot be nil")
	}
	return func(s *Service) { s.now = now }
}

// NewService creates the assignment service.
func NewService(store Store, classrooms ClassroomSource, topics TopicSource, opts ...ServiceOption) *Service {
	if store == nil {
		panic("assignment: store cannot be nil")
	}
	if classrooms == nil {
		panic("assignment: classroom source cannot be nil")
	}
	if topics == nil {
		panic("assignment: topic source cannot be nil")
	}

	s := &Service{
		store:      store,
		classrooms: classrooms,
		topics:     topics,
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Assign creates an assignment in one of the teacher's classrooms. The topic
// must be published and carry a lesson for the requested grade band; the band
// defaults to the classroom's own.
func (s *Service) Assign(ctx context.Context, teacherID uuid.UUID, in AssignInput) (*Assignment, error) {
	room, err := s.classrooms.GetByID(ctx, in.ClassroomID)
	if errors.Is(err, classroom.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if room.OwnerID != teacherID {
		return nil, ErrNotOwner
	}

	band := strings.TrimSpace(in.GradeBand)
	if band == "" {
		band = room.GradeBand
	}
	if !content.ValidGradeBand(band) {
		return nil, content.ErrInvalidGradeBand
	}

	topic, err := s.topics.GetTopicByID(ctx, in.TopicID)
	if err != nil {
		return nil, err
	}
	if !topic.Published {
		return nil, ErrTopicDraft
	}
	if _, err := s.topics.GetLesson(ctx, topic.ID, band); err != nil {
		if errors.Is(err, content.ErrLessonNotFound) {
			return nil, ErrNoLesson
		}
		return nil, err
	}

	if in.DueAt != nil && in.DueAt.Before(s.now()) {
		return nil, ErrDueInPast
	}

	assignment := &Assignment{
		ID:           uuid.New(),
		ClassroomID:  room.ID,
		TopicID:      topic.ID,
		GradeBand:    band,
		Instructions: strings.TrimSpace(in.Instructions),
		DueAt:        in.DueAt,
	}
	if err := s.store.Create(ctx, assignment); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "topic assigned",
		slog.String("assignment_id", assignment.ID.String()),
		slog.String("classroom_id", room.ID.String()),
		slog.String("topic_id", topic.ID.String()))
	return assignment, nil
}

// List returns the classroom's assignments for its owner or any enrolled
// student. ErrNotMember for everyone else.
func (s *Service) List(ctx context.Context, classroomID, userID uuid.UUID) ([]Assignment, error) {
	if err := s.authorize(ctx, classroomID, userID); err != nil {
		return nil, err
	}
	return s.store.ListByClassroom(ctx, classroomID)
}

// Get returns one assignment, subject to the same access rule as List.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Assignment, error) {
	assignment, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, assignment.ClassroomID, userID); err != nil {
		return nil, err
	}
	return assignment, nil
}

// Remove deletes an assignment. Owner only.
func (s *Service) Remove(ctx context.Context, id, teacherID uuid.UUID) error {
	assignment, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	room, err := s.classrooms.GetByID(ctx, assignment.ClassroomID)
	if err != nil {
		return err
	}
	if room.OwnerID != teacherID {
		return ErrNotOwner
	}
	return s.store.Delete(ctx, id)
}

// authorize admits the classroom owner and enrolled students.
func (s *Service) authorize(ctx context.Context, classroomID, userID uuid.UUID) error {
	room, err := s.classrooms.GetByID(ctx, classroomID)
	if errors.Is(err, classroom.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if room.OwnerID == userID {
		return nil
	}

	enrolled, err := s.classrooms.IsEnrolled(ctx, classroomID, userID)
	if err != nil {
		return err
	}
	if !enrolled {
		return ErrNotMember
	}
	return nil
}
