package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/classloop/classloop/pkg/slug"
)

// Service implements curriculum authoring and reading.
type Service struct {
	store Store
	log   *slog.Logger
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger. Defaults to slog.Default.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	if log == nil {
		panic("content: logger cannot be nil")
	}
	return func(s *Service) { s.log = log }
}

// NewService creates the content service.
func NewService(store Store, opts ...ServiceOption) *Service {
	if store == nil {
		panic("content: store cannot be nil")
	}

	s := &Service{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTopic creates a draft topic. The slug derives from the title; a
// collision gets a random suffix rather than an error, since admins care
// about titles, not slugs.
func (s *Service) CreateTopic(ctx context.Context, title, summary string) (*Topic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("topic title is required")
	}

	topic := &Topic{
		ID:      uuid.New(),
		Slug:    slug.Make(title),
		Title:   title,
		Summary: strings.TrimSpace(summary),
	}
	err := s.store.CreateTopic(ctx, topic)
	if errors.Is(err, ErrDuplicateSlug) {
		topic.Slug = slug.MakeUnique(title)
		err = s.store.CreateTopic(ctx, topic)
	}
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "topic created",
		slog.String("topic_id", topic.ID.String()),
		slog.String("slug", topic.Slug))
	return topic, nil
}

// UpdateTopic updates title, summary and published state.
func (s *Service) UpdateTopic(ctx context.Context, id uuid.UUID, title, summary string, published bool) (*Topic, error) {
	topic, err := s.store.GetTopicByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if title = strings.TrimSpace(title); title != "" {
		topic.Title = title
	}
	topic.Summary = strings.TrimSpace(summary)
	topic.Published = published

	if err := s.store.UpdateTopic(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// ListTopics returns topics. Readers only see published ones; authors see
// everything.
func (s *Service) ListTopics(ctx context.Context, includeDrafts bool) ([]Topic, error) {
	return s.store.ListTopics(ctx, !includeDrafts)
}

// GetTopic resolves a topic by slug. Unpublished topics are invisible to
// readers.
func (s *Service) GetTopic(ctx context.Context, slugOrID string, includeDrafts bool) (*Topic, error) {
	var (
		topic *Topic
		err   error
	)
	if id, parseErr := uuid.Parse(slugOrID); parseErr == nil {
		topic, err = s.store.GetTopicByID(ctx, id)
	} else {
		topic, err = s.store.GetTopicBySlug(ctx, slugOrID)
	}
	if err != nil {
		return nil, err
	}
	if !topic.Published && !includeDrafts {
		return nil, ErrTopicNotFound
	}
	return topic, nil
}

// LessonInput carries authored lesson material.
type LessonInput struct {
	Title            string
	Body             string
	Kind             string
	EstimatedMinutes int
	Standards        []string
}

// UpsertLesson creates or replaces the topic's lesson for a grade band.
// Kind defaults to reader.
func (s *Service) UpsertLesson(ctx context.Context, topicID uuid.UUID, gradeBand string, in LessonInput) (*Lesson, error) {
	if !ValidGradeBand(gradeBand) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGradeBand, gradeBand)
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("lesson title is required")
	}
	if in.Kind == "" {
		in.Kind = KindReader
	}
	if !ValidKind(in.Kind) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}
	if in.EstimatedMinutes < 0 {
		return nil, fmt.Errorf("estimated minutes cannot be negative")
	}

	existing, err := s.store.GetLesson(ctx, topicID, gradeBand)
	switch {
	case errors.Is(err, ErrLessonNotFound):
		lesson := &Lesson{
			ID:               uuid.New(),
			TopicID:          topicID,
			GradeBand:        gradeBand,
			Kind:             in.Kind,
			Title:            in.Title,
			Body:             in.Body,
			EstimatedMinutes: in.EstimatedMinutes,
			Standards:        in.Standards,
		}
		if err := s.store.CreateLesson(ctx, lesson); err != nil {
			return nil, err
		}
		return lesson, nil

	case err != nil:
		return nil, err
	}

	existing.Kind = in.Kind
	existing.Title = in.Title
	existing.Body = in.Body
	existing.EstimatedMinutes = in.EstimatedMinutes
	existing.Standards = in.Standards
	if err := s.store.UpdateLesson(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// Lessons returns all of a topic's lessons in grade order.
func (s *Service) Lessons(ctx context.Context, topicID uuid.UUID) ([]Lesson, error) {
	return s.store.ListLessons(ctx, topicID)
}

// LessonFor returns the topic's lesson for a grade band, for classroom
// reading.
func (s *Service) LessonFor(ctx context.Context, topicID uuid.UUID, gradeBand string) (*Lesson, error) {
	if !ValidGradeBand(gradeBand) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGradeBand, gradeBand)
	}
	return s.store.GetLesson(ctx, topicID, gradeBand)
}
