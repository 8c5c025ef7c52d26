package assignment_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/classloop/classloop/svc/assignment"
	"github.com/classloop/classloop/svc/classroom"
	"github.com/classloop/classloop/svc/content"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, a *assignment.Assignment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*assignment.Assignment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByClassroom(ctx context.Context, classroomID uuid.UUID) ([]assignment.Assignment, error) {
	args := m.Called(ctx, classroomID)
	if list := args.Get(0); list != nil {
		return list.([]assignment.Assignment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockClassrooms struct {
	mock.Mock
}

func (m *mockClassrooms) GetByID(ctx context.Context, id uuid.UUID) (*classroom.Classroom, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*classroom.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClassrooms) IsEnrolled(ctx context.Context, classroomID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, classroomID, userID)
	return args.Bool(0), args.Error(1)
}

type mockTopics struct {
	mock.Mock
}

func (m *mockTopics) GetTopicByID(ctx context.Context, id uuid.UUID) (*content.Topic, error) {
	args := m.Called(ctx, id)
	if t := args.Get(0); t != nil {
		return t.(*content.Topic), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTopics) GetLesson(ctx context.Context, topicID uuid.UUID, gradeBand string) (*content.Lesson, error) {
	args := m.Called(ctx, topicID, gradeBand)
	if l := args.Get(0); l != nil {
		return l.(*content.Lesson), args.Error(1)
	}
	return nil, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testNow pins the clock so due date validation is deterministic.
var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestService(store *mockStore, rooms *mockClassrooms, topics *mockTopics) *assignment.Service {
	return assignment.NewService(store, rooms, topics,
		assignment.WithClock(func() time.Time { return testNow }),
		assignment.WithServiceLogger(discardLogger()))
}
