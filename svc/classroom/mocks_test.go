package classroom_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/classloop/classloop/svc/classroom"
	"github.com/classloop/classloop/svc/subscription"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, c *classroom.Classroom) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*classroom.Classroom, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*classroom.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByJoinCode(ctx context.Context, code string) (*classroom.Classroom, error) {
	args := m.Called(ctx, code)
	if c := args.Get(0); c != nil {
		return c.(*classroom.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]classroom.Classroom, error) {
	args := m.Called(ctx, ownerID)
	if list := args.Get(0); list != nil {
		return list.([]classroom.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]classroom.Classroom, error) {
	args := m.Called(ctx, studentID)
	if list := args.Get(0); list != nil {
		return list.([]classroom.Classroom), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpdateJoinCode(ctx context.Context, id uuid.UUID, code string) error {
	args := m.Called(ctx, id, code)
	return args.Error(0)
}

func (m *mockStore) AddEnrollment(ctx context.Context, classroomID, userID uuid.UUID) error {
	args := m.Called(ctx, classroomID, userID)
	return args.Error(0)
}

func (m *mockStore) IsEnrolled(ctx context.Context, classroomID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, classroomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CountEnrollments(ctx context.Context, classroomID uuid.UUID) (int, error) {
	args := m.Called(ctx, classroomID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Roster(ctx context.Context, classroomID uuid.UUID) ([]classroom.RosterEntry, error) {
	args := m.Called(ctx, classroomID)
	if roster := args.Get(0); roster != nil {
		return roster.([]classroom.RosterEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSeatSource struct {
	mock.Mock
}

func (m *mockSeatSource) Get(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	if sub := args.Get(0); sub != nil {
		return sub.(*subscription.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *mockStore, seats *mockSeatSource) *classroom.Service {
	return classroom.NewService(store, seats, classroom.Config{
		JoinBaseURL: "https://app.classloop.test/join",
	}, classroom.WithServiceLogger(discardLogger()))
}
