package progress_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/classloop/classloop/svc/assignment"
	"github.com/classloop/classloop/svc/classroom"
	"github.com/classloop/classloop/svc/progress"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upsert(ctx context.Context, record *progress.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockStore) Get(ctx context.Context, assignmentID, userID uuid.UUID) (*progress.Record, error) {
	args := m.Called(ctx, assignmentID, userID)
	if r := args.Get(0); r != nil {
		return r.(*progress.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]progress.Entry, error) {
	args := m.Called(ctx, assignmentID)
	if list := args.Get(0); list != nil {
		return list.([]progress.Entry), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAssignments struct {
	mock.Mock
}

func (m *mockAssignments) GetByID(ctx context.Context, id uuid.UUID) (*assignment.Assignment, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*assignment.Assignment), args.Error(1)
	}
	return nil, args.Error(1)
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

func (m *mockClassrooms) CountEnrollments(ctx context.Context, classroomID uuid.UUID) (int, error) {
	args := m.Called(ctx, classroomID)
	return args.Int(0), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *mockStore, assignments *mockAssignments, rooms *mockClassrooms) *progress.Service {
	return progress.NewService(store, assignments, rooms,
		progress.WithServiceLogger(discardLogger()))
}
