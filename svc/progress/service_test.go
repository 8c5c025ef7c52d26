package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/classloop/classloop/svc/assignment"
	"github.com/classloop/classloop/svc/classroom"
	"github.com/classloop/classloop/svc/progress"
)

type fixture struct {
	teacherID   uuid.UUID
	studentID   uuid.UUID
	room        *classroom.Classroom
	assigned    *assignment.Assignment
	store       *mockStore
	assignments *mockAssignments
	classrooms  *mockClassrooms
	service     *progress.Service
}

func newFixture() *fixture {
	f := &fixture{
		teacherID:   uuid.New(),
		studentID:   uuid.New(),
		store:       new(mockStore),
		assignments: new(mockAssignments),
		classrooms:  new(mockClassrooms),
	}
	f.room = &classroom.Classroom{ID: uuid.New(), OwnerID: f.teacherID, Name: "Period 3"}
	f.assigned = &assignment.Assignment{ID: uuid.New(), ClassroomID: f.room.ID, TopicID: uuid.New()}
	f.assignments.On("GetByID", mock.Anything, f.assigned.ID).Return(f.assigned, nil)
	f.classrooms.On("GetByID", mock.Anything, f.room.ID).Return(f.room, nil)
	f.service = newTestService(f.store, f.assignments, f.classrooms)
	return f
}

func TestService_Record(t *testing.T) {
	t.Parallel()

	t.Run("student records completion with score", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		score := 85
		f.classrooms.On("IsEnrolled", mock.Anything, f.room.ID, f.studentID).Return(true, nil)
		f.store.On("Upsert", mock.Anything, mock.MatchedBy(func(r *progress.Record) bool {
			return r.UserID == f.studentID && r.AssignmentID == f.assigned.ID &&
				r.Status == progress.StatusCompleted && r.Score != nil && *r.Score == 85
		})).Return(nil)

		got, err := f.service.Record(context.Background(), f.studentID, f.assigned.ID,
			progress.StatusCompleted, &score)
		require.NoError(t, err)
		assert.Equal(t, progress.StatusCompleted, got.Status)
		f.store.AssertExpectations(t)
	})

	t.Run("resubmission overwrites", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.classrooms.On("IsEnrolled", mock.Anything, f.room.ID, f.studentID).Return(true, nil)
		f.store.On("Upsert", mock.Anything, mock.Anything).Return(nil).Twice()

		_, err := f.service.Record(context.Background(), f.studentID, f.assigned.ID,
			progress.StatusStarted, nil)
		require.NoError(t, err)
		_, err = f.service.Record(context.Background(), f.studentID, f.assigned.ID,
			progress.StatusCompleted, nil)
		require.NoError(t, err)
		f.store.AssertExpectations(t)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		_, err := f.service.Record(context.Background(), f.studentID, f.assigned.ID, "paused", nil)
		require.ErrorIs(t, err, progress.ErrInvalidStatus)
	})

	t.Run("score out of range rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		for _, score := range []int{-1, 101} {
			s := score
			_, err := f.service.Record(context.Background(), f.studentID, f.assigned.ID,
				progress.StatusCompleted, &s)
			require.ErrorIs(t, err, progress.ErrInvalidScore)
		}
	})

	t.Run("teacher cannot record own progress", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		_, err := f.service.Record(context.Background(), f.teacherID, f.assigned.ID,
			progress.StatusStarted, nil)
		require.ErrorIs(t, err, progress.ErrOwnerProgress)
	})

	t.Run("outsider rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		outsiderID := uuid.New()
		f.classrooms.On("IsEnrolled", mock.Anything, f.room.ID, outsiderID).Return(false, nil)

		_, err := f.service.Record(context.Background(), outsiderID, f.assigned.ID,
			progress.StatusStarted, nil)
		require.ErrorIs(t, err, progress.ErrNotMember)
	})

	t.Run("unknown assignment", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		missingID := uuid.New()
		f.assignments.On("GetByID", mock.Anything, missingID).Return(nil, assignment.ErrNotFound)

		_, err := f.service.Record(context.Background(), f.studentID, missingID,
			progress.StatusStarted, nil)
		require.ErrorIs(t, err, progress.ErrNotFound)
	})
}

func TestService_Own(t *testing.T) {
	t.Parallel()

	t.Run("returns own record", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		record := &progress.Record{
			UserID:       f.studentID,
			AssignmentID: f.assigned.ID,
			Status:       progress.StatusStarted,
			UpdatedAt:    time.Now(),
		}
		f.classrooms.On("IsEnrolled", mock.Anything, f.room.ID, f.studentID).Return(true, nil)
		f.store.On("Get", mock.Anything, f.assigned.ID, f.studentID).Return(record, nil)

		got, err := f.service.Own(context.Background(), f.studentID, f.assigned.ID)
		require.NoError(t, err)
		assert.Equal(t, progress.StatusStarted, got.Status)
	})

	t.Run("not started yet", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.classrooms.On("IsEnrolled", mock.Anything, f.room.ID, f.studentID).Return(true, nil)
		f.store.On("Get", mock.Anything, f.assigned.ID, f.studentID).Return(nil, progress.ErrNotFound)

		_, err := f.service.Own(context.Background(), f.studentID, f.assigned.ID)
		require.ErrorIs(t, err, progress.ErrNotFound)
	})
}

func TestService_Summary(t *testing.T) {
	t.Parallel()

	t.Run("counts records against roster", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		score := 92
		entries := []progress.Entry{
			{UserID: uuid.New(), DisplayName: "Alex", Status: progress.StatusCompleted, Score: &score},
			{UserID: uuid.New(), DisplayName: "Blair", Status: progress.StatusStarted},
			{UserID: uuid.New(), DisplayName: "Casey", Status: progress.StatusCompleted},
		}
		f.store.On("ListByAssignment", mock.Anything, f.assigned.ID).Return(entries, nil)
		f.classrooms.On("CountEnrollments", mock.Anything, f.room.ID).Return(25, nil)

		summary, err := f.service.Summary(context.Background(), f.teacherID, f.assigned.ID)
		require.NoError(t, err)
		assert.Equal(t, 25, summary.Enrolled)
		assert.Equal(t, 1, summary.Started)
		assert.Equal(t, 2, summary.Completed)
		assert.Len(t, summary.Entries, 3)
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		_, err := f.service.Summary(context.Background(), uuid.New(), f.assigned.ID)
		require.ErrorIs(t, err, progress.ErrNotOwner)
	})

	t.Run("empty classroom rolls up to zeros", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.store.On("ListByAssignment", mock.Anything, f.assigned.ID).Return([]progress.Entry{}, nil)
		f.classrooms.On("CountEnrollments", mock.Anything, f.room.ID).Return(0, nil)

		summary, err := f.service.Summary(context.Background(), f.teacherID, f.assigned.ID)
		require.NoError(t, err)
		assert.Zero(t, summary.Started)
		assert.Zero(t, summary.Completed)
	})
}
