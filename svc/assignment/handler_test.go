package assignment_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/classloop/classloop/svc/assignment"
	"github.com/classloop/classloop/svc/auth"
	"github.com/classloop/classloop/svc/content"
)

func newRouter(store *mockStore, rooms *mockClassrooms, topics *mockTopics, user auth.User) http.Handler {
	handler := assignment.NewHandler(newTestService(store, rooms, topics),
		assignment.WithHandlerLogger(discardLogger()))

	injectUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
	return handler.Routes(injectUser)
}

func TestHandler_Assign(t *testing.T) {
	t.Parallel()

	teacher := auth.User{ID: uuid.New(), Role: auth.RoleTeacher}

	post := func(router http.Handler, classroomID, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/classrooms/"+classroomID+"/assignments",
			strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("teacher assigns topic", func(t *testing.T) {
		t.Parallel()

		room := ownedRoom(teacher.ID)
		topic := publishedTopic()

		store := new(mockStore)
		rooms := new(mockClassrooms)
		topics := new(mockTopics)
		rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
		topics.On("GetTopicByID", mock.Anything, topic.ID).Return(topic, nil)
		topics.On("GetLesson", mock.Anything, topic.ID, content.Band68).
			Return(&content.Lesson{ID: uuid.New()}, nil)
		store.On("Create", mock.Anything, mock.Anything).Return(nil)

		rec := post(newRouter(store, rooms, topics, teacher), room.ID.String(),
			`{"topic_id":"`+topic.ID.String()+`","instructions":"Read chapter 2"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"grade_band":"6-8"`)
		assert.Contains(t, rec.Body.String(), "Read chapter 2")
	})

	t.Run("draft topic conflicts", func(t *testing.T) {
		t.Parallel()

		room := ownedRoom(teacher.ID)
		topic := publishedTopic()
		topic.Published = false

		rooms := new(mockClassrooms)
		topics := new(mockTopics)
		rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
		topics.On("GetTopicByID", mock.Anything, topic.ID).Return(topic, nil)

		rec := post(newRouter(new(mockStore), rooms, topics, teacher), room.ID.String(),
			`{"topic_id":"`+topic.ID.String()+`"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "topic_draft")
	})

	t.Run("missing lesson conflicts", func(t *testing.T) {
		t.Parallel()

		room := ownedRoom(teacher.ID)
		topic := publishedTopic()

		rooms := new(mockClassrooms)
		topics := new(mockTopics)
		rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
		topics.On("GetTopicByID", mock.Anything, topic.ID).Return(topic, nil)
		topics.On("GetLesson", mock.Anything, topic.ID, content.Band68).
			Return(nil, content.ErrLessonNotFound)

		rec := post(newRouter(new(mockStore), rooms, topics, teacher), room.ID.String(),
			`{"topic_id":"`+topic.ID.String()+`"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "no_lesson")
	})

	t.Run("malformed topic id rejected", func(t *testing.T) {
		t.Parallel()

		room := ownedRoom(teacher.ID)
		rec := post(newRouter(new(mockStore), new(mockClassrooms), new(mockTopics), teacher),
			room.ID.String(), `{"topic_id":"not-a-uuid"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("student blocked by role gate", func(t *testing.T) {
		t.Parallel()

		student := auth.User{ID: uuid.New(), Role: auth.RoleStudent}
		rec := post(newRouter(new(mockStore), new(mockClassrooms), new(mockTopics), student),
			uuid.NewString(), `{"topic_id":"`+uuid.NewString()+`"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandler_List(t *testing.T) {
	t.Parallel()

	t.Run("enrolled student lists assignments", func(t *testing.T) {
		t.Parallel()

		student := auth.User{ID: uuid.New(), Role: auth.RoleStudent}
		room := ownedRoom(uuid.New())
		list := []assignment.Assignment{
			{ID: uuid.New(), ClassroomID: room.ID, TopicID: uuid.New(), GradeBand: content.Band68},
		}

		store := new(mockStore)
		rooms := new(mockClassrooms)
		rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
		rooms.On("IsEnrolled", mock.Anything, room.ID, student.ID).Return(true, nil)
		store.On("ListByClassroom", mock.Anything, room.ID).Return(list, nil)

		router := newRouter(store, rooms, new(mockTopics), student)
		req := httptest.NewRequest(http.MethodGet, "/classrooms/"+room.ID.String()+"/assignments", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), list[0].ID.String())
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		t.Parallel()

		outsider := auth.User{ID: uuid.New(), Role: auth.RoleStudent}
		room := ownedRoom(uuid.New())

		rooms := new(mockClassrooms)
		rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
		rooms.On("IsEnrolled", mock.Anything, room.ID, outsider.ID).Return(false, nil)

		router := newRouter(new(mockStore), rooms, new(mockTopics), outsider)
		req := httptest.NewRequest(http.MethodGet, "/classrooms/"+room.ID.String()+"/assignments", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_member")
	})
}

func TestHandler_Remove(t *testing.T) {
	t.Parallel()

	teacher := auth.User{ID: uuid.New(), Role: auth.RoleTeacher}
	room := ownedRoom(teacher.ID)
	stored := &assignment.Assignment{ID: uuid.New(), ClassroomID: room.ID}

	store := new(mockStore)
	rooms := new(mockClassrooms)
	store.On("GetByID", mock.Anything, stored.ID).Return(stored, nil)
	rooms.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	store.On("Delete", mock.Anything, stored.ID).Return(nil)

	router := newRouter(store, rooms, new(mockTopics), teacher)
	req := httptest.NewRequest(http.MethodDelete, "/assignments/"+stored.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	store.AssertExpectations(t)
}
