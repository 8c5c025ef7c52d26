package classroom_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/classloop/classloop/pkg/billing"
	"github.com/classloop/classloop/svc/auth"
	"github.com/classloop/classloop/svc/classroom"
	"github.com/classloop/classloop/svc/subscription"
)

func newRouter(store *mockStore, seats *mockSeatSource, user auth.User) http.Handler {
	handler := classroom.NewHandler(newTestService(store, seats),
		classroom.WithHandlerLogger(discardLogger()))

	injectUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), user)))
		})
	}
	return handler.Routes(injectUser)
}

func TestHandler_CreateClassroom(t *testing.T) {
	t.Parallel()

	teacher := auth.User{ID: uuid.New(), Role: auth.RoleTeacher}

	t.Run("teacher creates classroom", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		store.On("Create", mock.Anything, mock.Anything).Return(nil)
		router := newRouter(store, new(mockSeatSource), teacher)

		req := httptest.NewRequest(http.MethodPost, "/classrooms",
			strings.NewReader(`{"name":"Period 3","grade_band":"6-8"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"join_code"`)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		t.Parallel()

		router := newRouter(new(mockStore), new(mockSeatSource), teacher)
		req := httptest.NewRequest(http.MethodPost, "/classrooms",
			strings.NewReader(`{"name":"  "}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown grade band rejected", func(t *testing.T) {
		t.Parallel()

		router := newRouter(new(mockStore), new(mockSeatSource), teacher)
		req := httptest.NewRequest(http.MethodPost, "/classrooms",
			strings.NewReader(`{"name":"Period 3","grade_band":"k-2"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid_grade_band")
	})

	t.Run("student blocked by role gate", func(t *testing.T) {
		t.Parallel()

		student := auth.User{ID: uuid.New(), Role: auth.RoleStudent}
		router := newRouter(new(mockStore), new(mockSeatSource), student)

		req := httptest.NewRequest(http.MethodPost, "/classrooms",
			strings.NewReader(`{"name":"Period 3"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandler_Join(t *testing.T) {
	t.Parallel()

	ownerID := uuid.New()
	student := auth.User{ID: uuid.New(), Role: auth.RoleStudent}
	room := &classroom.Classroom{ID: uuid.New(), OwnerID: ownerID, Name: "Period 3", JoinCode: "ABC234"}

	post := func(router http.Handler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/classrooms/join", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("student joins and sees no join code", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		seats := new(mockSeatSource)
		store.On("GetByJoinCode", mock.Anything, "ABC234").Return(room, nil)
		seats.On("Get", mock.Anything, ownerID).Return(&subscription.Subscription{
			UserID: ownerID, Status: billing.StatusActive, SeatsLimit: 36,
		}, nil)
		store.On("CountEnrollments", mock.Anything, room.ID).Return(3, nil)
		store.On("AddEnrollment", mock.Anything, room.ID, student.ID).Return(nil)

		rec := post(newRouter(store, seats, student), `{"code":"abc-234"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"Period 3"`)
		assert.NotContains(t, rec.Body.String(), "ABC234")
	})

	t.Run("full classroom conflicts", func(t *testing.T) {
		t.Parallel()

		store := new(mockStore)
		seats := new(mockSeatSource)
		store.On("GetByJoinCode", mock.Anything, "ABC234").Return(room, nil)
		seats.On("Get", mock.Anything, ownerID).Return(&subscription.Subscription{
			UserID: ownerID, Status: billing.StatusActive, SeatsLimit: 36,
		}, nil)
		store.On("CountEnrollments", mock.Anything, room.ID).Return(36, nil)

		rec := post(newRouter(store, seats, student), `{"code":"ABC234"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "classroom_full")
	})

	t.Run("bad code is 404", func(t *testing.T) {
		t.Parallel()

		rec := post(newRouter(new(mockStore), new(mockSeatSource), student), `{"code":"??"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_JoinQR(t *testing.T) {
	t.Parallel()

	teacher := auth.User{ID: uuid.New(), Role: auth.RoleTeacher}
	room := &classroom.Classroom{ID: uuid.New(), OwnerID: teacher.ID, JoinCode: "ABC234"}

	store := new(mockStore)
	store.On("GetByID", mock.Anything, room.ID).Return(room, nil)
	router := newRouter(store, new(mockSeatSource), teacher)

	req := httptest.NewRequest(http.MethodGet, "/classrooms/"+room.ID.String()+"/qr.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, rec.Body.Bytes()[:4])
}
