package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/classloop/classloop/svc/auth"
)

type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) AuthURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *mockAdapter) ResolveProfile(ctx context.Context, code string) (auth.Profile, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(auth.Profile), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	args := m.Called(ctx, id)
	if user := args.Get(0); user != nil {
		return user.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if user := args.Get(0); user != nil {
		return user.(*auth.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockStore) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatarURL string) error {
	args := m.Called(ctx, id, displayName, avatarURL)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t *testing.T, adapter *mockAdapter, store *mockStore) *auth.Service {
	t.Helper()

	service, err := auth.NewService(adapter, store, auth.Config{
		SessionSecret: "test-session-secret-0123456789ab",
		SessionTTL:    24 * time.Hour,
	}, auth.WithServiceLogger(discardLogger()))
	require.NoError(t, err)
	return service
}
