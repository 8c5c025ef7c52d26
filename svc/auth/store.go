package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classloop/classloop/pkg/pg"
)

// Store persists user accounts.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatarURL string) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const userColumns = "id, email, display_name, avatar_url, role, created_at, updated_at"

func (s *pgStore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.get(ctx, "id = $1", id)
}

func (s *pgStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.get(ctx, "email = $1", email)
}

func (s *pgStore) get(ctx context.Context, where string, arg any) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where, arg).Scan(
		&user.ID, &user.Email, &user.DisplayName, &user.AvatarURL,
		&user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (s *pgStore) Create(ctx context.Context, user *User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, display_name, avatar_url, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at`,
		user.ID, user.Email, user.DisplayName, user.AvatarURL, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *pgStore) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, avatarURL string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET display_name = $2, avatar_url = $3, updated_at = now()
		WHERE id = $1`,
		id, displayName, avatarURL)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}
