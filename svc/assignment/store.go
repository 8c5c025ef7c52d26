package assignment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classloop/classloop/pkg/pg"
)

// Store persists assignments.
type Store interface {
	Create(ctx context.Context, assignment *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	ListByClassroom(ctx context.Context, classroomID uuid.UUID) ([]Assignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const assignmentColumns = "id, classroom_id, topic_id, grade_band, instructions, due_at, created_at, updated_at"

func (s *pgStore) Create(ctx context.Context, a *Assignment) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO assignments (id, classroom_id, topic_id, grade_band, instructions, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at`,
		a.ID, a.ClassroomID, a.TopicID, a.GradeBand, a.Instructions, a.DueAt).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

func (s *pgStore) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	var a Assignment
	err := s.pool.QueryRow(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE id = $1", id).Scan(
		&a.ID, &a.ClassroomID, &a.TopicID, &a.GradeBand, &a.Instructions, &a.DueAt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return &a, nil
}

func (s *pgStore) ListByClassroom(ctx context.Context, classroomID uuid.UUID) ([]Assignment, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+assignmentColumns+" FROM assignments WHERE classroom_id = $1 ORDER BY due_at NULLS LAST, created_at",
		classroomID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.ClassroomID, &a.TopicID, &a.GradeBand, &a.Instructions,
			&a.DueAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, nil
}

func (s *pgStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM assignments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
