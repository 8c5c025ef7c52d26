package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classloop/classloop/pkg/pg"
)

// Store persists progress records.
type Store interface {
	Upsert(ctx context.Context, record *Record) error
	Get(ctx context.Context, assignmentID, userID uuid.UUID) (*Record, error)
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]Entry, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Upsert(ctx context.Context, record *Record) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO progress (user_id, assignment_id, status, score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (user_id, assignment_id) DO UPDATE SET
			status = EXCLUDED.status,
			score = EXCLUDED.score,
			updated_at = now()
		RETURNING created_at, updated_at`,
		record.UserID, record.AssignmentID, record.Status, record.Score).
		Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (s *pgStore) Get(ctx context.Context, assignmentID, userID uuid.UUID) (*Record, error) {
	var record Record
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, assignment_id, status, score, created_at, updated_at
		FROM progress
		WHERE assignment_id = $1 AND user_id = $2`,
		assignmentID, userID).Scan(
		&record.UserID, &record.AssignmentID, &record.Status, &record.Score,
		&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &record, nil
}

func (s *pgStore) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.user_id, u.display_name, p.status, p.score, p.updated_at
		FROM progress p
		JOIN users u ON u.id = p.user_id
		WHERE p.assignment_id = $1
		ORDER BY u.display_name`,
		assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.Status,
			&entry.Score, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan progress entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return out, nil
}
