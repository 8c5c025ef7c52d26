package classroom

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classloop/classloop/pkg/pg"
)

// Store persists classrooms and enrollments.
type Store interface {
	Create(ctx context.Context, classroom *Classroom) error
	GetByID(ctx context.Context, id uuid.UUID) (*Classroom, error)
	GetByJoinCode(ctx context.Context, code string) (*Classroom, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Classroom, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]Classroom, error)
	UpdateJoinCode(ctx context.Context, id uuid.UUID, code string) error
	AddEnrollment(ctx context.Context, classroomID, userID uuid.UUID) error
	IsEnrolled(ctx context.Context, classroomID, userID uuid.UUID) (bool, error)
	CountEnrollments(ctx context.Context, classroomID uuid.UUID) (int, error)
	Roster(ctx context.Context, classroomID uuid.UUID) ([]RosterEntry, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const classroomColumns = "id, owner_id, name, grade_band, join_code, created_at, updated_at"

func (s *pgStore) Create(ctx context.Context, classroom *Classroom) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO classrooms (id, owner_id, name, grade_band, join_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at`,
		classroom.ID, classroom.OwnerID, classroom.Name, classroom.GradeBand, classroom.JoinCode).
		Scan(&classroom.CreatedAt, &classroom.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: join code collision", ErrCodeExhausted)
		}
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

func (s *pgStore) GetByID(ctx context.Context, id uuid.UUID) (*Classroom, error) {
	return s.get(ctx, "id = $1", id)
}

func (s *pgStore) GetByJoinCode(ctx context.Context, code string) (*Classroom, error) {
	return s.get(ctx, "join_code = $1", code)
}

func (s *pgStore) get(ctx context.Context, where string, arg any) (*Classroom, error) {
	var c Classroom
	err := s.pool.QueryRow(ctx,
		"SELECT "+classroomColumns+" FROM classrooms WHERE "+where, arg).Scan(
		&c.ID, &c.OwnerID, &c.Name, &c.GradeBand, &c.JoinCode, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get classroom: %w", err)
	}
	return &c, nil
}

func (s *pgStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Classroom, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+classroomColumns+" FROM classrooms WHERE owner_id = $1 ORDER BY created_at",
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return scanClassrooms(rows)
}

func (s *pgStore) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]Classroom, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.owner_id, c.name, c.grade_band, c.join_code, c.created_at, c.updated_at
		FROM classrooms c
		JOIN enrollments e ON e.classroom_id = c.id
		WHERE e.user_id = $1
		ORDER BY e.joined_at`,
		studentID)
	if err != nil {
		return nil, fmt.Errorf("list joined classrooms: %w", err)
	}
	return scanClassrooms(rows)
}

func scanClassrooms(rows pgx.Rows) ([]Classroom, error) {
	defer rows.Close()

	var out []Classroom
	for rows.Next() {
		var c Classroom
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.GradeBand, &c.JoinCode,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan classroom: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classrooms: %w", err)
	}
	return out, nil
}

func (s *pgStore) UpdateJoinCode(ctx context.Context, id uuid.UUID, code string) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE classrooms SET join_code = $2, updated_at = now() WHERE id = $1",
		id, code)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: join code collision", ErrCodeExhausted)
		}
		return fmt.Errorf("update join code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) AddEnrollment(ctx context.Context, classroomID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrollments (classroom_id, user_id, joined_at)
		VALUES ($1, $2, now())`,
		classroomID, userID)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyEnrolled
		}
		return fmt.Errorf("add enrollment: %w", err)
	}
	return nil
}

func (s *pgStore) IsEnrolled(ctx context.Context, classroomID, userID uuid.UUID) (bool, error) {
	var enrolled bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM enrollments WHERE classroom_id = $1 AND user_id = $2)",
		classroomID, userID).Scan(&enrolled)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

func (s *pgStore) CountEnrollments(ctx context.Context, classroomID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM enrollments WHERE classroom_id = $1", classroomID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

func (s *pgStore) Roster(ctx context.Context, classroomID uuid.UUID) ([]RosterEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.display_name, u.avatar_url, e.joined_at
		FROM enrollments e
		JOIN users u ON u.id = e.user_id
		WHERE e.classroom_id = $1
		ORDER BY u.display_name`,
		classroomID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	defer rows.Close()

	var out []RosterEntry
	for rows.Next() {
		var entry RosterEntry
		if err := rows.Scan(&entry.UserID, &entry.DisplayName, &entry.AvatarURL, &entry.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return out, nil
}
