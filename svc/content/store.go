package content

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classloop/classloop/pkg/pg"
)

// Store persists topics and lessons.
type Store interface {
	CreateTopic(ctx context.Context, topic *Topic) error
	UpdateTopic(ctx context.Context, topic *Topic) error
	GetTopicByID(ctx context.Context, id uuid.UUID) (*Topic, error)
	GetTopicBySlug(ctx context.Context, slug string) (*Topic, error)
	ListTopics(ctx context.Context, publishedOnly bool) ([]Topic, error)

	CreateLesson(ctx context.Context, lesson *Lesson) error
	UpdateLesson(ctx context.Context, lesson *Lesson) error
	GetLesson(ctx context.Context, topicID uuid.UUID, gradeBand string) (*Lesson, error)
	GetLessonByID(ctx context.Context, id uuid.UUID) (*Lesson, error)
	ListLessons(ctx context.Context, topicID uuid.UUID) ([]Lesson, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

const topicColumns = "id, slug, title, summary, published, created_at, updated_at"

func (s *pgStore) CreateTopic(ctx context.Context, topic *Topic) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO topics (id, slug, title, summary, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING created_at, updated_at`,
		topic.ID, topic.Slug, topic.Title, topic.Summary, topic.Published).
		Scan(&topic.CreatedAt, &topic.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

func (s *pgStore) UpdateTopic(ctx context.Context, topic *Topic) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE topics SET slug = $2, title = $3, summary = $4, published = $5, updated_at = now()
		WHERE id = $1`,
		topic.ID, topic.Slug, topic.Title, topic.Summary, topic.Published)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update topic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTopicNotFound
	}
	return nil
}

func (s *pgStore) GetTopicByID(ctx context.Context, id uuid.UUID) (*Topic, error) {
	return s.getTopic(ctx, "id = $1", id)
}

func (s *pgStore) GetTopicBySlug(ctx context.Context, slug string) (*Topic, error) {
	return s.getTopic(ctx, "slug = $1", slug)
}

func (s *pgStore) getTopic(ctx context.Context, where string, arg any) (*Topic, error) {
	var topic Topic
	err := s.pool.QueryRow(ctx,
		"SELECT "+topicColumns+" FROM topics WHERE "+where, arg).Scan(
		&topic.ID, &topic.Slug, &topic.Title, &topic.Summary, &topic.Published,
		&topic.CreatedAt, &topic.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("get topic: %w", err)
	}
	return &topic, nil
}

func (s *pgStore) ListTopics(ctx context.Context, publishedOnly bool) ([]Topic, error) {
	query := "SELECT " + topicColumns + " FROM topics"
	if publishedOnly {
		query += " WHERE published"
	}
	query += " ORDER BY title"

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var out []Topic
	for rows.Next() {
		var topic Topic
		if err := rows.Scan(&topic.ID, &topic.Slug, &topic.Title, &topic.Summary,
			&topic.Published, &topic.CreatedAt, &topic.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return out, nil
}

const lessonColumns = "id, topic_id, grade_band, kind, title, body, estimated_minutes, standards, created_at, updated_at"

func (s *pgStore) CreateLesson(ctx context.Context, lesson *Lesson) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO lessons (id, topic_id, grade_band, kind, title, body, estimated_minutes, standards, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING created_at, updated_at`,
		lesson.ID, lesson.TopicID, lesson.GradeBand, lesson.Kind, lesson.Title,
		lesson.Body, lesson.EstimatedMinutes, lesson.Standards).
		Scan(&lesson.CreatedAt, &lesson.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateLevel
		}
		if pg.IsForeignKeyViolationError(err) {
			return ErrTopicNotFound
		}
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

func (s *pgStore) UpdateLesson(ctx context.Context, lesson *Lesson) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE lessons SET kind = $2, title = $3, body = $4, estimated_minutes = $5,
			standards = $6, updated_at = now()
		WHERE id = $1`,
		lesson.ID, lesson.Kind, lesson.Title, lesson.Body,
		lesson.EstimatedMinutes, lesson.Standards)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLessonNotFound
	}
	return nil
}

func (s *pgStore) GetLesson(ctx context.Context, topicID uuid.UUID, gradeBand string) (*Lesson, error) {
	return s.getLesson(ctx, "topic_id = $1 AND grade_band = $2", topicID, gradeBand)
}

func (s *pgStore) GetLessonByID(ctx context.Context, id uuid.UUID) (*Lesson, error) {
	return s.getLesson(ctx, "id = $1", id)
}

func (s *pgStore) getLesson(ctx context.Context, where string, args ...any) (*Lesson, error) {
	var lesson Lesson
	err := s.pool.QueryRow(ctx,
		"SELECT "+lessonColumns+" FROM lessons WHERE "+where, args...).Scan(
		&lesson.ID, &lesson.TopicID, &lesson.GradeBand, &lesson.Kind, &lesson.Title,
		&lesson.Body, &lesson.EstimatedMinutes, &lesson.Standards,
		&lesson.CreatedAt, &lesson.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return &lesson, nil
}

func (s *pgStore) ListLessons(ctx context.Context, topicID uuid.UUID) ([]Lesson, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+lessonColumns+` FROM lessons
		WHERE topic_id = $1
		ORDER BY array_position($2::text[], grade_band)`,
		topicID, GradeBands)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return scanLessons(rows)
}

func scanLessons(rows pgx.Rows) ([]Lesson, error) {
	defer rows.Close()

	var out []Lesson
	for rows.Next() {
		var lesson Lesson
		if err := rows.Scan(&lesson.ID, &lesson.TopicID, &lesson.GradeBand, &lesson.Kind,
			&lesson.Title, &lesson.Body, &lesson.EstimatedMinutes, &lesson.Standards,
			&lesson.CreatedAt, &lesson.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		out = append(out, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lessons: %w", err)
	}
	return out, nil
}
