package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/planbook/planbook-api/internal/models"
)

// LessonRepository manages persistence for lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// ListByCourse returns all lessons belonging to a course's topics.
func (r *LessonRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error) {
	const query = `SELECT l.id, l.topic_id, l.sub_topic_id, l.title, l.sort_order, l.visibility, l.archived, l.user_id, l.created_at, l.updated_at
        FROM lessons l
        JOIN topics t ON t.id = l.topic_id
        WHERE t.course_id = $1 AND l.archived = false
        ORDER BY l.sort_order ASC, l.id ASC`
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, courseID); err != nil {
		return nil, fmt.Errorf("list lessons for course %d: %w", courseID, err)
	}
	return lessons, nil
}

// FindByID fetches a lesson by ID.
func (r *LessonRepository) FindByID(ctx context.Context, id int64) (*models.Lesson, error) {
	const query = `SELECT id, topic_id, sub_topic_id, title, sort_order, visibility, archived, user_id, created_at, updated_at
        FROM lessons WHERE id = $1`
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find lesson %d: %w", id, err)
	}
	return &lesson, nil
}

// InsertLesson creates a lesson and assigns its identifier.
func (r *LessonRepository) InsertLesson(ctx context.Context, lesson *models.Lesson) error {
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now
	const query = `INSERT INTO lessons (topic_id, sub_topic_id, title, sort_order, visibility, archived, user_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	if err := r.db.GetContext(ctx, &lesson.ID, query,
		lesson.TopicID, lesson.SubTopicID, lesson.Title, lesson.SortOrder, lesson.Visibility, lesson.Archived, lesson.UserID, lesson.CreatedAt, lesson.UpdatedAt); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update modifies an existing lesson.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET title = :title, sort_order = :sort_order, visibility = :visibility,
        archived = :archived, topic_id = :topic_id, sub_topic_id = :sub_topic_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson %d: %w", lesson.ID, err)
	}
	return nil
}

// UpdateLessonPlacement persists a lesson's new parent and sort order.
func (r *LessonRepository) UpdateLessonPlacement(ctx context.Context, lessonID, topicID int64, subTopicID *int64, sortOrder float64) error {
	const query = `UPDATE lessons SET topic_id = $2, sub_topic_id = $3, sort_order = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, lessonID, topicID, subTopicID, sortOrder, time.Now().UTC()); err != nil {
		return fmt.Errorf("update lesson %d placement: %w", lessonID, err)
	}
	return nil
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson %d: %w", id, err)
	}
	return nil
}
