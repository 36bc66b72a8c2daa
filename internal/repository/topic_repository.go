package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/planbook/planbook-api/internal/models"
)

// TopicRepository manages persistence for topics.
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository constructs a TopicRepository.
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// ListByCourse returns all topics of a course ordered by sort order.
func (r *TopicRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.Topic, error) {
	const query = `SELECT id, course_id, title, sort_order, visibility, archived, user_id, created_at, updated_at
        FROM topics WHERE course_id = $1 AND archived = false ORDER BY sort_order ASC, id ASC`
	var topics []models.Topic
	if err := r.db.SelectContext(ctx, &topics, query, courseID); err != nil {
		return nil, fmt.Errorf("list topics for course %d: %w", courseID, err)
	}
	return topics, nil
}

// InsertTopic creates a topic and assigns its identifier.
func (r *TopicRepository) InsertTopic(ctx context.Context, topic *models.Topic) error {
	now := time.Now().UTC()
	if topic.CreatedAt.IsZero() {
		topic.CreatedAt = now
	}
	topic.UpdatedAt = now
	const query = `INSERT INTO topics (course_id, title, sort_order, visibility, archived, user_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &topic.ID, query,
		topic.CourseID, topic.Title, topic.SortOrder, topic.Visibility, topic.Archived, topic.UserID, topic.CreatedAt, topic.UpdatedAt); err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	return nil
}

// UpdateTopicOrder persists a topic's new sort order.
func (r *TopicRepository) UpdateTopicOrder(ctx context.Context, topicID int64, sortOrder float64) error {
	const query = `UPDATE topics SET sort_order = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, topicID, sortOrder, time.Now().UTC()); err != nil {
		return fmt.Errorf("update topic %d order: %w", topicID, err)
	}
	return nil
}

// Update modifies an existing topic.
func (r *TopicRepository) Update(ctx context.Context, topic *models.Topic) error {
	topic.UpdatedAt = time.Now().UTC()
	const query = `UPDATE topics SET title = :title, sort_order = :sort_order, visibility = :visibility,
        archived = :archived, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, topic); err != nil {
		return fmt.Errorf("update topic %d: %w", topic.ID, err)
	}
	return nil
}
