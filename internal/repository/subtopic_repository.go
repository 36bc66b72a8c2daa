package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/planbook/planbook-api/internal/models"
)

// SubTopicRepository manages persistence for sub-topics.
type SubTopicRepository struct {
	db *sqlx.DB
}

// NewSubTopicRepository constructs a SubTopicRepository.
func NewSubTopicRepository(db *sqlx.DB) *SubTopicRepository {
	return &SubTopicRepository{db: db}
}

// ListByCourse returns all sub-topics belonging to a course's topics.
func (r *SubTopicRepository) ListByCourse(ctx context.Context, courseID int64) ([]models.SubTopic, error) {
	const query = `SELECT st.id, st.topic_id, st.title, st.sort_order, st.visibility, st.archived, st.user_id, st.created_at, st.updated_at
        FROM sub_topics st
        JOIN topics t ON t.id = st.topic_id
        WHERE t.course_id = $1 AND st.archived = false
        ORDER BY st.sort_order ASC, st.id ASC`
	var subTopics []models.SubTopic
	if err := r.db.SelectContext(ctx, &subTopics, query, courseID); err != nil {
		return nil, fmt.Errorf("list sub-topics for course %d: %w", courseID, err)
	}
	return subTopics, nil
}

// InsertSubTopic creates a sub-topic and assigns its identifier.
func (r *SubTopicRepository) InsertSubTopic(ctx context.Context, subTopic *models.SubTopic) error {
	now := time.Now().UTC()
	if subTopic.CreatedAt.IsZero() {
		subTopic.CreatedAt = now
	}
	subTopic.UpdatedAt = now
	const query = `INSERT INTO sub_topics (topic_id, title, sort_order, visibility, archived, user_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.GetContext(ctx, &subTopic.ID, query,
		subTopic.TopicID, subTopic.Title, subTopic.SortOrder, subTopic.Visibility, subTopic.Archived, subTopic.UserID, subTopic.CreatedAt, subTopic.UpdatedAt); err != nil {
		return fmt.Errorf("create sub-topic: %w", err)
	}
	return nil
}

// UpdateSubTopicPlacement moves a sub-topic to a topic at a sort order. Its
// lessons keep their topic reference aligned in the same transaction.
func (r *SubTopicRepository) UpdateSubTopicPlacement(ctx context.Context, subTopicID, topicID int64, sortOrder float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sub-topic placement: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx,
		`UPDATE sub_topics SET topic_id = $2, sort_order = $3, updated_at = $4 WHERE id = $1`,
		subTopicID, topicID, sortOrder, now); err != nil {
		return fmt.Errorf("update sub-topic %d placement: %w", subTopicID, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE lessons SET topic_id = $2, updated_at = $3 WHERE sub_topic_id = $1`,
		subTopicID, topicID, now); err != nil {
		return fmt.Errorf("retarget lessons of sub-topic %d: %w", subTopicID, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sub-topic placement: %w", err)
	}
	return nil
}

// Update modifies an existing sub-topic.
func (r *SubTopicRepository) Update(ctx context.Context, subTopic *models.SubTopic) error {
	subTopic.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sub_topics SET title = :title, sort_order = :sort_order, visibility = :visibility,
        archived = :archived, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, subTopic); err != nil {
		return fmt.Errorf("update sub-topic %d: %w", subTopic.ID, err)
	}
	return nil
}
