package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/planbook/planbook-api/internal/models"
)

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the filter. Filter is one of active,
// archived or both; an empty filter means active.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	switch strings.ToLower(filter.Filter) {
	case "", "active":
		conditions = append(conditions, "archived = false")
	case "archived":
		conditions = append(conditions, "archived = true")
	case "both":
	default:
		return nil, fmt.Errorf("unknown course filter %q", filter.Filter)
	}

	if filter.Visibility != "" {
		conditions = append(conditions, fmt.Sprintf("visibility = $%d", len(args)+1))
		args = append(args, filter.Visibility)
	}
	if filter.UserID != 0 {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}

	query := fmt.Sprintf(`SELECT id, title, sort_order, visibility, archived, user_id, created_at, updated_at
        FROM courses WHERE %s ORDER BY sort_order ASC, id ASC`, strings.Join(conditions, " AND "))

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	const query = `SELECT id, title, sort_order, visibility, archived, user_id, created_at, updated_at
        FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course %d: %w", id, err)
	}
	return &course, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (title, sort_order, visibility, archived, user_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.GetContext(ctx, &course.ID, query,
		course.Title, course.SortOrder, course.Visibility, course.Archived, course.UserID, course.CreatedAt, course.UpdatedAt); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, sort_order = :sort_order, visibility = :visibility,
        archived = :archived, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course %d: %w", course.ID, err)
	}
	return nil
}

// SetArchived flips the archived flag on a course.
func (r *CourseRepository) SetArchived(ctx context.Context, id int64, archived bool) error {
	const query = `UPDATE courses SET archived = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, archived, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive course %d: %w", id, err)
	}
	return nil
}
