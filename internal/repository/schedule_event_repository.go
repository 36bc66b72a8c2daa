package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/planbook/planbook-api/internal/models"
)

// ScheduleEventRepository manages persistence for schedule events.
type ScheduleEventRepository struct {
	db *sqlx.DB
}

// NewScheduleEventRepository constructs a ScheduleEventRepository.
func NewScheduleEventRepository(db *sqlx.DB) *ScheduleEventRepository {
	return &ScheduleEventRepository{db: db}
}

// ListBySchedule returns every event of a schedule ordered by date and period.
func (r *ScheduleEventRepository) ListBySchedule(ctx context.Context, scheduleID int64) ([]models.ScheduleEvent, error) {
	const query = `SELECT id, schedule_id, course_id, date, period, lesson_id, event_type, event_category, comment, created_at, updated_at
        FROM schedule_events WHERE schedule_id = $1 ORDER BY date ASC, period ASC`
	var events []models.ScheduleEvent
	if err := r.db.SelectContext(ctx, &events, query, scheduleID); err != nil {
		return nil, fmt.Errorf("list events for schedule %d: %w", scheduleID, err)
	}
	return events, nil
}

// ListFiltered returns events narrowed by the filter.
func (r *ScheduleEventRepository) ListFiltered(ctx context.Context, filter models.ScheduleEventFilter) ([]models.ScheduleEvent, error) {
	conditions := []string{"schedule_id = $1"}
	args := []interface{}{filter.ScheduleID}

	if filter.CourseID != 0 {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Period != 0 {
		conditions = append(conditions, fmt.Sprintf("period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	query := fmt.Sprintf(`SELECT id, schedule_id, course_id, date, period, lesson_id, event_type, event_category, comment, created_at, updated_at
        FROM schedule_events WHERE %s ORDER BY date ASC, period ASC`, strings.Join(conditions, " AND "))

	var events []models.ScheduleEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list filtered events for schedule %d: %w", filter.ScheduleID, err)
	}
	return events, nil
}

// ReplaceForSchedule drops a schedule's generated events and inserts the new
// set in one transaction. Manually placed events survive.
func (r *ScheduleEventRepository) ReplaceForSchedule(ctx context.Context, scheduleID int64, events []models.ScheduleEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace events: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM schedule_events WHERE schedule_id = $1 AND event_category = $2`,
		scheduleID, models.EventCategoryGenerated); err != nil {
		return fmt.Errorf("clear generated events for schedule %d: %w", scheduleID, err)
	}
	if err = insertEvents(ctx, tx, events); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace events: %w", err)
	}
	return nil
}

// DeleteGeneratedAfter removes generated events strictly after the cut date.
func (r *ScheduleEventRepository) DeleteGeneratedAfter(ctx context.Context, scheduleID int64, after time.Time) error {
	const query = `DELETE FROM schedule_events WHERE schedule_id = $1 AND event_category = $2 AND date > $3`
	if _, err := r.db.ExecContext(ctx, query, scheduleID, models.EventCategoryGenerated, after); err != nil {
		return fmt.Errorf("delete generated events after %s: %w", after.Format("2006-01-02"), err)
	}
	return nil
}

// InsertBatch persists a batch of events within a transaction.
func (r *ScheduleEventRepository) InsertBatch(ctx context.Context, events []models.ScheduleEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert events: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = insertEvents(ctx, tx, events); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit insert events: %w", err)
	}
	return nil
}

// Delete removes one event.
func (r *ScheduleEventRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete event %d: %w", id, err)
	}
	return nil
}

// insertEvents strips client-side negative identifiers so the database
// assigns real keys.
func insertEvents(ctx context.Context, tx *sqlx.Tx, events []models.ScheduleEvent) error {
	const query = `INSERT INTO schedule_events (schedule_id, course_id, date, period, lesson_id, event_type, event_category, comment, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	now := time.Now().UTC()
	for _, ev := range events {
		createdAt := ev.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx, query,
			ev.ScheduleID, ev.CourseID, ev.Date, ev.Period, ev.LessonID, ev.EventType, ev.EventCategory, ev.Comment, createdAt, now); err != nil {
			return fmt.Errorf("insert event for schedule %d on %s: %w", ev.ScheduleID, ev.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}
