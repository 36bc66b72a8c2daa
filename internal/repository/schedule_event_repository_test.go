package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/planbook/planbook-api/internal/models"
)

func TestScheduleEventRepositoryReplaceForSchedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEventRepository(db)

	lessonID := int64(101)
	events := []models.ScheduleEvent{
		{
			ID:            -1,
			ScheduleID:    1,
			CourseID:      7,
			Date:          time.Date(2026, time.September, 7, 0, 0, 0, 0, time.UTC),
			Period:        1,
			LessonID:      &lessonID,
			EventType:     models.EventTypeLesson,
			EventCategory: models.EventCategoryGenerated,
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM schedule_events WHERE schedule_id = \$1 AND event_category = \$2`).
		WithArgs(int64(1), models.EventCategoryGenerated).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO schedule_events`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForSchedule(context.Background(), 1, events)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEventRepositoryDeleteGeneratedAfter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEventRepository(db)

	cut := time.Date(2026, time.September, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM schedule_events WHERE schedule_id = \$1 AND event_category = \$2 AND date > \$3`).
		WithArgs(int64(1), models.EventCategoryGenerated, cut).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := repo.DeleteGeneratedAfter(context.Background(), 1, cut)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleEventRepositoryReplaceRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM schedule_events`).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.ReplaceForSchedule(context.Background(), 1, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
