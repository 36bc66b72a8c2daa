package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/planbook/planbook-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLessonRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "topic_id", "sub_topic_id", "title", "sort_order", "visibility", "archived", "user_id", "created_at", "updated_at"}).
		AddRow(62, 3, nil, "Slope", 10.0, models.VisibilityPrivate, false, 1, now, now).
		AddRow(63, 3, nil, "Intercepts", 20.0, models.VisibilityPrivate, false, 1, now, now)
	mock.ExpectQuery(`SELECT l\.id, l\.topic_id, l\.sub_topic_id, .+ FROM lessons l\s+JOIN topics t ON t\.id = l\.topic_id`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	lessons, err := repo.ListByCourse(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	require.Equal(t, int64(62), lessons[0].ID)
	require.Equal(t, 10.0, lessons[0].SortOrder)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryUpdatePlacement(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(`UPDATE lessons SET topic_id = \$2, sub_topic_id = \$3, sort_order = \$4, updated_at = \$5 WHERE id = \$1`).
		WithArgs(int64(62), int64(3), nil, 15.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLessonPlacement(context.Background(), 62, 3, nil, 15.0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryInsertReturnsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(`INSERT INTO lessons .+ RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(99))

	lesson := models.Lesson{TopicID: 3, Title: "New Lesson", SortOrder: 40, Visibility: models.VisibilityPrivate, UserID: 1}
	err := repo.InsertLesson(context.Background(), &lesson)
	require.NoError(t, err)
	require.Equal(t, int64(99), lesson.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
