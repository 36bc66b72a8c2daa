package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbook/planbook-api/internal/models"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
	"github.com/planbook/planbook-api/pkg/storage"
)

type fakeEventLister struct {
	events []models.ScheduleEvent
}

func (f *fakeEventLister) ListBySchedule(ctx context.Context, scheduleID int64) ([]models.ScheduleEvent, error) {
	return f.events, nil
}

func TestExportDisabledIsForbidden(t *testing.T) {
	svc := NewExportService(&fakeEventLister{}, nil, false, nil)

	_, err := svc.Export(context.Background(), 7, "csv")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(&fakeEventLister{}, nil, true, nil)

	_, err := svc.Export(context.Background(), 7, "xlsx")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportCSVRendersEventRows(t *testing.T) {
	lessonID := int64(42)
	lister := &fakeEventLister{events: []models.ScheduleEvent{
		{
			ScheduleID: 7,
			CourseID:   3,
			Date:       time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC),
			Period:     1,
			LessonID:   &lessonID,
			EventType:  models.EventTypeLesson,
		},
		{
			ScheduleID: 7,
			Date:       time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC),
			Period:     1,
			EventType:  models.EventTypeError,
			Comment:    "No more lessons available",
		},
	}}
	svc := NewExportService(lister, nil, true, nil)

	result, err := svc.Export(context.Background(), 7, "csv")

	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "schedule-7.csv", result.Filename)

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,period,event_type,course_id,lesson_id,comment", lines[0])
	assert.Equal(t, "2026-03-02,1,Lesson,3,42,", lines[1])
	assert.Equal(t, "2026-03-03,1,Error,,,No more lessons available", lines[2])
}

func TestExportArchivesRenderedDocument(t *testing.T) {
	dir := t.TempDir()
	archive, err := storage.NewExportArchive(dir)
	require.NoError(t, err)
	svc := NewExportService(&fakeEventLister{events: []models.ScheduleEvent{
		{ScheduleID: 7, Date: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), Period: 1, EventType: models.EventTypeLesson},
	}}, archive, true, nil)

	result, err := svc.Export(context.Background(), 7, "csv")
	require.NoError(t, err)

	saved, err := os.ReadFile(filepath.Join(dir, "schedule-7.csv"))
	require.NoError(t, err)
	assert.Equal(t, result.Data, saved)
}

func TestExportPDFProducesDocument(t *testing.T) {
	svc := NewExportService(&fakeEventLister{events: []models.ScheduleEvent{
		{ScheduleID: 7, Date: time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), Period: 1, EventType: models.EventTypeLesson},
	}}, nil, true, nil)

	result, err := svc.Export(context.Background(), 7, "pdf")

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}
