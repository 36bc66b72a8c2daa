package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func lessonSeq(ids ...int64) []models.Lesson {
	lessons := make([]models.Lesson, len(ids))
	for i, id := range ids {
		lessons[i] = models.Lesson{ID: id, SortOrder: float64((i + 1) * 10)}
	}
	return lessons
}

func lessonEvent(period int, courseID, lessonID int64, date time.Time) models.ScheduleEvent {
	return models.ScheduleEvent{
		Period:    period,
		CourseID:  courseID,
		LessonID:  &lessonID,
		Date:      date,
		EventType: models.EventTypeLesson,
	}
}

func continuationConfig(period int, courseID int64) models.ScheduleConfig {
	return models.ScheduleConfig{
		Periods: []models.PeriodAssignment{
			{Period: period, Kind: models.PeriodKindCourse, CourseID: courseID},
		},
	}
}

func TestFindContinuationPointsNoEventsStartsFromBeginning(t *testing.T) {
	svc := NewContinuationService(zap.NewNop())
	after := day(2026, time.March, 6)

	points := svc.FindContinuationPoints(nil, after, continuationConfig(2, 7), map[int64][]models.Lesson{
		7: lessonSeq(62, 63, 64),
	})

	require.Len(t, points, 1)
	assert.Equal(t, -1, points[0].LastAssignedLessonIndex)
	assert.Equal(t, after.AddDate(0, 0, 1), points[0].ContinuationDate)
	assert.Equal(t, 2, points[0].Period)
	assert.Equal(t, int64(7), points[0].CourseID)
}

func TestFindContinuationPointsPartiallyConsumed(t *testing.T) {
	svc := NewContinuationService(zap.NewNop())

	// k = 2 of n = 4 lessons assigned: expect exactly one point at index k-1.
	events := []models.ScheduleEvent{
		lessonEvent(1, 7, 62, day(2026, time.March, 2)),
		lessonEvent(1, 7, 63, day(2026, time.March, 4)),
	}
	points := svc.FindContinuationPoints(events, day(2026, time.March, 6), continuationConfig(1, 7), map[int64][]models.Lesson{
		7: lessonSeq(62, 63, 64, 65),
	})

	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].LastAssignedLessonIndex)
}

func TestFindContinuationPointsFullyConsumedCourse(t *testing.T) {
	svc := NewContinuationService(zap.NewNop())

	events := []models.ScheduleEvent{
		lessonEvent(1, 7, 62, day(2026, time.March, 2)),
		lessonEvent(1, 7, 63, day(2026, time.March, 3)),
	}
	points := svc.FindContinuationPoints(events, day(2026, time.March, 6), continuationConfig(1, 7), map[int64][]models.Lesson{
		7: lessonSeq(62, 63),
	})

	assert.Empty(t, points, "fully consumed course produces no continuation point")
}

func TestFindContinuationPointsIgnoresOtherPeriodsAndSpecials(t *testing.T) {
	svc := NewContinuationService(zap.NewNop())

	cfg := models.ScheduleConfig{
		Periods: []models.PeriodAssignment{
			{Period: 1, Kind: models.PeriodKindCourse, CourseID: 7},
			{Period: 3, Kind: models.PeriodKindSpecial, SpecialType: "Lunch"},
			{Period: 4, Kind: models.PeriodKindUnassigned},
		},
	}
	// Event on another period must not count toward period 1.
	events := []models.ScheduleEvent{
		lessonEvent(2, 7, 62, day(2026, time.March, 2)),
	}
	points := svc.FindContinuationPoints(events, day(2026, time.March, 6), cfg, map[int64][]models.Lesson{
		7: lessonSeq(62, 63),
	})

	require.Len(t, points, 1)
	assert.Equal(t, -1, points[0].LastAssignedLessonIndex)
}

func TestFindContinuationPointsUnknownLessonLoggedNotFatal(t *testing.T) {
	svc := NewContinuationService(zap.NewNop())

	events := []models.ScheduleEvent{
		lessonEvent(1, 7, 999, day(2026, time.March, 2)),
		lessonEvent(1, 7, 62, day(2026, time.March, 3)),
	}
	points := svc.FindContinuationPoints(events, day(2026, time.March, 6), continuationConfig(1, 7), map[int64][]models.Lesson{
		7: lessonSeq(62, 63),
	})

	require.Len(t, points, 1)
	assert.Equal(t, 0, points[0].LastAssignedLessonIndex)
}
