package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/pkg/config"
)

type fakeEventStore struct {
	events       []models.ScheduleEvent
	replaced     [][]models.ScheduleEvent
	deletedAfter []time.Time
	inserted     [][]models.ScheduleEvent
}

func (f *fakeEventStore) ListBySchedule(_ context.Context, _ int64) ([]models.ScheduleEvent, error) {
	return f.events, nil
}

func (f *fakeEventStore) ReplaceForSchedule(_ context.Context, _ int64, evs []models.ScheduleEvent) error {
	f.replaced = append(f.replaced, evs)
	f.events = evs
	return nil
}

func (f *fakeEventStore) DeleteGeneratedAfter(_ context.Context, _ int64, after time.Time) error {
	f.deletedAfter = append(f.deletedAfter, after)
	return nil
}

func (f *fakeEventStore) InsertBatch(_ context.Context, evs []models.ScheduleEvent) error {
	f.inserted = append(f.inserted, evs)
	return nil
}

type fakeTreeLoader struct {
	trees map[int64]models.CourseTree
}

func (f *fakeTreeLoader) LoadTree(_ context.Context, courseID int64) (*models.CourseTree, error) {
	tree := f.trees[courseID]
	return &tree, nil
}

func generatorCourse(courseID int64, lessonIDs ...int64) models.CourseTree {
	topic := models.TopicNode{
		Topic: models.Topic{ID: courseID * 100, CourseID: courseID, SortOrder: 10},
	}
	for i, id := range lessonIDs {
		topic.Lessons = append(topic.Lessons, models.Lesson{
			ID:        id,
			TopicID:   topic.Topic.ID,
			SortOrder: float64((i + 1) * 10),
		})
	}
	return models.CourseTree{Course: models.Course{ID: courseID}, Topics: []models.TopicNode{topic}}
}

func newGenerator(store *fakeEventStore, trees *fakeTreeLoader) *ScheduleGeneratorService {
	return NewScheduleGeneratorService(store, trees, nil, nil, nil, nil, config.ScheduleConfig{
		DefaultTeachingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		MaxRangeDays:        366,
		SeedEventID:         -1,
	})
}

func TestGenerateAssignsLessonsOnTeachingDaysOnly(t *testing.T) {
	store := &fakeEventStore{}
	trees := &fakeTreeLoader{trees: map[int64]models.CourseTree{
		7: generatorCourse(7, 101, 102, 103),
	}}
	svc := newGenerator(store, trees)

	// Mon 2026-09-07 through Sun 2026-09-13, teaching Mon/Wed/Fri.
	events, err := svc.Generate(context.Background(), models.ScheduleConfig{
		ScheduleID:   1,
		StartDate:    day(2026, time.September, 7),
		EndDate:      day(2026, time.September, 13),
		TeachingDays: []string{"Monday", "Wednesday", "Friday"},
		Periods: []models.PeriodAssignment{
			{Period: 1, Kind: models.PeriodKindCourse, CourseID: 7},
		},
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, day(2026, time.September, 7), events[0].Date)
	assert.Equal(t, day(2026, time.September, 9), events[1].Date)
	assert.Equal(t, day(2026, time.September, 11), events[2].Date)
	for i, ev := range events {
		assert.Equal(t, models.EventTypeLesson, ev.EventType)
		require.NotNil(t, ev.LessonID)
		assert.Equal(t, int64(101+i), *ev.LessonID)
	}
	require.Len(t, store.replaced, 1)
}

func TestGenerateFallsBackToErrorEventsWhenLessonsRunOut(t *testing.T) {
	store := &fakeEventStore{}
	trees := &fakeTreeLoader{trees: map[int64]models.CourseTree{
		7: generatorCourse(7, 101),
	}}
	svc := newGenerator(store, trees)

	events, err := svc.Generate(context.Background(), models.ScheduleConfig{
		ScheduleID:   1,
		StartDate:    day(2026, time.September, 7),
		EndDate:      day(2026, time.September, 9),
		TeachingDays: []string{"Monday", "Tuesday", "Wednesday"},
		Periods: []models.PeriodAssignment{
			{Period: 1, Kind: models.PeriodKindCourse, CourseID: 7},
		},
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, models.EventTypeLesson, events[0].EventType)
	assert.Equal(t, models.EventTypeError, events[1].EventType)
	assert.Equal(t, models.EventTypeError, events[2].EventType)
	assert.NotEmpty(t, events[1].Comment)
}

func TestGenerateAssignsDecrementingNegativeIDs(t *testing.T) {
	store := &fakeEventStore{}
	trees := &fakeTreeLoader{trees: map[int64]models.CourseTree{
		7: generatorCourse(7, 101, 102, 103, 104, 105),
	}}
	svc := newGenerator(store, trees)

	events, err := svc.Generate(context.Background(), models.ScheduleConfig{
		ScheduleID:   1,
		StartDate:    day(2026, time.September, 7),
		EndDate:      day(2026, time.September, 11),
		TeachingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		Periods: []models.PeriodAssignment{
			{Period: 1, Kind: models.PeriodKindCourse, CourseID: 7},
		},
	})
	require.NoError(t, err)

	require.Len(t, events, 5)
	seen := make(map[int64]bool)
	for _, ev := range events {
		assert.Less(t, ev.ID, int64(0))
		assert.False(t, ev.Persisted())
		assert.False(t, seen[ev.ID], "duplicate event id %d", ev.ID)
		seen[ev.ID] = true
	}
}

func TestGenerateSpecialPeriodUsesSpecialType(t *testing.T) {
	store := &fakeEventStore{}
	svc := newGenerator(store, &fakeTreeLoader{})

	events, err := svc.Generate(context.Background(), models.ScheduleConfig{
		ScheduleID:   1,
		StartDate:    day(2026, time.September, 7),
		EndDate:      day(2026, time.September, 7),
		TeachingDays: []string{"Monday"},
		Periods: []models.PeriodAssignment{
			{Period: 2, Kind: models.PeriodKindSpecial, SpecialType: "Lunch", DisplayName: "Lunch Break"},
		},
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, models.EventType("Lunch"), events[0].EventType)
	assert.Equal(t, "Lunch Break", events[0].Comment)
}

func TestGenerateUsesDefaultTeachingDaysWhenUnset(t *testing.T) {
	store := &fakeEventStore{}
	trees := &fakeTreeLoader{trees: map[int64]models.CourseTree{
		7: generatorCourse(7, 101, 102, 103, 104, 105, 106, 107),
	}}
	svc := newGenerator(store, trees)

	// Mon through Sun with no mask: defaults cover Mon-Fri.
	events, err := svc.Generate(context.Background(), models.ScheduleConfig{
		ScheduleID: 1,
		StartDate:  day(2026, time.September, 7),
		EndDate:    day(2026, time.September, 13),
		Periods: []models.PeriodAssignment{
			{Period: 1, Kind: models.PeriodKindCourse, CourseID: 7},
		},
	})
	require.NoError(t, err)
	assert.Len(t, events, 5)
}

func TestGenerateRejectsInvertedDateRange(t *testing.T) {
	svc := newGenerator(&fakeEventStore{}, &fakeTreeLoader{})

	_, err := svc.Generate(context.Background(), models.ScheduleConfig{
		ScheduleID:   1,
		StartDate:    day(2026, time.September, 11),
		EndDate:      day(2026, time.September, 7),
		TeachingDays: []string{"Monday"},
		Periods: []models.PeriodAssignment{
			{Period: 1, Kind: models.PeriodKindCourse, CourseID: 7},
		},
	})
	require.Error(t, err)
}

func TestContinueResumesSequenceWithoutRestarting(t *testing.T) {
	// Lessons 101 and 102 were already taught; the continuation must pick
	// up at 103, not restart from 101.
	store := &fakeEventStore{events: []models.ScheduleEvent{
		lessonEvent(1, 7, 101, day(2026, time.September, 7)),
		lessonEvent(1, 7, 102, day(2026, time.September, 8)),
	}}
	trees := &fakeTreeLoader{trees: map[int64]models.CourseTree{
		7: generatorCourse(7, 101, 102, 103, 104),
	}}
	svc := newGenerator(store, trees)

	events, err := svc.Continue(context.Background(), models.ScheduleConfig{
		ScheduleID:   1,
		StartDate:    day(2026, time.September, 7),
		EndDate:      day(2026, time.September, 11),
		TeachingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		Periods: []models.PeriodAssignment{
			{Period: 1, Kind: models.PeriodKindCourse, CourseID: 7},
		},
	}, day(2026, time.September, 8))
	require.NoError(t, err)

	require.Len(t, events, 3)
	require.NotNil(t, events[0].LessonID)
	assert.Equal(t, int64(103), *events[0].LessonID)
	require.NotNil(t, events[1].LessonID)
	assert.Equal(t, int64(104), *events[1].LessonID)
	assert.Equal(t, models.EventTypeError, events[2].EventType)

	require.Len(t, store.deletedAfter, 1)
	assert.Equal(t, day(2026, time.September, 8), store.deletedAfter[0])
	require.Len(t, store.inserted, 1)
}

func TestContinueRegeneratesSpecialPeriodEvents(t *testing.T) {
	// Generated Lunch events are deleted with the rest of the generated
	// range, so the continuation must emit fresh ones for every remaining
	// teaching day instead of treating the old slots as occupied.
	lunch := func(d time.Time) models.ScheduleEvent {
		return models.ScheduleEvent{
			ID:            -int64(d.Day()),
			ScheduleID:    1,
			Date:          d,
			Period:        2,
			EventType:     models.EventType("Lunch"),
			EventCategory: models.EventCategoryGenerated,
		}
	}
	store := &fakeEventStore{events: []models.ScheduleEvent{
		lunch(day(2026, time.September, 7)),
		lunch(day(2026, time.September, 8)),
		lunch(day(2026, time.September, 9)),
		lunch(day(2026, time.September, 10)),
	}}
	svc := newGenerator(store, &fakeTreeLoader{})

	events, err := svc.Continue(context.Background(), models.ScheduleConfig{
		ScheduleID:   1,
		StartDate:    day(2026, time.September, 7),
		EndDate:      day(2026, time.September, 10),
		TeachingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday"},
		Periods: []models.PeriodAssignment{
			{Period: 2, Kind: models.PeriodKindSpecial, SpecialType: "Lunch"},
		},
	}, day(2026, time.September, 7))
	require.NoError(t, err)

	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, day(2026, time.September, 8+i), ev.Date)
		assert.Equal(t, models.EventType("Lunch"), ev.EventType)
	}
}

func TestContinueSkipsOccupiedSlotsWithoutConsumingLessons(t *testing.T) {
	holiday := models.ScheduleEvent{
		ID:            500,
		ScheduleID:    1,
		Date:          day(2026, time.September, 9),
		Period:        1,
		EventType:     models.EventType("Holiday"),
		EventCategory: models.EventCategoryManual,
	}
	store := &fakeEventStore{events: []models.ScheduleEvent{
		lessonEvent(1, 7, 101, day(2026, time.September, 7)),
		holiday,
	}}
	trees := &fakeTreeLoader{trees: map[int64]models.CourseTree{
		7: generatorCourse(7, 101, 102, 103),
	}}
	svc := newGenerator(store, trees)

	events, err := svc.Continue(context.Background(), models.ScheduleConfig{
		ScheduleID:   1,
		StartDate:    day(2026, time.September, 7),
		EndDate:      day(2026, time.September, 10),
		TeachingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday"},
		Periods: []models.PeriodAssignment{
			{Period: 1, Kind: models.PeriodKindCourse, CourseID: 7},
		},
	}, day(2026, time.September, 7))
	require.NoError(t, err)

	// Tue gets lesson 102, Wed is held by the manual holiday, Thu gets 103.
	require.Len(t, events, 2)
	assert.Equal(t, day(2026, time.September, 8), events[0].Date)
	require.NotNil(t, events[0].LessonID)
	assert.Equal(t, int64(102), *events[0].LessonID)
	assert.Equal(t, day(2026, time.September, 10), events[1].Date)
	require.NotNil(t, events[1].LessonID)
	assert.Equal(t, int64(103), *events[1].LessonID)
}
