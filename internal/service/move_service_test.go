package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbook/planbook-api/internal/events"
	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/state"
)

func subTopicRef(id int64) *int64 { return &id }

func moveFixtureTree() models.CourseTree {
	return models.CourseTree{
		Course: models.Course{ID: 1, Title: "Algebra"},
		Topics: []models.TopicNode{
			{
				Topic: models.Topic{ID: 3, CourseID: 1, Title: "Linear Equations", SortOrder: 10},
				SubTopics: []models.SubTopicNode{
					{
						SubTopic: models.SubTopic{ID: 5, TopicID: 3, Title: "Word Problems", SortOrder: 25},
						Lessons: []models.Lesson{
							{ID: 80, TopicID: 3, SubTopicID: subTopicRef(5), Title: "Trains and Tunnels", SortOrder: 10},
						},
					},
				},
				Lessons: []models.Lesson{
					{ID: 62, TopicID: 3, Title: "Slope", SortOrder: 10},
					{ID: 63, TopicID: 3, Title: "Intercepts", SortOrder: 20},
					{ID: 64, TopicID: 3, Title: "Graphing", SortOrder: 30},
				},
			},
			{
				Topic: models.Topic{ID: 4, CourseID: 1, Title: "Quadratics", SortOrder: 20},
				Lessons: []models.Lesson{
					{ID: 70, TopicID: 4, Title: "Factoring", SortOrder: 10},
				},
			},
		},
	}
}

func newMoveFixture(t *testing.T) (*MoveService, *state.TreeStore, *events.Bus) {
	t.Helper()
	store := state.NewTreeStore(nil)
	require.NoError(t, store.Replace(moveFixtureTree()))
	bus := events.NewBus(nil)
	svc := NewMoveService(store, NewSortOrderService(nil), nil, nil, nil, bus, nil, nil, nil)
	return svc, store, bus
}

type failingLessonWriter struct{}

func (failingLessonWriter) UpdateLessonPlacement(context.Context, int64, int64, *int64, float64) error {
	return errors.New("connection reset")
}

func (failingLessonWriter) InsertLesson(context.Context, *models.Lesson) error {
	return errors.New("connection reset")
}

func TestMoveLessonKeepsTreeWhenPersistenceFails(t *testing.T) {
	store := state.NewTreeStore(nil)
	require.NoError(t, store.Replace(moveFixtureTree()))
	svc := NewMoveService(store, NewSortOrderService(nil), failingLessonWriter{}, nil, nil, nil, nil, nil, nil)

	_, err := svc.MoveLesson(context.Background(), 1, 62, models.MoveRequest{
		RelativeToID:     63,
		RelativePosition: models.PositionBefore,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.Error(t, err)

	tree, _, ok := store.Get(1)
	require.True(t, ok)
	lesson, found := tree.FindLesson(62)
	require.True(t, found)
	assert.Equal(t, 10.0, lesson.SortOrder)
	assert.Nil(t, lesson.SubTopicID)
}

func TestMoveLessonBeforeSiblingUsesMidpoint(t *testing.T) {
	svc, store, _ := newMoveFixture(t)

	resp, err := svc.MoveLesson(context.Background(), 1, 62, models.MoveRequest{
		RelativeToID:     63,
		RelativePosition: models.PositionBefore,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccess, resp.ErrorMessage)

	require.Len(t, resp.ModifiedEntities, 1)
	modified := resp.ModifiedEntities[0]
	assert.Equal(t, int64(62), modified.ID)
	assert.Equal(t, models.EntityTypeLesson, modified.Type)
	assert.True(t, modified.IsMovedEntity)
	assert.Equal(t, 15.0, modified.SortOrder)

	tree, _, ok := store.Get(1)
	require.True(t, ok)
	lesson, found := tree.FindLesson(62)
	require.True(t, found)
	assert.Equal(t, 15.0, lesson.SortOrder)
}

func TestMoveLessonAfterLastSiblingExtendsRange(t *testing.T) {
	svc, _, _ := newMoveFixture(t)

	resp, err := svc.MoveLesson(context.Background(), 1, 63, models.MoveRequest{
		RelativeToID:     64,
		RelativePosition: models.PositionAfter,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccess, resp.ErrorMessage)
	assert.Equal(t, 40.0, resp.ModifiedEntities[0].SortOrder)
}

func TestMoveLessonIntoSubTopicAdoptsParent(t *testing.T) {
	svc, store, _ := newMoveFixture(t)

	resp, err := svc.MoveLesson(context.Background(), 1, 62, models.MoveRequest{
		RelativeToID:     80,
		RelativePosition: models.PositionAfter,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccess, resp.ErrorMessage)

	tree, _, ok := store.Get(1)
	require.True(t, ok)
	lesson, found := tree.FindLesson(62)
	require.True(t, found)
	require.NotNil(t, lesson.SubTopicID)
	assert.Equal(t, int64(5), *lesson.SubTopicID)
	assert.Equal(t, int64(3), lesson.TopicID)

	siblings, ok := tree.SubTopicLessonSiblings(5)
	require.True(t, ok)
	assert.Len(t, siblings, 2)
}

func TestMoveLessonRelativeToSubTopicBecomesDirectChild(t *testing.T) {
	svc, store, _ := newMoveFixture(t)

	resp, err := svc.MoveLesson(context.Background(), 1, 80, models.MoveRequest{
		RelativeToID:     5,
		RelativePosition: models.PositionBefore,
		RelativeToType:   models.EntityTypeSubTopic,
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccess, resp.ErrorMessage)

	tree, _, ok := store.Get(1)
	require.True(t, ok)
	lesson, found := tree.FindLesson(80)
	require.True(t, found)
	assert.Nil(t, lesson.SubTopicID)
	assert.Equal(t, int64(3), lesson.TopicID)
}

func TestMoveLessonRejectsSelfTarget(t *testing.T) {
	svc, _, _ := newMoveFixture(t)

	resp, err := svc.MoveLesson(context.Background(), 1, 62, models.MoveRequest{
		RelativeToID:     62,
		RelativePosition: models.PositionBefore,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess)
	assert.NotEmpty(t, resp.ErrorMessage)
	assert.Empty(t, resp.ModifiedEntities)
}

func TestMoveTopicRejectsLessonTarget(t *testing.T) {
	svc, _, _ := newMoveFixture(t)

	resp, err := svc.MoveTopic(context.Background(), 1, 3, models.MoveRequest{
		RelativeToID:     62,
		RelativePosition: models.PositionAfter,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess)
}

func TestMoveSubTopicRejectsNestedLessonTarget(t *testing.T) {
	svc, _, _ := newMoveFixture(t)

	// Lesson 80 lives inside sub-topic 5; sub-topics cannot nest.
	resp, err := svc.MoveSubTopic(context.Background(), 1, 5, models.MoveRequest{
		RelativeToID:     80,
		RelativePosition: models.PositionBefore,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess)
}

func TestMoveLessonRejectsUnknownTarget(t *testing.T) {
	svc, _, _ := newMoveFixture(t)

	resp, err := svc.MoveLesson(context.Background(), 1, 62, models.MoveRequest{
		RelativeToID:     999,
		RelativePosition: models.PositionBefore,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess)
}

func TestMovePublishesMovedEvent(t *testing.T) {
	svc, _, bus := newMoveFixture(t)

	var received []events.Event
	bus.Subscribe(models.EntityTypeLesson, events.OperationMoved, func(ev events.Event) {
		received = append(received, ev)
	})

	_, err := svc.MoveLesson(context.Background(), 1, 62, models.MoveRequest{
		RelativeToID:     63,
		RelativePosition: models.PositionBefore,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	ev := received[0]
	require.NotNil(t, ev.OldSortOrder)
	require.NotNil(t, ev.NewSortOrder)
	assert.Equal(t, 10.0, *ev.OldSortOrder)
	assert.Equal(t, 15.0, *ev.NewSortOrder)
	require.NotNil(t, ev.SourceLocation)
	require.NotNil(t, ev.TargetLocation)
	assert.Equal(t, int64(1), ev.TargetLocation.CourseID)

	last, ok := bus.Last(models.EntityTypeLesson, events.OperationMoved)
	require.True(t, ok)
	assert.Equal(t, ev.Timestamp, last.Timestamp)
}

func TestMoveCarriesPartialUpdateHintToSubscribers(t *testing.T) {
	svc, _, bus := newMoveFixture(t)

	start := day(2026, time.September, 7)
	var hints []*events.PartialUpdateHint
	bus.Subscribe(models.EntityTypeLesson, events.OperationMoved, func(ev events.Event) {
		hints = append(hints, ev.PartialUpdate)
	})

	_, err := svc.MoveLesson(context.Background(), 1, 62, models.MoveRequest{
		RelativeToID:                 63,
		RelativePosition:             models.PositionBefore,
		RelativeToType:               models.EntityTypeLesson,
		CalendarStartDate:            &start,
		RequestPartialScheduleUpdate: true,
	})
	require.NoError(t, err)

	require.Len(t, hints, 1)
	require.NotNil(t, hints[0])
	assert.Equal(t, int64(1), hints[0].CourseID)
	require.NotNil(t, hints[0].StartDate)
	assert.Equal(t, start, *hints[0].StartDate)

	// Without the request flag the event carries no hint.
	hints = nil
	_, err = svc.MoveLesson(context.Background(), 1, 62, models.MoveRequest{
		RelativeToID:     64,
		RelativePosition: models.PositionAfter,
		RelativeToType:   models.EntityTypeLesson,
	})
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.Nil(t, hints[0])
}

func TestRegroupLessonAppendsToSubTopic(t *testing.T) {
	svc, store, _ := newMoveFixture(t)

	resp, err := svc.RegroupLesson(context.Background(), 1, 62, models.RegroupRequest{
		NewParentID:   5,
		NewParentType: models.EntityTypeSubTopic,
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccess, resp.ErrorMessage)

	// Sub-topic 5 held one lesson at order 10; the append lands at 20.
	assert.Equal(t, 20.0, resp.ModifiedEntities[0].SortOrder)

	tree, _, ok := store.Get(1)
	require.True(t, ok)
	lesson, found := tree.FindLesson(62)
	require.True(t, found)
	require.NotNil(t, lesson.SubTopicID)
	assert.Equal(t, int64(5), *lesson.SubTopicID)
}

func TestRegroupSubTopicCarriesLessons(t *testing.T) {
	svc, store, _ := newMoveFixture(t)

	resp, err := svc.RegroupSubTopic(context.Background(), 1, 5, models.RegroupRequest{
		NewParentID:   4,
		NewParentType: models.EntityTypeTopic,
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccess, resp.ErrorMessage)

	tree, _, ok := store.Get(1)
	require.True(t, ok)
	st, found := tree.FindSubTopic(5)
	require.True(t, found)
	assert.Equal(t, int64(4), st.TopicID)

	lesson, found := tree.FindLesson(80)
	require.True(t, found)
	assert.Equal(t, int64(4), lesson.TopicID)
	require.NotNil(t, lesson.SubTopicID)
	assert.Equal(t, int64(5), *lesson.SubTopicID)
}

func TestCopyLessonLeavesOriginalInPlace(t *testing.T) {
	svc, store, _ := newMoveFixture(t)

	resp, err := svc.CopyLesson(context.Background(), 1, 62, models.CopyRequest{
		NewParentID:   4,
		NewParentType: models.EntityTypeTopic,
	})
	require.NoError(t, err)
	require.True(t, resp.IsSuccess, resp.ErrorMessage)

	tree, _, ok := store.Get(1)
	require.True(t, ok)

	original, found := tree.FindLesson(62)
	require.True(t, found)
	assert.Equal(t, int64(3), original.TopicID)
	assert.Equal(t, 10.0, original.SortOrder)

	siblings, ok := tree.TopicChildSiblings(4)
	require.True(t, ok)
	assert.Len(t, siblings, 2)
}
