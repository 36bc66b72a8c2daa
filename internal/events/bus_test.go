package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var first, second []Event
	bus.Subscribe(models.EntityTypeLesson, OperationMoved, func(ev Event) { first = append(first, ev) })
	bus.Subscribe(models.EntityTypeLesson, OperationMoved, func(ev Event) { second = append(second, ev) })

	bus.Publish(Event{EntityType: models.EntityTypeLesson, Operation: OperationMoved, Source: "move_service"})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "move_service", first[0].Source)
	assert.False(t, first[0].Timestamp.IsZero())
}

func TestBusChannelsAreIndependent(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var moved, deleted int
	bus.Subscribe(models.EntityTypeLesson, OperationMoved, func(Event) { moved++ })
	bus.Subscribe(models.EntityTypeLesson, OperationDeleted, func(Event) { deleted++ })

	bus.Publish(Event{EntityType: models.EntityTypeLesson, Operation: OperationMoved})
	bus.Publish(Event{EntityType: models.EntityTypeLesson, Operation: OperationMoved})

	assert.Equal(t, 2, moved)
	assert.Equal(t, 0, deleted)
}

func TestBusPanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var delivered int
	bus.Subscribe(models.EntityTypeTopic, OperationEdited, func(Event) { panic("boom") })
	bus.Subscribe(models.EntityTypeTopic, OperationEdited, func(Event) { delivered++ })

	bus.Publish(Event{EntityType: models.EntityTypeTopic, Operation: OperationEdited})

	assert.Equal(t, 1, delivered)
}

func TestBusLastValueMirrorTracksPublish(t *testing.T) {
	bus := NewBus(zap.NewNop())

	_, ok := bus.Last(models.EntityTypeLesson, OperationAdded)
	assert.False(t, ok, "no replay before first publish")

	old, updated := 10.0, 15.0
	bus.Publish(Event{
		EntityType:   models.EntityTypeLesson,
		Operation:    OperationMoved,
		OldSortOrder: &old,
		NewSortOrder: &updated,
	})

	last, ok := bus.Last(models.EntityTypeLesson, OperationMoved)
	require.True(t, ok)
	require.NotNil(t, last.NewSortOrder)
	assert.Equal(t, 15.0, *last.NewSortOrder)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var count int
	unsubscribe := bus.Subscribe(models.EntityTypeSubTopic, OperationMoved, func(Event) { count++ })

	bus.Publish(Event{EntityType: models.EntityTypeSubTopic, Operation: OperationMoved})
	unsubscribe()
	bus.Publish(Event{EntityType: models.EntityTypeSubTopic, Operation: OperationMoved})

	assert.Equal(t, 1, count)
}
