package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
)

// Operation names the lifecycle channel an event is published on.
type Operation string

const (
	OperationAdded   Operation = "added"
	OperationEdited  Operation = "edited"
	OperationDeleted Operation = "deleted"
	OperationMoved   Operation = "moved"
)

// Location pins an entity to a place in the course tree.
type Location struct {
	CourseID   int64             `json:"courseId"`
	ParentID   int64             `json:"parentId"`
	ParentType models.EntityType `json:"parentType"`
}

// PartialUpdateHint asks schedule consumers to regenerate the affected
// calendar range for a course instead of recomputing the full schedule.
type PartialUpdateHint struct {
	CourseID  int64      `json:"courseId"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// Event is the payload fanned out to subscribers. Moved events additionally
// carry source/target locations and the old/new sort order.
type Event struct {
	Entity         interface{}            `json:"entity"`
	EntityType     models.EntityType      `json:"entityType"`
	Source         string                 `json:"source"`
	Operation      Operation              `json:"operation"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	SourceLocation *Location              `json:"sourceLocation,omitempty"`
	TargetLocation *Location              `json:"targetLocation,omitempty"`
	OldSortOrder   *float64               `json:"oldSortOrder,omitempty"`
	NewSortOrder   *float64               `json:"newSortOrder,omitempty"`
	PartialUpdate  *PartialUpdateHint     `json:"partialUpdate,omitempty"`
}

// Subscriber handles a single event. Delivery is synchronous; handlers are
// expected to be cheap.
type Subscriber func(Event)

type channelKey struct {
	entityType models.EntityType
	operation  Operation
}

type subscription struct {
	id int64
	fn Subscriber
}

// Bus is a multicast, replay-none publish/subscribe hub with a last-value
// mirror per channel. Both the fan-out and the mirror are written from the
// single Publish call site so they cannot diverge.
type Bus struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[channelKey][]subscription
	last   map[channelKey]Event
	logger *zap.Logger
}

// NewBus constructs an event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:   make(map[channelKey][]subscription),
		last:   make(map[channelKey]Event),
		logger: logger,
	}
}

// Subscribe registers a handler for one (entity type, operation) channel and
// returns an unsubscribe func. No replay: only events published afterwards
// are delivered.
func (b *Bus) Subscribe(entityType models.EntityType, op Operation, fn Subscriber) func() {
	key := channelKey{entityType: entityType, operation: op}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[key] = append(b.subs[key], subscription{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		current := b.subs[key]
		for i, sub := range current {
			if sub.id == id {
				b.subs[key] = append(current[:i:i], current[i+1:]...)
				break
			}
		}
	}
}

// Publish fans the event out to every subscriber of its channel and updates
// the last-value mirror. A panicking subscriber does not prevent delivery to
// the rest.
func (b *Bus) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	key := channelKey{entityType: ev.EntityType, operation: ev.Operation}

	b.mu.Lock()
	b.last[key] = ev
	targets := make([]subscription, len(b.subs[key]))
	copy(targets, b.subs[key])
	b.mu.Unlock()

	for _, sub := range targets {
		b.deliver(sub, ev)
	}
}

// Last returns the most recent event published on a channel, if any. This is
// the pull-based mirror for consumers that do not hold a subscription.
func (b *Bus) Last(entityType models.EntityType, op Operation) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ev, ok := b.last[channelKey{entityType: entityType, operation: op}]
	return ev, ok
}

func (b *Bus) deliver(sub subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				zap.String("entity_type", string(ev.EntityType)),
				zap.String("operation", string(ev.Operation)),
				zap.Any("panic", r),
			)
		}
	}()
	sub.fn(ev)
}
