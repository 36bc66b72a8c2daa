package models

import "time"

// EventType labels a schedule event. Special periods carry their own tag
// (e.g. "Lunch", "Duty") in EventType rather than a lesson reference.
type EventType string

const (
	EventTypeLesson EventType = "Lesson"
	EventTypeError  EventType = "Error"
)

// EventCategory distinguishes how an event entered the schedule.
type EventCategory string

const (
	EventCategoryGenerated EventCategory = "generated"
	EventCategoryManual    EventCategory = "manual"
)

// ScheduleEvent is one teaching slot on one calendar day. Negative IDs mark
// client-generated events that have not been persisted yet.
type ScheduleEvent struct {
	ID            int64         `db:"id" json:"id"`
	ScheduleID    int64         `db:"schedule_id" json:"scheduleId"`
	CourseID      int64         `db:"course_id" json:"courseId"`
	Date          time.Time     `db:"date" json:"date"`
	Period        int           `db:"period" json:"period"`
	LessonID      *int64        `db:"lesson_id" json:"lessonId,omitempty"`
	EventType     EventType     `db:"event_type" json:"eventType"`
	EventCategory EventCategory `db:"event_category" json:"eventCategory"`
	Comment       string        `db:"comment" json:"comment"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updatedAt"`
}

// Persisted reports whether the event has a server-assigned identifier.
func (e ScheduleEvent) Persisted() bool { return e.ID > 0 }

// ScheduleEventFilter narrows schedule event listings.
type ScheduleEventFilter struct {
	ScheduleID int64
	CourseID   int64
	Period     int
	From       *time.Time
	To         *time.Time
}
