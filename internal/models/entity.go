package models

import (
	"fmt"
	"time"
)

// EntityType identifies a node kind within the course tree.
type EntityType string

const (
	EntityTypeCourse   EntityType = "course"
	EntityTypeTopic    EntityType = "topic"
	EntityTypeSubTopic EntityType = "subtopic"
	EntityTypeLesson   EntityType = "lesson"

	// EntityTypeScheduleEvent is not a tree node; it names the calendar
	// domain on the event bus.
	EntityTypeScheduleEvent EntityType = "scheduleevent"
)

// Valid reports whether the entity type is one of the known kinds.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeCourse, EntityTypeTopic, EntityTypeSubTopic, EntityTypeLesson:
		return true
	default:
		return false
	}
}

// Visibility controls who can see an entity.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityTeam    Visibility = "team"
)

// RelativePosition expresses where a moved entity lands relative to its target.
type RelativePosition string

const (
	PositionBefore RelativePosition = "before"
	PositionAfter  RelativePosition = "after"
)

// NodeID renders the canonical node identifier, e.g. "lesson_62".
// The same convention keys tree lookups and client-side DOM attributes.
func NodeID(t EntityType, id int64) string {
	return fmt.Sprintf("%s_%d", t, id)
}

// Course is the root of a lesson tree.
type Course struct {
	ID         int64      `db:"id" json:"id"`
	Title      string     `db:"title" json:"title"`
	SortOrder  float64    `db:"sort_order" json:"sortOrder"`
	Visibility Visibility `db:"visibility" json:"visibility"`
	Archived   bool       `db:"archived" json:"archived"`
	UserID     int64      `db:"user_id" json:"userId"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// Topic groups sub-topics and lessons within a course.
type Topic struct {
	ID         int64      `db:"id" json:"id"`
	CourseID   int64      `db:"course_id" json:"courseId"`
	Title      string     `db:"title" json:"title"`
	SortOrder  float64    `db:"sort_order" json:"sortOrder"`
	Visibility Visibility `db:"visibility" json:"visibility"`
	Archived   bool       `db:"archived" json:"archived"`
	UserID     int64      `db:"user_id" json:"userId"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// SubTopic groups lessons under a topic. Sub-topics and a topic's direct
// lessons share one sibling ordering.
type SubTopic struct {
	ID         int64      `db:"id" json:"id"`
	TopicID    int64      `db:"topic_id" json:"topicId"`
	Title      string     `db:"title" json:"title"`
	SortOrder  float64    `db:"sort_order" json:"sortOrder"`
	Visibility Visibility `db:"visibility" json:"visibility"`
	Archived   bool       `db:"archived" json:"archived"`
	UserID     int64      `db:"user_id" json:"userId"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// Lesson is a single teachable unit. Invariant: TopicID is always set;
// SubTopicID is set only when the lesson hangs under a sub-topic.
type Lesson struct {
	ID         int64      `db:"id" json:"id"`
	TopicID    int64      `db:"topic_id" json:"topicId"`
	SubTopicID *int64     `db:"sub_topic_id" json:"subTopicId,omitempty"`
	Title      string     `db:"title" json:"title"`
	SortOrder  float64    `db:"sort_order" json:"sortOrder"`
	Visibility Visibility `db:"visibility" json:"visibility"`
	Archived   bool       `db:"archived" json:"archived"`
	UserID     int64      `db:"user_id" json:"userId"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// NodeID returns the lesson's canonical node identifier.
func (l Lesson) NodeID() string { return NodeID(EntityTypeLesson, l.ID) }

// CourseFilter narrows course listings.
type CourseFilter struct {
	Filter     string // active | archived | both
	Visibility Visibility
	UserID     int64
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
