package models

import "time"

// MoveRequest is a positional move within one parent ("sort" semantics).
type MoveRequest struct {
	CourseID         int64            `json:"courseId" validate:"required"`
	RelativeToID     int64            `json:"relativeToId" validate:"required"`
	RelativePosition RelativePosition `json:"relativePosition" validate:"required,oneof=before after"`
	RelativeToType   EntityType       `json:"relativeToType" validate:"required"`

	CalendarStartDate            *time.Time `json:"calendarStartDate,omitempty"`
	CalendarEndDate              *time.Time `json:"calendarEndDate,omitempty"`
	RequestPartialScheduleUpdate bool       `json:"requestPartialScheduleUpdate,omitempty"`
}

// RegroupRequest reparents an entity; the server appends it to the end of the
// new parent's sibling set.
type RegroupRequest struct {
	CourseID      int64      `json:"courseId" validate:"required"`
	NewParentID   int64      `json:"newParentId" validate:"required"`
	NewParentType EntityType `json:"newParentType" validate:"required"`

	CalendarStartDate            *time.Time `json:"calendarStartDate,omitempty"`
	CalendarEndDate              *time.Time `json:"calendarEndDate,omitempty"`
	RequestPartialScheduleUpdate bool       `json:"requestPartialScheduleUpdate,omitempty"`
}

// CopyRequest duplicates an entity subtree under a new parent.
type CopyRequest struct {
	CourseID      int64      `json:"courseId" validate:"required"`
	NewParentID   int64      `json:"newParentId" validate:"required"`
	NewParentType EntityType `json:"newParentType" validate:"required"`
}

// ModifiedEntity reports one entity whose sort order or parent changed during
// a move or copy.
type ModifiedEntity struct {
	ID            int64      `json:"id"`
	Type          EntityType `json:"type"`
	SortOrder     float64    `json:"sortOrder"`
	IsMovedEntity bool       `json:"isMovedEntity"`
}

// MoveResponse is the wire contract for structural moves and copies.
type MoveResponse struct {
	IsSuccess        bool             `json:"isSuccess"`
	ErrorMessage     string           `json:"errorMessage,omitempty"`
	ModifiedEntities []ModifiedEntity `json:"modifiedEntities"`
}
