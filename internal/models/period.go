package models

import "time"

// PeriodKind states what occupies a recurring period slot.
type PeriodKind string

const (
	PeriodKindCourse     PeriodKind = "course"
	PeriodKindSpecial    PeriodKind = "special"
	PeriodKindUnassigned PeriodKind = "unassigned"
)

// PeriodAssignment maps a period number to a course or a special type for
// every teaching day of a schedule.
type PeriodAssignment struct {
	Period       int        `db:"period" json:"period"`
	Kind         PeriodKind `db:"kind" json:"kind"`
	CourseID     int64      `db:"course_id" json:"courseId,omitempty"`
	SpecialType  string     `db:"special_type" json:"specialType,omitempty"`
	TeachingDays []string   `json:"teachingDays,omitempty"`
	DisplayName  string     `db:"display_name" json:"displayName,omitempty"`
	Color        string     `db:"color" json:"color,omitempty"`
}

// ScheduleConfig is the configuration from which a schedule's events are
// generated: a date range, a teaching-day mask and the period assignments.
type ScheduleConfig struct {
	ScheduleID   int64              `json:"scheduleId"`
	StartDate    time.Time          `json:"startDate"`
	EndDate      time.Time          `json:"endDate"`
	TeachingDays []string           `json:"teachingDays"`
	Periods      []PeriodAssignment `json:"periods"`
}

// TeachingDaysFor resolves the effective teaching days for one assignment,
// preferring its override over the schedule-wide mask.
func (c ScheduleConfig) TeachingDaysFor(p PeriodAssignment) []string {
	if len(p.TeachingDays) > 0 {
		return p.TeachingDays
	}
	return c.TeachingDays
}

// ContinuationPoint marks where lesson assignment resumes for a period/course
// pair after a gap. Derived, never persisted.
type ContinuationPoint struct {
	Period                  int       `json:"period"`
	CourseID                int64     `json:"courseId"`
	LastAssignedLessonIndex int       `json:"lastAssignedLessonIndex"`
	ContinuationDate        time.Time `json:"continuationDate"`
}
