package service

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
)

// ContinuationService determines where lesson assignment resumes for each
// period/course pair after an interruption (holiday, special day, manual
// edits), so regeneration continues the sequence instead of restarting it.
type ContinuationService struct {
	logger *zap.Logger
}

// NewContinuationService constructs the finder.
func NewContinuationService(logger *zap.Logger) *ContinuationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContinuationService{logger: logger}
}

// FindContinuationPoints scans existing schedule events and returns one point
// per period/course assignment that still has unconsumed lessons.
// lessonsByCourse maps a course to its flattened lesson sequence.
func (s *ContinuationService) FindContinuationPoints(
	events []models.ScheduleEvent,
	afterDate time.Time,
	cfg models.ScheduleConfig,
	lessonsByCourse map[int64][]models.Lesson,
) []models.ContinuationPoint {
	continuationDate := afterDate.AddDate(0, 0, 1)
	points := make([]models.ContinuationPoint, 0)

	for _, assignment := range cfg.Periods {
		if assignment.Kind != models.PeriodKindCourse {
			continue
		}
		lessons := lessonsByCourse[assignment.CourseID]

		assigned := filterLessonEvents(events, assignment.Period, assignment.CourseID, afterDate)
		if len(assigned) == 0 {
			// Nothing scheduled yet: start from the beginning.
			points = append(points, models.ContinuationPoint{
				Period:                  assignment.Period,
				CourseID:                assignment.CourseID,
				LastAssignedLessonIndex: -1,
				ContinuationDate:        continuationDate,
			})
			continue
		}

		highest := -1
		for _, ev := range assigned {
			idx := lessonIndex(lessons, *ev.LessonID)
			if idx < 0 {
				s.logger.Warn("scheduled lesson not found in course sequence",
					zap.Int64("lesson_id", *ev.LessonID),
					zap.Int64("course_id", assignment.CourseID),
					zap.Int("period", assignment.Period),
				)
				continue
			}
			if idx > highest {
				highest = idx
			}
		}

		if highest >= len(lessons)-1 {
			// Every lesson has been assigned at least once; the course is
			// fully consumed for this period.
			continue
		}

		points = append(points, models.ContinuationPoint{
			Period:                  assignment.Period,
			CourseID:                assignment.CourseID,
			LastAssignedLessonIndex: highest,
			ContinuationDate:        continuationDate,
		})
	}

	return points
}

// Events after the cut date are about to be regenerated and must not count
// towards the consumed sequence.
func filterLessonEvents(events []models.ScheduleEvent, period int, courseID int64, afterDate time.Time) []models.ScheduleEvent {
	filtered := make([]models.ScheduleEvent, 0)
	for _, ev := range events {
		if ev.Period != period || ev.CourseID != courseID || ev.LessonID == nil {
			continue
		}
		if ev.Date.After(afterDate) {
			continue
		}
		filtered = append(filtered, ev)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Date.Before(filtered[j].Date)
	})
	return filtered
}

func lessonIndex(lessons []models.Lesson, lessonID int64) int {
	for i, lesson := range lessons {
		if lesson.ID == lessonID {
			return i
		}
	}
	return -1
}
