package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/events"
	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/pkg/config"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
)

type scheduleEventStore interface {
	ListBySchedule(ctx context.Context, scheduleID int64) ([]models.ScheduleEvent, error)
	ReplaceForSchedule(ctx context.Context, scheduleID int64, evs []models.ScheduleEvent) error
	DeleteGeneratedAfter(ctx context.Context, scheduleID int64, after time.Time) error
	InsertBatch(ctx context.Context, evs []models.ScheduleEvent) error
}

type courseTreeLoader interface {
	LoadTree(ctx context.Context, courseID int64) (*models.CourseTree, error)
}

// ScheduleGeneratorService turns a schedule configuration into day-by-day
// calendar events and keeps the sequence continuous across interruptions.
type ScheduleGeneratorService struct {
	store         scheduleEventStore
	trees         courseTreeLoader
	continuations *ContinuationService
	cache         *CacheService
	bus           *events.Bus
	logger        *zap.Logger
	cfg           config.ScheduleConfig

	mu          sync.Mutex
	lastConfigs map[int64]models.ScheduleConfig
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	store scheduleEventStore,
	trees courseTreeLoader,
	continuations *ContinuationService,
	cache *CacheService,
	bus *events.Bus,
	logger *zap.Logger,
	cfg config.ScheduleConfig,
) *ScheduleGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if continuations == nil {
		continuations = NewContinuationService(logger)
	}
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = 366
	}
	if cfg.SeedEventID >= 0 {
		cfg.SeedEventID = -1
	}
	return &ScheduleGeneratorService{
		store:         store,
		trees:         trees,
		continuations: continuations,
		cache:         cache,
		bus:           bus,
		logger:        logger,
		cfg:           cfg,
		lastConfigs:   make(map[int64]models.ScheduleConfig),
	}
}

// eventIDCounter hands out decrementing negative IDs so freshly generated
// events are visibly unpersisted until the database assigns real keys.
type eventIDCounter struct {
	next int64
}

func newEventIDCounter(seed int64) *eventIDCounter {
	if seed >= 0 {
		seed = -1
	}
	return &eventIDCounter{next: seed}
}

func (c *eventIDCounter) Next() int64 {
	id := c.next
	c.next--
	return id
}

type slotRef struct {
	date   string
	period int
}

func slotKeyFor(date time.Time, period int) slotRef {
	return slotRef{date: date.Format("2006-01-02"), period: period}
}

// Generate produces the full event set for a schedule configuration and
// replaces the schedule's events wholesale.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, cfg models.ScheduleConfig) ([]models.ScheduleEvent, error) {
	cfg = s.applyDefaults(cfg)
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	lessonsByCourse, err := s.loadLessonSequences(ctx, cfg)
	if err != nil {
		return nil, err
	}

	counter := newEventIDCounter(s.cfg.SeedEventID)
	var generated []models.ScheduleEvent
	for _, assignment := range cfg.Periods {
		evs := s.generateForAssignment(assignment, cfg, lessonsByCourse[assignment.CourseID], 0, cfg.StartDate, counter, nil)
		generated = append(generated, evs...)
	}
	sortEvents(generated)

	if s.store != nil {
		if err := s.store.ReplaceForSchedule(ctx, cfg.ScheduleID, generated); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated schedule events")
		}
	}
	s.rememberConfig(cfg)
	s.afterWrite(ctx, cfg.ScheduleID)

	s.logger.Info("schedule regenerated",
		zap.Int64("schedule_id", cfg.ScheduleID),
		zap.Int("events", len(generated)),
	)
	return generated, nil
}

// Continue performs a partial regeneration: events up to afterDate and
// manually placed special days stay, lesson assignment resumes from each
// period/course continuation point without restarting the sequence.
func (s *ScheduleGeneratorService) Continue(ctx context.Context, cfg models.ScheduleConfig, afterDate time.Time) ([]models.ScheduleEvent, error) {
	cfg = s.applyDefaults(cfg)
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "schedule event store unavailable")
	}

	existing, err := s.store.ListBySchedule(ctx, cfg.ScheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule events")
	}

	lessonsByCourse, err := s.loadLessonSequences(ctx, cfg)
	if err != nil {
		return nil, err
	}

	points := s.continuations.FindContinuationPoints(existing, afterDate, cfg, lessonsByCourse)

	// Slots still occupied after the cut: manually placed non-lesson events
	// survive regeneration and must not consume a lesson index. Generated
	// events are about to be deleted and their slots must be refilled, so
	// only the manual category counts.
	occupied := make(map[slotRef]bool)
	for _, ev := range existing {
		if !ev.Date.After(afterDate) {
			continue
		}
		if ev.EventCategory != models.EventCategoryManual {
			continue
		}
		if ev.EventType != models.EventTypeLesson && ev.EventType != models.EventTypeError {
			occupied[slotKeyFor(ev.Date, ev.Period)] = true
		}
	}

	counter := newEventIDCounter(s.cfg.SeedEventID)
	var generated []models.ScheduleEvent
	for _, point := range points {
		assignment, ok := findAssignment(cfg, point.Period)
		if !ok {
			continue
		}
		evs := s.generateForAssignment(assignment, cfg, lessonsByCourse[point.CourseID], point.LastAssignedLessonIndex+1, point.ContinuationDate, counter, occupied)
		generated = append(generated, evs...)
	}
	// Non-course periods resume on plain date walking after the cut.
	for _, assignment := range cfg.Periods {
		if assignment.Kind == models.PeriodKindCourse {
			continue
		}
		evs := s.generateForAssignment(assignment, cfg, nil, 0, afterDate.AddDate(0, 0, 1), counter, occupied)
		generated = append(generated, evs...)
	}
	sortEvents(generated)

	if err := s.store.DeleteGeneratedAfter(ctx, cfg.ScheduleID, afterDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear regenerated range")
	}
	if err := s.store.InsertBatch(ctx, generated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist continued schedule events")
	}
	s.rememberConfig(cfg)
	s.afterWrite(ctx, cfg.ScheduleID)

	s.logger.Info("schedule continued",
		zap.Int64("schedule_id", cfg.ScheduleID),
		zap.Time("after", afterDate),
		zap.Int("continuation_points", len(points)),
		zap.Int("events", len(generated)),
	)
	return generated, nil
}

// generateForAssignment walks the date range day by day against the teaching
// day mask. A teaching day always yields an event: a lesson while the
// sequence lasts, then Error placeholders with a diagnostic comment.
func (s *ScheduleGeneratorService) generateForAssignment(
	assignment models.PeriodAssignment,
	cfg models.ScheduleConfig,
	lessons []models.Lesson,
	lessonIdx int,
	from time.Time,
	counter *eventIDCounter,
	occupied map[slotRef]bool,
) []models.ScheduleEvent {
	teachingDays := normalizeDays(cfg.TeachingDaysFor(assignment))
	var out []models.ScheduleEvent

	for date := dateOnly(from); !date.After(dateOnly(cfg.EndDate)); date = date.AddDate(0, 0, 1) {
		if !teachingDays[strings.ToLower(date.Weekday().String())] {
			continue
		}
		if occupied != nil && occupied[slotKeyFor(date, assignment.Period)] {
			// A manually placed special day holds this slot; do not consume
			// a lesson for it.
			continue
		}

		ev := models.ScheduleEvent{
			ID:            counter.Next(),
			ScheduleID:    cfg.ScheduleID,
			Date:          date,
			Period:        assignment.Period,
			EventCategory: models.EventCategoryGenerated,
		}

		switch assignment.Kind {
		case models.PeriodKindCourse:
			ev.CourseID = assignment.CourseID
			if lessonIdx < len(lessons) {
				id := lessons[lessonIdx].ID
				ev.LessonID = &id
				ev.EventType = models.EventTypeLesson
				lessonIdx++
			} else {
				ev.EventType = models.EventTypeError
				ev.Comment = fmt.Sprintf("no lesson available: course %d has %d lessons, all assigned", assignment.CourseID, len(lessons))
			}
		case models.PeriodKindSpecial:
			ev.EventType = models.EventType(assignment.SpecialType)
			ev.Comment = assignment.DisplayName
		default:
			ev.EventType = models.EventTypeError
			ev.Comment = fmt.Sprintf("period %d has no assignment", assignment.Period)
		}

		out = append(out, ev)
	}
	return out
}

// ContinueForCourse re-runs the continuation for every schedule whose last
// applied configuration assigns the course to a period. Lesson mutations
// trigger this through the background queue.
func (s *ScheduleGeneratorService) ContinueForCourse(ctx context.Context, courseID int64, afterDate time.Time) error {
	s.mu.Lock()
	var affected []models.ScheduleConfig
	for _, cfg := range s.lastConfigs {
		if _, ok := findCourseAssignment(cfg, courseID); ok {
			affected = append(affected, cfg)
		}
	}
	s.mu.Unlock()

	for _, cfg := range affected {
		if _, err := s.Continue(ctx, cfg, afterDate); err != nil {
			return err
		}
	}
	if len(affected) == 0 {
		s.logger.Debug("no schedule references course, skipping regeneration",
			zap.Int64("course_id", courseID),
		)
	}
	return nil
}

func (s *ScheduleGeneratorService) rememberConfig(cfg models.ScheduleConfig) {
	s.mu.Lock()
	s.lastConfigs[cfg.ScheduleID] = cfg
	s.mu.Unlock()
}

func findCourseAssignment(cfg models.ScheduleConfig, courseID int64) (models.PeriodAssignment, bool) {
	for _, assignment := range cfg.Periods {
		if assignment.Kind == models.PeriodKindCourse && assignment.CourseID == courseID {
			return assignment, true
		}
	}
	return models.PeriodAssignment{}, false
}

func (s *ScheduleGeneratorService) applyDefaults(cfg models.ScheduleConfig) models.ScheduleConfig {
	if len(cfg.TeachingDays) == 0 {
		cfg.TeachingDays = s.cfg.DefaultTeachingDays
	}
	return cfg
}

func (s *ScheduleGeneratorService) validateConfig(cfg models.ScheduleConfig) error {
	if cfg.ScheduleID == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "scheduleId is required")
	}
	if cfg.StartDate.IsZero() || cfg.EndDate.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "startDate and endDate are required")
	}
	if cfg.EndDate.Before(cfg.StartDate) {
		return appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}
	if days := int(dateOnly(cfg.EndDate).Sub(dateOnly(cfg.StartDate)).Hours()/24) + 1; days > s.cfg.MaxRangeDays {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range spans %d days, maximum is %d", days, s.cfg.MaxRangeDays))
	}
	if len(cfg.TeachingDays) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "teachingDays must contain at least one weekday")
	}
	if len(cfg.Periods) == 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "schedule configuration has no period assignments")
	}
	for _, assignment := range cfg.Periods {
		if assignment.Kind == models.PeriodKindCourse && assignment.CourseID == 0 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period %d is marked as a course slot without a course", assignment.Period))
		}
	}
	return nil
}

func (s *ScheduleGeneratorService) loadLessonSequences(ctx context.Context, cfg models.ScheduleConfig) (map[int64][]models.Lesson, error) {
	sequences := make(map[int64][]models.Lesson)
	if s.trees == nil {
		return sequences, nil
	}
	for _, assignment := range cfg.Periods {
		if assignment.Kind != models.PeriodKindCourse {
			continue
		}
		if _, done := sequences[assignment.CourseID]; done {
			continue
		}
		tree, err := s.trees.LoadTree(ctx, assignment.CourseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load course %d", assignment.CourseID))
		}
		sequences[assignment.CourseID] = tree.FlattenLessons()
	}
	return sequences, nil
}

func (s *ScheduleGeneratorService) afterWrite(ctx context.Context, scheduleID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, fmt.Sprintf("schedule:events:%d*", scheduleID))
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{
			EntityType: models.EntityTypeScheduleEvent,
			Operation:  events.OperationEdited,
			Source:     "schedule_generator",
			Metadata:   map[string]interface{}{"scheduleId": scheduleID},
		})
	}
}

func findAssignment(cfg models.ScheduleConfig, period int) (models.PeriodAssignment, bool) {
	for _, assignment := range cfg.Periods {
		if assignment.Period == period {
			return assignment, true
		}
	}
	return models.PeriodAssignment{}, false
}

func normalizeDays(days []string) map[string]bool {
	mask := make(map[string]bool, len(days))
	for _, d := range days {
		mask[strings.ToLower(strings.TrimSpace(d))] = true
	}
	return mask
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sortEvents(evs []models.ScheduleEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		if evs[i].Date.Equal(evs[j].Date) {
			return evs[i].Period < evs[j].Period
		}
		return evs[i].Date.Before(evs[j].Date)
	})
}
