package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/events"
	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/state"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
	"github.com/planbook/planbook-api/pkg/jobs"
)

// LessonInput is the payload for creating or updating a lesson. The calendar
// context fields request a partial schedule regeneration over the range the
// change affects.
type LessonInput struct {
	CourseID   int64             `json:"courseId" validate:"required"`
	Title      string            `json:"title" validate:"required"`
	TopicID    int64             `json:"topicId" validate:"required"`
	SubTopicID *int64            `json:"subTopicId,omitempty"`
	Visibility models.Visibility `json:"visibility" validate:"omitempty,oneof=private team"`

	CalendarStartDate            *time.Time `json:"calendarStartDate,omitempty"`
	CalendarEndDate              *time.Time `json:"calendarEndDate,omitempty"`
	RequestPartialScheduleUpdate bool       `json:"requestPartialScheduleUpdate,omitempty"`
}

type lessonStore interface {
	FindByID(ctx context.Context, id int64) (*models.Lesson, error)
	InsertLesson(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id int64) error
}

// LessonService owns lesson CRUD. Structural placement goes through the sort
// order calculator and the tree store so moves and edits see one ordering.
type LessonService struct {
	store      lessonStore
	trees      *state.TreeStore
	sortOrders *SortOrderService
	bus        *events.Bus
	cache      *CacheService
	queue      *jobs.Queue
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewLessonService wires the lesson service.
func NewLessonService(
	store lessonStore,
	trees *state.TreeStore,
	sortOrders *SortOrderService,
	bus *events.Bus,
	cache *CacheService,
	queue *jobs.Queue,
	validate *validator.Validate,
	logger *zap.Logger,
) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if sortOrders == nil {
		sortOrders = NewSortOrderService(logger)
	}
	return &LessonService{
		store:      store,
		trees:      trees,
		sortOrders: sortOrders,
		bus:        bus,
		cache:      cache,
		queue:      queue,
		validate:   validate,
		logger:     logger,
	}
}

// Get fetches one lesson.
func (s *LessonService) Get(ctx context.Context, id int64) (*models.Lesson, error) {
	lesson, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lesson %d not found", id))
	}
	return lesson, nil
}

// Create appends a new lesson to the end of its parent's sibling set.
func (s *LessonService) Create(ctx context.Context, courseID int64, input LessonInput) (*models.Lesson, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	tree, _, ok := s.trees.Get(courseID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d is not loaded", courseID))
	}

	var siblings []models.Sibling
	if input.SubTopicID != nil {
		st, found := tree.FindSubTopic(*input.SubTopicID)
		if !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("sub-topic %d not found in course %d", *input.SubTopicID, courseID))
		}
		if st.TopicID != input.TopicID {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("sub-topic %d belongs to topic %d, not %d", st.ID, st.TopicID, input.TopicID))
		}
		siblings, _ = tree.SubTopicLessonSiblings(st.ID)
	} else {
		if _, found := tree.FindTopic(input.TopicID); !found {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("topic %d not found in course %d", input.TopicID, courseID))
		}
		siblings, _ = tree.TopicChildSiblings(input.TopicID)
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	lesson := models.Lesson{
		TopicID:    input.TopicID,
		SubTopicID: input.SubTopicID,
		Title:      input.Title,
		SortOrder:  s.sortOrders.AppendPosition(siblings),
		Visibility: visibility,
	}

	if err := s.store.InsertLesson(ctx, &lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	if err := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		return placeLesson(t, lesson)
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "lesson placement failed validation")
	}

	s.publish(events.OperationAdded, lesson, courseID)
	s.afterChange(ctx, courseID, input)
	return &lesson, nil
}

// Update edits a lesson's content fields. Placement changes go through the
// move endpoints, not here.
func (s *LessonService) Update(ctx context.Context, courseID, lessonID int64, input LessonInput) (*models.Lesson, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	lesson, err := s.store.FindByID(ctx, lessonID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lesson %d not found", lessonID))
	}

	lesson.Title = input.Title
	if input.Visibility != "" {
		lesson.Visibility = input.Visibility
	}
	if err := s.store.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}

	if mutErr := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		stored, ok := t.FindLesson(lessonID)
		if !ok {
			return fmt.Errorf("lesson %d not in course %d tree", lessonID, courseID)
		}
		stored.Title = lesson.Title
		stored.Visibility = lesson.Visibility
		stored.UpdatedAt = lesson.UpdatedAt
		return nil
	}); mutErr != nil {
		s.logger.Warn("lesson updated in storage but not in tree", zap.Int64("lesson_id", lessonID), zap.Error(mutErr))
	}

	s.publish(events.OperationEdited, *lesson, courseID)
	s.afterChange(ctx, courseID, input)
	return lesson, nil
}

// Delete removes a lesson from storage and the tree.
func (s *LessonService) Delete(ctx context.Context, courseID, lessonID int64, hint LessonInput) error {
	lesson, err := s.store.FindByID(ctx, lessonID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lesson %d not found", lessonID))
	}
	if err := s.store.Delete(ctx, lessonID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}

	if mutErr := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		removeLesson(t, lessonID)
		return nil
	}); mutErr != nil {
		s.logger.Warn("lesson deleted in storage but not in tree", zap.Int64("lesson_id", lessonID), zap.Error(mutErr))
	}

	s.publish(events.OperationDeleted, *lesson, courseID)
	s.afterChange(ctx, courseID, hint)
	return nil
}

func (s *LessonService) publish(op events.Operation, lesson models.Lesson, courseID int64) {
	if s.bus == nil {
		return
	}
	location := &events.Location{CourseID: courseID, ParentID: lesson.TopicID, ParentType: models.EntityTypeTopic}
	if lesson.SubTopicID != nil {
		location = &events.Location{CourseID: courseID, ParentID: *lesson.SubTopicID, ParentType: models.EntityTypeSubTopic}
	}
	s.bus.Publish(events.Event{
		Entity:         lesson,
		EntityType:     models.EntityTypeLesson,
		Source:         "lesson_service",
		Operation:      op,
		TargetLocation: location,
	})
}

func (s *LessonService) afterChange(ctx context.Context, courseID int64, input LessonInput) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, fmt.Sprintf("course:%d:*", courseID))
	}
	if !input.RequestPartialScheduleUpdate || s.queue == nil {
		return
	}
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: JobTypePartialScheduleUpdate,
		Key:  fmt.Sprintf("course:%d", courseID),
		Payload: PartialScheduleUpdatePayload{
			CourseID:  courseID,
			StartDate: input.CalendarStartDate,
			EndDate:   input.CalendarEndDate,
		},
	}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue partial schedule update",
			zap.Int64("course_id", courseID),
			zap.Error(err),
		)
	}
}
