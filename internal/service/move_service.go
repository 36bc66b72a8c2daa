package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/events"
	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/state"
)

// JobTypePartialScheduleUpdate names the background job that regenerates the
// calendar range affected by a structural move.
const JobTypePartialScheduleUpdate = "schedule.partial_update"

// PartialScheduleUpdatePayload is the job payload for a partial schedule
// regeneration, enqueued from lesson mutations and from the moved-event
// subscription.
type PartialScheduleUpdatePayload struct {
	CourseID  int64      `json:"courseId"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

type lessonWriter interface {
	UpdateLessonPlacement(ctx context.Context, lessonID, topicID int64, subTopicID *int64, sortOrder float64) error
	InsertLesson(ctx context.Context, lesson *models.Lesson) error
}

type subTopicWriter interface {
	UpdateSubTopicPlacement(ctx context.Context, subTopicID, topicID int64, sortOrder float64) error
	InsertSubTopic(ctx context.Context, subTopic *models.SubTopic) error
}

type topicWriter interface {
	UpdateTopicOrder(ctx context.Context, topicID int64, sortOrder float64) error
	InsertTopic(ctx context.Context, topic *models.Topic) error
}

// MoveService orchestrates structural moves and copies over the course tree.
// It owns the dispatch rules (which target types each entity may be dropped
// relative to), delegates order computation to the sort order calculator, and
// commits through the tree store so the structural invariants hold.
type MoveService struct {
	trees      *state.TreeStore
	sortOrders *SortOrderService
	lessons    lessonWriter
	subTopics  subTopicWriter
	topics     topicWriter
	bus        *events.Bus
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewMoveService wires the move orchestrator.
func NewMoveService(
	trees *state.TreeStore,
	sortOrders *SortOrderService,
	lessons lessonWriter,
	subTopics subTopicWriter,
	topics topicWriter,
	bus *events.Bus,
	cache *CacheService,
	metrics *MetricsService,
	logger *zap.Logger,
) *MoveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sortOrders == nil {
		sortOrders = NewSortOrderService(logger)
	}
	return &MoveService{
		trees:      trees,
		sortOrders: sortOrders,
		lessons:    lessons,
		subTopics:  subTopics,
		topics:     topics,
		bus:        bus,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// allowedRelativeTargets encodes which target types an entity may be dropped
// before or after. Lessons and sub-topics share the merged topic child set, so
// each accepts the other as a target; topics only reorder among topics.
var allowedRelativeTargets = map[models.EntityType][]models.EntityType{
	models.EntityTypeLesson:   {models.EntityTypeLesson, models.EntityTypeSubTopic},
	models.EntityTypeSubTopic: {models.EntityTypeSubTopic, models.EntityTypeLesson},
	models.EntityTypeTopic:    {models.EntityTypeTopic},
}

func relativeTargetAllowed(moved, target models.EntityType) bool {
	for _, t := range allowedRelativeTargets[moved] {
		if t == target {
			return true
		}
	}
	return false
}

func failure(format string, args ...interface{}) models.MoveResponse {
	return models.MoveResponse{
		IsSuccess:        false,
		ErrorMessage:     fmt.Sprintf(format, args...),
		ModifiedEntities: []models.ModifiedEntity{},
	}
}

// MoveLesson repositions a lesson relative to a sibling. The target defines
// both the new ordering and the new parent: dropping next to a direct topic
// child makes the lesson a direct child, dropping next to a lesson inside a
// sub-topic moves it into that sub-topic.
func (s *MoveService) MoveLesson(ctx context.Context, courseID, lessonID int64, req models.MoveRequest) (models.MoveResponse, error) {
	if !relativeTargetAllowed(models.EntityTypeLesson, req.RelativeToType) {
		return s.reject(models.EntityTypeLesson, failure("a lesson cannot be positioned relative to a %s", req.RelativeToType)), nil
	}
	if req.RelativeToType == models.EntityTypeLesson && req.RelativeToID == lessonID {
		return s.reject(models.EntityTypeLesson, failure("lesson %d cannot be moved relative to itself", lessonID)), nil
	}

	tree, _, ok := s.trees.Get(courseID)
	if !ok {
		return s.reject(models.EntityTypeLesson, failure("course %d is not loaded", courseID)), nil
	}
	lesson, ok := tree.FindLesson(lessonID)
	if !ok {
		return s.reject(models.EntityTypeLesson, failure("lesson %d not found in course %d", lessonID, courseID)), nil
	}
	if !s.targetInCourse(&tree, req.RelativeToType, req.RelativeToID) {
		return s.reject(models.EntityTypeLesson, failure("target %s is not in course %d", models.NodeID(req.RelativeToType, req.RelativeToID), courseID)), nil
	}

	newOrder, err := s.sortOrders.NewSortOrderFor(&tree, req.RelativeToType, req.RelativeToID, req.RelativePosition)
	if err != nil {
		return s.reject(models.EntityTypeLesson, failure("%s", err.Error())), nil
	}

	newTopicID, newSubTopicID, ok := s.lessonDestination(&tree, req.RelativeToType, req.RelativeToID)
	if !ok {
		return s.reject(models.EntityTypeLesson, failure("target %s has no resolvable parent", models.NodeID(req.RelativeToType, req.RelativeToID))), nil
	}

	oldOrder := lesson.SortOrder
	source := s.lessonLocation(courseID, *lesson)

	moved := *lesson
	moved.TopicID = newTopicID
	moved.SubTopicID = newSubTopicID
	moved.SortOrder = newOrder

	// Persist first; the tree only reflects the move once storage accepted
	// it, so a failed write leaves the snapshot untouched.
	if s.lessons != nil {
		if err := s.lessons.UpdateLessonPlacement(ctx, lessonID, newTopicID, newSubTopicID, newOrder); err != nil {
			return models.MoveResponse{}, err
		}
	}

	if err := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		removeLesson(t, lessonID)
		return placeLesson(t, moved)
	}); err != nil {
		return s.reject(models.EntityTypeLesson, failure("%s", err.Error())), nil
	}

	target := s.lessonLocation(courseID, moved)
	s.afterMove(ctx, courseID, moved, models.EntityTypeLesson, source, target, oldOrder, newOrder, partialUpdateHint(courseID, req))

	return successResponse(lessonID, models.EntityTypeLesson, newOrder), nil
}

// MoveSubTopic reorders a sub-topic within a topic's merged child set. The
// target may be a sibling sub-topic or a direct lesson; a lesson nested in
// another sub-topic is rejected because sub-topics do not nest.
func (s *MoveService) MoveSubTopic(ctx context.Context, courseID, subTopicID int64, req models.MoveRequest) (models.MoveResponse, error) {
	if !relativeTargetAllowed(models.EntityTypeSubTopic, req.RelativeToType) {
		return s.reject(models.EntityTypeSubTopic, failure("a sub-topic cannot be positioned relative to a %s", req.RelativeToType)), nil
	}
	if req.RelativeToType == models.EntityTypeSubTopic && req.RelativeToID == subTopicID {
		return s.reject(models.EntityTypeSubTopic, failure("sub-topic %d cannot be moved relative to itself", subTopicID)), nil
	}

	tree, _, ok := s.trees.Get(courseID)
	if !ok {
		return s.reject(models.EntityTypeSubTopic, failure("course %d is not loaded", courseID)), nil
	}
	subTopic, ok := tree.FindSubTopic(subTopicID)
	if !ok {
		return s.reject(models.EntityTypeSubTopic, failure("sub-topic %d not found in course %d", subTopicID, courseID)), nil
	}
	if !s.targetInCourse(&tree, req.RelativeToType, req.RelativeToID) {
		return s.reject(models.EntityTypeSubTopic, failure("target %s is not in course %d", models.NodeID(req.RelativeToType, req.RelativeToID), courseID)), nil
	}

	newTopicID, ok := s.subTopicDestination(&tree, req.RelativeToType, req.RelativeToID)
	if !ok {
		return s.reject(models.EntityTypeSubTopic, failure("a sub-topic cannot be placed inside another sub-topic")), nil
	}

	newOrder, err := s.sortOrders.NewSortOrderFor(&tree, req.RelativeToType, req.RelativeToID, req.RelativePosition)
	if err != nil {
		return s.reject(models.EntityTypeSubTopic, failure("%s", err.Error())), nil
	}

	oldOrder := subTopic.SortOrder
	source := &events.Location{CourseID: courseID, ParentID: subTopic.TopicID, ParentType: models.EntityTypeTopic}

	moved := *subTopic
	moved.TopicID = newTopicID
	moved.SortOrder = newOrder

	if s.subTopics != nil {
		if err := s.subTopics.UpdateSubTopicPlacement(ctx, subTopicID, newTopicID, newOrder); err != nil {
			return models.MoveResponse{}, err
		}
	}

	if err := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		node := removeSubTopic(t, subTopicID)
		if node == nil {
			return fmt.Errorf("sub-topic %d disappeared from course %d", subTopicID, courseID)
		}
		node.SubTopic = moved
		retargetLessons(node, moved.TopicID)
		return placeSubTopic(t, *node)
	}); err != nil {
		return s.reject(models.EntityTypeSubTopic, failure("%s", err.Error())), nil
	}

	target := &events.Location{CourseID: courseID, ParentID: newTopicID, ParentType: models.EntityTypeTopic}
	s.afterMove(ctx, courseID, moved, models.EntityTypeSubTopic, source, target, oldOrder, newOrder, partialUpdateHint(courseID, req))

	return successResponse(subTopicID, models.EntityTypeSubTopic, newOrder), nil
}

// MoveTopic reorders a topic among the course's topics.
func (s *MoveService) MoveTopic(ctx context.Context, courseID, topicID int64, req models.MoveRequest) (models.MoveResponse, error) {
	if !relativeTargetAllowed(models.EntityTypeTopic, req.RelativeToType) {
		return s.reject(models.EntityTypeTopic, failure("a topic cannot be positioned relative to a %s", req.RelativeToType)), nil
	}
	if req.RelativeToID == topicID {
		return s.reject(models.EntityTypeTopic, failure("topic %d cannot be moved relative to itself", topicID)), nil
	}

	tree, _, ok := s.trees.Get(courseID)
	if !ok {
		return s.reject(models.EntityTypeTopic, failure("course %d is not loaded", courseID)), nil
	}
	topic, ok := tree.FindTopic(topicID)
	if !ok {
		return s.reject(models.EntityTypeTopic, failure("topic %d not found in course %d", topicID, courseID)), nil
	}
	if _, ok := tree.FindTopic(req.RelativeToID); !ok {
		return s.reject(models.EntityTypeTopic, failure("target topic %d is not in course %d", req.RelativeToID, courseID)), nil
	}

	newOrder, err := s.sortOrders.NewSortOrderFor(&tree, models.EntityTypeTopic, req.RelativeToID, req.RelativePosition)
	if err != nil {
		return s.reject(models.EntityTypeTopic, failure("%s", err.Error())), nil
	}

	oldOrder := topic.SortOrder
	location := &events.Location{CourseID: courseID, ParentID: courseID, ParentType: models.EntityTypeCourse}

	moved := *topic
	moved.SortOrder = newOrder

	if s.topics != nil {
		if err := s.topics.UpdateTopicOrder(ctx, topicID, newOrder); err != nil {
			return models.MoveResponse{}, err
		}
	}

	if err := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		for i := range t.Topics {
			if t.Topics[i].Topic.ID == topicID {
				t.Topics[i].Topic.SortOrder = newOrder
				return nil
			}
		}
		return fmt.Errorf("topic %d disappeared from course %d", topicID, courseID)
	}); err != nil {
		return s.reject(models.EntityTypeTopic, failure("%s", err.Error())), nil
	}

	s.afterMove(ctx, courseID, moved, models.EntityTypeTopic, location, location, oldOrder, newOrder, partialUpdateHint(courseID, req))

	return successResponse(topicID, models.EntityTypeTopic, newOrder), nil
}

// RegroupLesson reparents a lesson under a new topic or sub-topic, appending
// it to the end of the new parent's sibling set.
func (s *MoveService) RegroupLesson(ctx context.Context, courseID, lessonID int64, req models.RegroupRequest) (models.MoveResponse, error) {
	if req.NewParentType != models.EntityTypeTopic && req.NewParentType != models.EntityTypeSubTopic {
		return s.reject(models.EntityTypeLesson, failure("a lesson cannot be regrouped under a %s", req.NewParentType)), nil
	}

	tree, _, ok := s.trees.Get(courseID)
	if !ok {
		return s.reject(models.EntityTypeLesson, failure("course %d is not loaded", courseID)), nil
	}
	lesson, ok := tree.FindLesson(lessonID)
	if !ok {
		return s.reject(models.EntityTypeLesson, failure("lesson %d not found in course %d", lessonID, courseID)), nil
	}

	var (
		newTopicID    int64
		newSubTopicID *int64
		siblings      []models.Sibling
	)
	switch req.NewParentType {
	case models.EntityTypeTopic:
		if _, ok := tree.FindTopic(req.NewParentID); !ok {
			return s.reject(models.EntityTypeLesson, failure("topic %d is not in course %d", req.NewParentID, courseID)), nil
		}
		newTopicID = req.NewParentID
		siblings, _ = tree.TopicChildSiblings(req.NewParentID)
	case models.EntityTypeSubTopic:
		st, ok := tree.FindSubTopic(req.NewParentID)
		if !ok {
			return s.reject(models.EntityTypeLesson, failure("sub-topic %d is not in course %d", req.NewParentID, courseID)), nil
		}
		newTopicID = st.TopicID
		id := st.ID
		newSubTopicID = &id
		siblings, _ = tree.SubTopicLessonSiblings(st.ID)
	}

	newOrder := s.sortOrders.AppendPosition(siblings)
	oldOrder := lesson.SortOrder
	source := s.lessonLocation(courseID, *lesson)

	moved := *lesson
	moved.TopicID = newTopicID
	moved.SubTopicID = newSubTopicID
	moved.SortOrder = newOrder

	if s.lessons != nil {
		if err := s.lessons.UpdateLessonPlacement(ctx, lessonID, newTopicID, newSubTopicID, newOrder); err != nil {
			return models.MoveResponse{}, err
		}
	}

	if err := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		removeLesson(t, lessonID)
		return placeLesson(t, moved)
	}); err != nil {
		return s.reject(models.EntityTypeLesson, failure("%s", err.Error())), nil
	}

	target := s.lessonLocation(courseID, moved)
	s.afterMove(ctx, courseID, moved, models.EntityTypeLesson, source, target, oldOrder, newOrder, partialUpdateHint(courseID, models.MoveRequest{
		CalendarStartDate:            req.CalendarStartDate,
		CalendarEndDate:              req.CalendarEndDate,
		RequestPartialScheduleUpdate: req.RequestPartialScheduleUpdate,
	}))

	return successResponse(lessonID, models.EntityTypeLesson, newOrder), nil
}

// RegroupSubTopic reparents a sub-topic under a new topic, appending it to the
// end of the topic's merged child set. Its lessons follow.
func (s *MoveService) RegroupSubTopic(ctx context.Context, courseID, subTopicID int64, req models.RegroupRequest) (models.MoveResponse, error) {
	if req.NewParentType != models.EntityTypeTopic {
		return s.reject(models.EntityTypeSubTopic, failure("a sub-topic cannot be regrouped under a %s", req.NewParentType)), nil
	}

	tree, _, ok := s.trees.Get(courseID)
	if !ok {
		return s.reject(models.EntityTypeSubTopic, failure("course %d is not loaded", courseID)), nil
	}
	subTopic, ok := tree.FindSubTopic(subTopicID)
	if !ok {
		return s.reject(models.EntityTypeSubTopic, failure("sub-topic %d not found in course %d", subTopicID, courseID)), nil
	}
	if _, ok := tree.FindTopic(req.NewParentID); !ok {
		return s.reject(models.EntityTypeSubTopic, failure("topic %d is not in course %d", req.NewParentID, courseID)), nil
	}

	siblings, _ := tree.TopicChildSiblings(req.NewParentID)
	newOrder := s.sortOrders.AppendPosition(siblings)
	oldOrder := subTopic.SortOrder
	source := &events.Location{CourseID: courseID, ParentID: subTopic.TopicID, ParentType: models.EntityTypeTopic}

	moved := *subTopic
	moved.TopicID = req.NewParentID
	moved.SortOrder = newOrder

	if s.subTopics != nil {
		if err := s.subTopics.UpdateSubTopicPlacement(ctx, subTopicID, req.NewParentID, newOrder); err != nil {
			return models.MoveResponse{}, err
		}
	}

	if err := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		node := removeSubTopic(t, subTopicID)
		if node == nil {
			return fmt.Errorf("sub-topic %d disappeared from course %d", subTopicID, courseID)
		}
		node.SubTopic = moved
		retargetLessons(node, moved.TopicID)
		return placeSubTopic(t, *node)
	}); err != nil {
		return s.reject(models.EntityTypeSubTopic, failure("%s", err.Error())), nil
	}

	target := &events.Location{CourseID: courseID, ParentID: req.NewParentID, ParentType: models.EntityTypeTopic}
	s.afterMove(ctx, courseID, moved, models.EntityTypeSubTopic, source, target, oldOrder, newOrder, partialUpdateHint(courseID, models.MoveRequest{
		CalendarStartDate:            req.CalendarStartDate,
		CalendarEndDate:              req.CalendarEndDate,
		RequestPartialScheduleUpdate: req.RequestPartialScheduleUpdate,
	}))

	return successResponse(subTopicID, models.EntityTypeSubTopic, newOrder), nil
}

// CopyLesson duplicates a lesson under a new parent at the end of its sibling
// set. The original is untouched.
func (s *MoveService) CopyLesson(ctx context.Context, courseID, lessonID int64, req models.CopyRequest) (models.MoveResponse, error) {
	if req.NewParentType != models.EntityTypeTopic && req.NewParentType != models.EntityTypeSubTopic {
		return s.reject(models.EntityTypeLesson, failure("a lesson cannot be copied under a %s", req.NewParentType)), nil
	}

	tree, _, ok := s.trees.Get(courseID)
	if !ok {
		return s.reject(models.EntityTypeLesson, failure("course %d is not loaded", courseID)), nil
	}
	original, ok := tree.FindLesson(lessonID)
	if !ok {
		return s.reject(models.EntityTypeLesson, failure("lesson %d not found in course %d", lessonID, courseID)), nil
	}

	var (
		newTopicID    int64
		newSubTopicID *int64
		siblings      []models.Sibling
	)
	switch req.NewParentType {
	case models.EntityTypeTopic:
		if _, ok := tree.FindTopic(req.NewParentID); !ok {
			return s.reject(models.EntityTypeLesson, failure("topic %d is not in course %d", req.NewParentID, courseID)), nil
		}
		newTopicID = req.NewParentID
		siblings, _ = tree.TopicChildSiblings(req.NewParentID)
	case models.EntityTypeSubTopic:
		st, ok := tree.FindSubTopic(req.NewParentID)
		if !ok {
			return s.reject(models.EntityTypeLesson, failure("sub-topic %d is not in course %d", req.NewParentID, courseID)), nil
		}
		newTopicID = st.TopicID
		id := st.ID
		newSubTopicID = &id
		siblings, _ = tree.SubTopicLessonSiblings(st.ID)
	}

	duplicate := *original
	duplicate.ID = 0
	duplicate.TopicID = newTopicID
	duplicate.SubTopicID = newSubTopicID
	duplicate.SortOrder = s.sortOrders.AppendPosition(siblings)
	now := time.Now().UTC()
	duplicate.CreatedAt = now
	duplicate.UpdatedAt = now

	if s.lessons != nil {
		if err := s.lessons.InsertLesson(ctx, &duplicate); err != nil {
			return models.MoveResponse{}, err
		}
	}

	if err := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		return placeLesson(t, duplicate)
	}); err != nil {
		return s.reject(models.EntityTypeLesson, failure("%s", err.Error())), nil
	}

	s.publishAdded(duplicate, models.EntityTypeLesson, s.lessonLocation(courseID, duplicate))
	s.invalidateCourse(ctx, courseID)
	if s.metrics != nil {
		s.metrics.RecordMove(string(models.EntityTypeLesson), true)
	}

	return successResponse(duplicate.ID, models.EntityTypeLesson, duplicate.SortOrder), nil
}

// CopySubTopic duplicates a sub-topic and its lessons under a new topic.
func (s *MoveService) CopySubTopic(ctx context.Context, courseID, subTopicID int64, req models.CopyRequest) (models.MoveResponse, error) {
	if req.NewParentType != models.EntityTypeTopic {
		return s.reject(models.EntityTypeSubTopic, failure("a sub-topic cannot be copied under a %s", req.NewParentType)), nil
	}

	tree, _, ok := s.trees.Get(courseID)
	if !ok {
		return s.reject(models.EntityTypeSubTopic, failure("course %d is not loaded", courseID)), nil
	}
	var original *models.SubTopicNode
	for ti := range tree.Topics {
		for si := range tree.Topics[ti].SubTopics {
			if tree.Topics[ti].SubTopics[si].SubTopic.ID == subTopicID {
				original = &tree.Topics[ti].SubTopics[si]
			}
		}
	}
	if original == nil {
		return s.reject(models.EntityTypeSubTopic, failure("sub-topic %d not found in course %d", subTopicID, courseID)), nil
	}
	if _, ok := tree.FindTopic(req.NewParentID); !ok {
		return s.reject(models.EntityTypeSubTopic, failure("topic %d is not in course %d", req.NewParentID, courseID)), nil
	}

	siblings, _ := tree.TopicChildSiblings(req.NewParentID)
	now := time.Now().UTC()

	duplicate := original.SubTopic
	duplicate.ID = 0
	duplicate.TopicID = req.NewParentID
	duplicate.SortOrder = s.sortOrders.AppendPosition(siblings)
	duplicate.CreatedAt = now
	duplicate.UpdatedAt = now

	if s.subTopics != nil {
		if err := s.subTopics.InsertSubTopic(ctx, &duplicate); err != nil {
			return models.MoveResponse{}, err
		}
	}

	node := models.SubTopicNode{SubTopic: duplicate}
	modified := []models.ModifiedEntity{{ID: duplicate.ID, Type: models.EntityTypeSubTopic, SortOrder: duplicate.SortOrder, IsMovedEntity: true}}
	for _, lesson := range original.Lessons {
		copyLesson := lesson
		copyLesson.ID = 0
		copyLesson.TopicID = duplicate.TopicID
		id := duplicate.ID
		copyLesson.SubTopicID = &id
		copyLesson.CreatedAt = now
		copyLesson.UpdatedAt = now
		if s.lessons != nil {
			if err := s.lessons.InsertLesson(ctx, &copyLesson); err != nil {
				return models.MoveResponse{}, err
			}
		}
		node.Lessons = append(node.Lessons, copyLesson)
		modified = append(modified, models.ModifiedEntity{ID: copyLesson.ID, Type: models.EntityTypeLesson, SortOrder: copyLesson.SortOrder})
	}

	if err := s.trees.Mutate(courseID, func(t *models.CourseTree) error {
		return placeSubTopic(t, node)
	}); err != nil {
		return s.reject(models.EntityTypeSubTopic, failure("%s", err.Error())), nil
	}

	s.publishAdded(duplicate, models.EntityTypeSubTopic, &events.Location{CourseID: courseID, ParentID: req.NewParentID, ParentType: models.EntityTypeTopic})
	s.invalidateCourse(ctx, courseID)
	if s.metrics != nil {
		s.metrics.RecordMove(string(models.EntityTypeSubTopic), true)
	}

	return models.MoveResponse{IsSuccess: true, ModifiedEntities: modified}, nil
}

func (s *MoveService) reject(entityType models.EntityType, resp models.MoveResponse) models.MoveResponse {
	if s.metrics != nil {
		s.metrics.RecordMove(string(entityType), false)
	}
	s.logger.Warn("move rejected",
		zap.String("entity_type", string(entityType)),
		zap.String("reason", resp.ErrorMessage),
	)
	return resp
}

func successResponse(id int64, entityType models.EntityType, sortOrder float64) models.MoveResponse {
	return models.MoveResponse{
		IsSuccess: true,
		ModifiedEntities: []models.ModifiedEntity{
			{ID: id, Type: entityType, SortOrder: sortOrder, IsMovedEntity: true},
		},
	}
}

func (s *MoveService) afterMove(ctx context.Context, courseID int64, entity interface{}, entityType models.EntityType, source, target *events.Location, oldOrder, newOrder float64, hint *events.PartialUpdateHint) {
	if s.bus != nil {
		s.bus.Publish(events.Event{
			Entity:         entity,
			EntityType:     entityType,
			Source:         "move_service",
			Operation:      events.OperationMoved,
			SourceLocation: source,
			TargetLocation: target,
			OldSortOrder:   &oldOrder,
			NewSortOrder:   &newOrder,
			PartialUpdate:  hint,
		})
	}
	s.invalidateCourse(ctx, courseID)
	if s.metrics != nil {
		s.metrics.RecordMove(string(entityType), true)
	}
}

func (s *MoveService) publishAdded(entity interface{}, entityType models.EntityType, target *events.Location) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Entity:         entity,
		EntityType:     entityType,
		Source:         "move_service",
		Operation:      events.OperationAdded,
		TargetLocation: target,
	})
}

func (s *MoveService) invalidateCourse(ctx context.Context, courseID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, fmt.Sprintf("course:%d:*", courseID))
	}
}

// partialUpdateHint packs the request's calendar context into the moved event
// so schedule consumers subscribed on the bus can regenerate the affected
// range without the move path knowing about them.
func partialUpdateHint(courseID int64, req models.MoveRequest) *events.PartialUpdateHint {
	if !req.RequestPartialScheduleUpdate {
		return nil
	}
	return &events.PartialUpdateHint{
		CourseID:  courseID,
		StartDate: req.CalendarStartDate,
		EndDate:   req.CalendarEndDate,
	}
}

// lessonDestination resolves the parent a lesson lands under when dropped
// relative to the given target.
func (s *MoveService) lessonDestination(tree *models.CourseTree, targetType models.EntityType, targetID int64) (topicID int64, subTopicID *int64, ok bool) {
	switch targetType {
	case models.EntityTypeLesson:
		target, found := tree.FindLesson(targetID)
		if !found {
			return 0, nil, false
		}
		return target.TopicID, target.SubTopicID, true
	case models.EntityTypeSubTopic:
		target, found := tree.FindSubTopic(targetID)
		if !found {
			return 0, nil, false
		}
		// Dropping next to a sub-topic lands in the topic's merged child
		// set, so the lesson becomes a direct topic child.
		return target.TopicID, nil, true
	default:
		return 0, nil, false
	}
}

// subTopicDestination resolves the topic a sub-topic lands under. A lesson
// target nested inside a sub-topic yields no destination.
func (s *MoveService) subTopicDestination(tree *models.CourseTree, targetType models.EntityType, targetID int64) (int64, bool) {
	switch targetType {
	case models.EntityTypeSubTopic:
		target, found := tree.FindSubTopic(targetID)
		if !found {
			return 0, false
		}
		return target.TopicID, true
	case models.EntityTypeLesson:
		target, found := tree.FindLesson(targetID)
		if !found || target.SubTopicID != nil {
			return 0, false
		}
		return target.TopicID, true
	default:
		return 0, false
	}
}

func (s *MoveService) targetInCourse(tree *models.CourseTree, targetType models.EntityType, targetID int64) bool {
	switch targetType {
	case models.EntityTypeLesson:
		_, ok := tree.FindLesson(targetID)
		return ok
	case models.EntityTypeSubTopic:
		_, ok := tree.FindSubTopic(targetID)
		return ok
	case models.EntityTypeTopic:
		_, ok := tree.FindTopic(targetID)
		return ok
	default:
		return false
	}
}

func (s *MoveService) lessonLocation(courseID int64, lesson models.Lesson) *events.Location {
	if lesson.SubTopicID != nil {
		return &events.Location{CourseID: courseID, ParentID: *lesson.SubTopicID, ParentType: models.EntityTypeSubTopic}
	}
	return &events.Location{CourseID: courseID, ParentID: lesson.TopicID, ParentType: models.EntityTypeTopic}
}

func removeLesson(tree *models.CourseTree, lessonID int64) {
	for ti := range tree.Topics {
		node := &tree.Topics[ti]
		for li := range node.Lessons {
			if node.Lessons[li].ID == lessonID {
				node.Lessons = append(node.Lessons[:li], node.Lessons[li+1:]...)
				return
			}
		}
		for si := range node.SubTopics {
			st := &node.SubTopics[si]
			for li := range st.Lessons {
				if st.Lessons[li].ID == lessonID {
					st.Lessons = append(st.Lessons[:li], st.Lessons[li+1:]...)
					return
				}
			}
		}
	}
}

func placeLesson(tree *models.CourseTree, lesson models.Lesson) error {
	for ti := range tree.Topics {
		node := &tree.Topics[ti]
		if lesson.SubTopicID != nil {
			for si := range node.SubTopics {
				if node.SubTopics[si].SubTopic.ID == *lesson.SubTopicID {
					node.SubTopics[si].Lessons = append(node.SubTopics[si].Lessons, lesson)
					return nil
				}
			}
			continue
		}
		if node.Topic.ID == lesson.TopicID {
			node.Lessons = append(node.Lessons, lesson)
			return nil
		}
	}
	return fmt.Errorf("no parent found for lesson %d", lesson.ID)
}

func removeSubTopic(tree *models.CourseTree, subTopicID int64) *models.SubTopicNode {
	for ti := range tree.Topics {
		node := &tree.Topics[ti]
		for si := range node.SubTopics {
			if node.SubTopics[si].SubTopic.ID == subTopicID {
				removed := node.SubTopics[si]
				node.SubTopics = append(node.SubTopics[:si], node.SubTopics[si+1:]...)
				return &removed
			}
		}
	}
	return nil
}

func placeSubTopic(tree *models.CourseTree, node models.SubTopicNode) error {
	for ti := range tree.Topics {
		if tree.Topics[ti].Topic.ID == node.SubTopic.TopicID {
			tree.Topics[ti].SubTopics = append(tree.Topics[ti].SubTopics, node)
			return nil
		}
	}
	return fmt.Errorf("no parent topic found for sub-topic %d", node.SubTopic.ID)
}

// retargetLessons keeps the lessons' topic reference aligned with their
// sub-topic after a reparenting move.
func retargetLessons(node *models.SubTopicNode, topicID int64) {
	for i := range node.Lessons {
		node.Lessons[i].TopicID = topicID
	}
}
