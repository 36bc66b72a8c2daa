package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/state"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
)

type courseReader interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type topicReader interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Topic, error)
}

type subTopicReader interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.SubTopic, error)
}

type lessonReader interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error)
}

// CourseService lists courses and materializes course trees into the
// in-memory store the sequencing engine reads.
type CourseService struct {
	courses   courseReader
	topics    topicReader
	subTopics subTopicReader
	lessons   lessonReader
	trees     *state.TreeStore
	cache     *CacheService
	logger    *zap.Logger
}

// NewCourseService wires the course service.
func NewCourseService(
	courses courseReader,
	topics topicReader,
	subTopics subTopicReader,
	lessons lessonReader,
	trees *state.TreeStore,
	cache *CacheService,
	logger *zap.Logger,
) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:   courses,
		topics:    topics,
		subTopics: subTopics,
		lessons:   lessons,
		trees:     trees,
		cache:     cache,
		logger:    logger,
	}
}

// ListCourses returns courses for the filter. Unknown filter values are a
// validation error, not a silent default.
func (s *CourseService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	switch filter.Filter {
	case "", "active", "archived", "both":
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("filter must be active, archived or both, got %q", filter.Filter))
	}
	if filter.Visibility != "" && filter.Visibility != models.VisibilityPrivate && filter.Visibility != models.VisibilityTeam {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown visibility %q", filter.Visibility))
	}

	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// LoadTree fetches a course with its topics, sub-topics and lessons, builds
// the tree and installs it in the store. The fresh snapshot is returned.
func (s *CourseService) LoadTree(ctx context.Context, courseID int64) (*models.CourseTree, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d not found", courseID))
	}

	topics, err := s.topics.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load topics")
	}
	subTopics, err := s.subTopics.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sub-topics")
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	tree := buildTree(*course, topics, subTopics, lessons)
	if s.trees != nil {
		if err := s.trees.Replace(tree); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("course %d tree failed validation", courseID))
		}
	}

	s.logger.Debug("course tree loaded",
		zap.Int64("course_id", courseID),
		zap.Int("topics", len(topics)),
		zap.Int("sub_topics", len(subTopics)),
		zap.Int("lessons", len(lessons)),
	)
	return &tree, nil
}

// Tree returns the course tree, loading it on first access.
func (s *CourseService) Tree(ctx context.Context, courseID int64) (*models.CourseTree, error) {
	if s.trees != nil {
		if tree, _, ok := s.trees.Get(courseID); ok {
			return &tree, nil
		}
	}
	return s.LoadTree(ctx, courseID)
}

// EvictTree drops a course tree from the store, e.g. after archiving.
func (s *CourseService) EvictTree(ctx context.Context, courseID int64) {
	if s.trees != nil {
		s.trees.Remove(courseID)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, fmt.Sprintf("course:%d:*", courseID))
	}
}

// buildTree assembles the nested tree from flat rows. Lessons referencing a
// sub-topic hang under it; the rest are direct topic children.
func buildTree(course models.Course, topics []models.Topic, subTopics []models.SubTopic, lessons []models.Lesson) models.CourseTree {
	tree := models.CourseTree{Course: course}

	topicIdx := make(map[int64]int, len(topics))
	for _, topic := range topics {
		topicIdx[topic.ID] = len(tree.Topics)
		tree.Topics = append(tree.Topics, models.TopicNode{Topic: topic})
	}

	subTopicPos := make(map[int64][2]int, len(subTopics))
	for _, st := range subTopics {
		ti, ok := topicIdx[st.TopicID]
		if !ok {
			continue
		}
		subTopicPos[st.ID] = [2]int{ti, len(tree.Topics[ti].SubTopics)}
		tree.Topics[ti].SubTopics = append(tree.Topics[ti].SubTopics, models.SubTopicNode{SubTopic: st})
	}

	for _, lesson := range lessons {
		if lesson.SubTopicID != nil {
			if pos, ok := subTopicPos[*lesson.SubTopicID]; ok {
				node := &tree.Topics[pos[0]].SubTopics[pos[1]]
				node.Lessons = append(node.Lessons, lesson)
				continue
			}
		}
		if ti, ok := topicIdx[lesson.TopicID]; ok {
			direct := lesson
			direct.SubTopicID = nil
			tree.Topics[ti].Lessons = append(tree.Topics[ti].Lessons, direct)
		}
	}

	return tree
}
