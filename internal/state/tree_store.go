package state

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
)

// TreeStore holds the in-memory course trees the sequencing engine reads.
// Every mutation funnels through Replace or Mutate so the structural
// invariants can be asserted in one place; readers get snapshot copies.
type TreeStore struct {
	mu     sync.RWMutex
	trees  map[int64]models.CourseTree
	vers   map[int64]uint64
	logger *zap.Logger
}

// NewTreeStore constructs an empty store.
func NewTreeStore(logger *zap.Logger) *TreeStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TreeStore{
		trees:  make(map[int64]models.CourseTree),
		vers:   make(map[int64]uint64),
		logger: logger,
	}
}

// Replace installs a freshly loaded tree for its course, bumping the version.
func (s *TreeStore) Replace(tree models.CourseTree) error {
	if err := validateTree(&tree); err != nil {
		return err
	}
	s.warnOnDuplicateOrders(&tree)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.trees[tree.Course.ID] = cloneTree(tree)
	s.vers[tree.Course.ID]++
	return nil
}

// Get returns a snapshot of the course tree and its version. Mutating the
// snapshot does not affect the store.
func (s *TreeStore) Get(courseID int64) (models.CourseTree, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tree, ok := s.trees[courseID]
	if !ok {
		return models.CourseTree{}, 0, false
	}
	return cloneTree(tree), s.vers[courseID], true
}

// Mutate applies fn to the stored tree under the store lock. The invariants
// are re-asserted before the change is committed; a failed validation leaves
// the stored tree untouched.
func (s *TreeStore) Mutate(courseID int64, fn func(*models.CourseTree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.trees[courseID]
	if !ok {
		return fmt.Errorf("course %d not loaded", courseID)
	}
	working := cloneTree(current)
	if err := fn(&working); err != nil {
		return err
	}
	if err := validateTree(&working); err != nil {
		return err
	}
	s.warnOnDuplicateOrders(&working)
	s.trees[courseID] = working
	s.vers[courseID]++
	return nil
}

// Remove drops a course tree, e.g. on course deletion or archive.
func (s *TreeStore) Remove(courseID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trees, courseID)
	delete(s.vers, courseID)
}

// Version returns the current version counter for a course tree.
func (s *TreeStore) Version(courseID int64) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vers[courseID]
}

func validateTree(tree *models.CourseTree) error {
	courseID := tree.Course.ID
	for _, node := range tree.Topics {
		if node.Topic.CourseID != courseID {
			return fmt.Errorf("topic %d belongs to course %d, not %d", node.Topic.ID, node.Topic.CourseID, courseID)
		}
		for _, lesson := range node.Lessons {
			if lesson.TopicID != node.Topic.ID {
				return fmt.Errorf("lesson %d is placed under topic %d but references topic %d", lesson.ID, node.Topic.ID, lesson.TopicID)
			}
			if lesson.SubTopicID != nil {
				return fmt.Errorf("lesson %d is a direct topic child but references sub-topic %d", lesson.ID, *lesson.SubTopicID)
			}
		}
		for _, st := range node.SubTopics {
			if st.SubTopic.TopicID != node.Topic.ID {
				return fmt.Errorf("sub-topic %d is placed under topic %d but references topic %d", st.SubTopic.ID, node.Topic.ID, st.SubTopic.TopicID)
			}
			for _, lesson := range st.Lessons {
				if lesson.SubTopicID == nil || *lesson.SubTopicID != st.SubTopic.ID {
					return fmt.Errorf("lesson %d is placed under sub-topic %d without referencing it", lesson.ID, st.SubTopic.ID)
				}
				if lesson.TopicID != node.Topic.ID {
					return fmt.Errorf("lesson %d under sub-topic %d references topic %d, expected %d", lesson.ID, st.SubTopic.ID, lesson.TopicID, node.Topic.ID)
				}
			}
		}
	}
	return nil
}

// Duplicate sort orders are a consistency warning, not an error: the
// midpoint degradation path can produce them and the tree remains usable.
func (s *TreeStore) warnOnDuplicateOrders(tree *models.CourseTree) {
	check := func(scope string, siblings []models.Sibling) {
		seen := make(map[float64]models.Sibling, len(siblings))
		for _, sib := range siblings {
			if prev, ok := seen[sib.SortOrder]; ok {
				s.logger.Warn("duplicate sort order among siblings",
					zap.String("scope", scope),
					zap.Float64("sort_order", sib.SortOrder),
					zap.String("first", models.NodeID(prev.Type, prev.ID)),
					zap.String("second", models.NodeID(sib.Type, sib.ID)),
				)
			}
			seen[sib.SortOrder] = sib
		}
	}

	check(models.NodeID(models.EntityTypeCourse, tree.Course.ID), tree.TopicSiblings())
	for _, node := range tree.Topics {
		if siblings, ok := tree.TopicChildSiblings(node.Topic.ID); ok {
			check(models.NodeID(models.EntityTypeTopic, node.Topic.ID), siblings)
		}
		for _, st := range node.SubTopics {
			if siblings, ok := tree.SubTopicLessonSiblings(st.SubTopic.ID); ok {
				check(models.NodeID(models.EntityTypeSubTopic, st.SubTopic.ID), siblings)
			}
		}
	}
}

func cloneTree(tree models.CourseTree) models.CourseTree {
	out := models.CourseTree{Course: tree.Course}
	out.Topics = make([]models.TopicNode, len(tree.Topics))
	for i, node := range tree.Topics {
		cloned := models.TopicNode{Topic: node.Topic}
		cloned.Lessons = append([]models.Lesson(nil), node.Lessons...)
		cloned.SubTopics = make([]models.SubTopicNode, len(node.SubTopics))
		for j, st := range node.SubTopics {
			cloned.SubTopics[j] = models.SubTopicNode{
				SubTopic: st.SubTopic,
				Lessons:  append([]models.Lesson(nil), st.Lessons...),
			}
		}
		out.Topics[i] = cloned
	}
	return out
}
