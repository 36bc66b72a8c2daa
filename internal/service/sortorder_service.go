package service

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
)

// defaultSortStep is the gap left when appending at either end of a sibling
// set, so later midpoint insertions have room.
const defaultSortStep = 10

// SortOrderService computes fractional sort orders for drag-and-drop
// repositioning. Orders are ordering keys, not dense indexes; new positions
// are found by midpoint insertion between the target and its neighbour.
type SortOrderService struct {
	logger *zap.Logger
}

// NewSortOrderService constructs the calculator.
func NewSortOrderService(logger *zap.Logger) *SortOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SortOrderService{logger: logger}
}

// NewSortOrderFor resolves the sibling set containing the target inside the
// tree and computes the dropped entity's new sort order.
func (s *SortOrderService) NewSortOrderFor(tree *models.CourseTree, targetType models.EntityType, targetID int64, position models.RelativePosition) (float64, error) {
	siblings, err := s.siblingSetOf(tree, targetType, targetID)
	if err != nil {
		return 0, err
	}
	switch position {
	case models.PositionBefore:
		return s.CalculateBeforePosition(siblings, targetID)
	case models.PositionAfter:
		return s.CalculateAfterPosition(siblings, targetID)
	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown relative position %q", position))
	}
}

// CalculateBeforePosition returns a sort order placing an entity immediately
// before the target within its sibling set.
func (s *SortOrderService) CalculateBeforePosition(siblings []models.Sibling, targetID int64) (float64, error) {
	target, ok := findSibling(siblings, targetID)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("target %d not found among siblings", targetID))
	}

	prev, found := nearestSmaller(siblings, target.SortOrder)
	if !found {
		return math.Max(target.SortOrder-defaultSortStep, 0), nil
	}
	return s.midpoint(prev.SortOrder, target.SortOrder), nil
}

// CalculateAfterPosition returns a sort order placing an entity immediately
// after the target within its sibling set.
func (s *SortOrderService) CalculateAfterPosition(siblings []models.Sibling, targetID int64) (float64, error) {
	target, ok := findSibling(siblings, targetID)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("target %d not found among siblings", targetID))
	}

	next, found := nearestLarger(siblings, target.SortOrder)
	if !found {
		return target.SortOrder + defaultSortStep, nil
	}
	return s.midpoint(target.SortOrder, next.SortOrder), nil
}

// AppendPosition returns the sort order for appending to the end of a sibling
// set: max existing order plus the default step, or the step itself when the
// set is empty. Always strictly positive.
func (s *SortOrderService) AppendPosition(siblings []models.Sibling) float64 {
	highest := 0.0
	for _, sib := range siblings {
		if sib.SortOrder > highest {
			highest = sib.SortOrder
		}
	}
	return highest + defaultSortStep
}

// midpoint implements the insertion policy: rounded midpoint when the gap
// allows, otherwise high-1 with a rebalancing warning. The collision that a
// tight gap can produce is a known degradation, not an error.
func (s *SortOrderService) midpoint(low, high float64) float64 {
	if high-low >= 2 {
		return math.Round((low + high) / 2)
	}
	s.logger.Warn("sort order gap exhausted, sibling set needs rebalancing",
		zap.Float64("low", low),
		zap.Float64("high", high),
	)
	return high - 1
}

func (s *SortOrderService) siblingSetOf(tree *models.CourseTree, targetType models.EntityType, targetID int64) ([]models.Sibling, error) {
	switch targetType {
	case models.EntityTypeTopic:
		if _, ok := tree.FindTopic(targetID); !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("topic %d not found in course %d", targetID, tree.Course.ID))
		}
		return tree.TopicSiblings(), nil

	case models.EntityTypeSubTopic:
		st, ok := tree.FindSubTopic(targetID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("sub-topic %d not found in course %d", targetID, tree.Course.ID))
		}
		siblings, _ := tree.TopicChildSiblings(st.TopicID)
		return siblings, nil

	case models.EntityTypeLesson:
		lesson, ok := tree.FindLesson(targetID)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("lesson %d not found in course %d", targetID, tree.Course.ID))
		}
		if lesson.SubTopicID != nil {
			siblings, _ := tree.SubTopicLessonSiblings(*lesson.SubTopicID)
			return siblings, nil
		}
		siblings, _ := tree.TopicChildSiblings(lesson.TopicID)
		return siblings, nil

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported target type %q", targetType))
	}
}

func findSibling(siblings []models.Sibling, id int64) (models.Sibling, bool) {
	for _, sib := range siblings {
		if sib.ID == id {
			return sib, true
		}
	}
	return models.Sibling{}, false
}

func nearestSmaller(siblings []models.Sibling, order float64) (models.Sibling, bool) {
	var best models.Sibling
	found := false
	for _, sib := range siblings {
		if sib.SortOrder >= order {
			continue
		}
		if !found || sib.SortOrder > best.SortOrder {
			best = sib
			found = true
		}
	}
	return best, found
}

func nearestLarger(siblings []models.Sibling, order float64) (models.Sibling, bool) {
	var best models.Sibling
	found := false
	for _, sib := range siblings {
		if sib.SortOrder <= order {
			continue
		}
		if !found || sib.SortOrder < best.SortOrder {
			best = sib
			found = true
		}
	}
	return best, found
}
