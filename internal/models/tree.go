package models

import "sort"

// CourseTree is the fully loaded lesson tree for one course. It is the unit
// the in-memory tree store holds and the sequencing engine reads.
type CourseTree struct {
	Course Course      `json:"course"`
	Topics []TopicNode `json:"topics"`
}

// TopicNode carries a topic with its children. Direct lessons and sub-topics
// form a single sibling set ordered by sort order.
type TopicNode struct {
	Topic     Topic          `json:"topic"`
	SubTopics []SubTopicNode `json:"subTopics"`
	Lessons   []Lesson       `json:"lessons"`
}

// SubTopicNode carries a sub-topic with its lessons.
type SubTopicNode struct {
	SubTopic SubTopic `json:"subTopic"`
	Lessons  []Lesson `json:"lessons"`
}

// Sibling is a uniform view over members of one sibling set.
type Sibling struct {
	ID        int64
	Type      EntityType
	SortOrder float64
}

// TopicSiblings returns the topic sibling set of the course, sorted ascending.
func (t *CourseTree) TopicSiblings() []Sibling {
	siblings := make([]Sibling, 0, len(t.Topics))
	for _, node := range t.Topics {
		siblings = append(siblings, Sibling{ID: node.Topic.ID, Type: EntityTypeTopic, SortOrder: node.Topic.SortOrder})
	}
	sortSiblings(siblings)
	return siblings
}

// TopicChildSiblings returns the merged sibling set directly under a topic:
// its sub-topics and direct lessons share one ordering.
func (t *CourseTree) TopicChildSiblings(topicID int64) ([]Sibling, bool) {
	for _, node := range t.Topics {
		if node.Topic.ID != topicID {
			continue
		}
		siblings := make([]Sibling, 0, len(node.SubTopics)+len(node.Lessons))
		for _, st := range node.SubTopics {
			siblings = append(siblings, Sibling{ID: st.SubTopic.ID, Type: EntityTypeSubTopic, SortOrder: st.SubTopic.SortOrder})
		}
		for _, l := range node.Lessons {
			siblings = append(siblings, Sibling{ID: l.ID, Type: EntityTypeLesson, SortOrder: l.SortOrder})
		}
		sortSiblings(siblings)
		return siblings, true
	}
	return nil, false
}

// SubTopicLessonSiblings returns the lesson sibling set under a sub-topic.
func (t *CourseTree) SubTopicLessonSiblings(subTopicID int64) ([]Sibling, bool) {
	for _, node := range t.Topics {
		for _, st := range node.SubTopics {
			if st.SubTopic.ID != subTopicID {
				continue
			}
			siblings := make([]Sibling, 0, len(st.Lessons))
			for _, l := range st.Lessons {
				siblings = append(siblings, Sibling{ID: l.ID, Type: EntityTypeLesson, SortOrder: l.SortOrder})
			}
			sortSiblings(siblings)
			return siblings, true
		}
	}
	return nil, false
}

// FindLesson locates a lesson anywhere in the tree.
func (t *CourseTree) FindLesson(lessonID int64) (*Lesson, bool) {
	for ti := range t.Topics {
		for li := range t.Topics[ti].Lessons {
			if t.Topics[ti].Lessons[li].ID == lessonID {
				return &t.Topics[ti].Lessons[li], true
			}
		}
		for si := range t.Topics[ti].SubTopics {
			for li := range t.Topics[ti].SubTopics[si].Lessons {
				if t.Topics[ti].SubTopics[si].Lessons[li].ID == lessonID {
					return &t.Topics[ti].SubTopics[si].Lessons[li], true
				}
			}
		}
	}
	return nil, false
}

// FindSubTopic locates a sub-topic in the tree.
func (t *CourseTree) FindSubTopic(subTopicID int64) (*SubTopic, bool) {
	for ti := range t.Topics {
		for si := range t.Topics[ti].SubTopics {
			if t.Topics[ti].SubTopics[si].SubTopic.ID == subTopicID {
				return &t.Topics[ti].SubTopics[si].SubTopic, true
			}
		}
	}
	return nil, false
}

// FindTopic locates a topic in the tree.
func (t *CourseTree) FindTopic(topicID int64) (*Topic, bool) {
	for ti := range t.Topics {
		if t.Topics[ti].Topic.ID == topicID {
			return &t.Topics[ti].Topic, true
		}
	}
	return nil, false
}

// FlattenLessons returns the course's lessons in teaching order: topics by
// sort order, then each topic's merged child set, descending into sub-topics.
func (t *CourseTree) FlattenLessons() []Lesson {
	topics := make([]TopicNode, len(t.Topics))
	copy(topics, t.Topics)
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Topic.SortOrder < topics[j].Topic.SortOrder
	})

	var flat []Lesson
	for _, node := range topics {
		type child struct {
			order    float64
			lesson   *Lesson
			subTopic *SubTopicNode
		}
		children := make([]child, 0, len(node.Lessons)+len(node.SubTopics))
		for li := range node.Lessons {
			children = append(children, child{order: node.Lessons[li].SortOrder, lesson: &node.Lessons[li]})
		}
		for si := range node.SubTopics {
			children = append(children, child{order: node.SubTopics[si].SubTopic.SortOrder, subTopic: &node.SubTopics[si]})
		}
		sort.SliceStable(children, func(i, j int) bool { return children[i].order < children[j].order })

		for _, c := range children {
			if c.lesson != nil {
				flat = append(flat, *c.lesson)
				continue
			}
			lessons := make([]Lesson, len(c.subTopic.Lessons))
			copy(lessons, c.subTopic.Lessons)
			sort.SliceStable(lessons, func(i, j int) bool { return lessons[i].SortOrder < lessons[j].SortOrder })
			flat = append(flat, lessons...)
		}
	}
	return flat
}

func sortSiblings(siblings []Sibling) {
	sort.SliceStable(siblings, func(i, j int) bool {
		return siblings[i].SortOrder < siblings[j].SortOrder
	})
}
