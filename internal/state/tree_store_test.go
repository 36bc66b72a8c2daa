package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/planbook/planbook-api/internal/models"
)

func sampleTree() models.CourseTree {
	sub := int64(5)
	return models.CourseTree{
		Course: models.Course{ID: 1, Title: "Biology"},
		Topics: []models.TopicNode{
			{
				Topic: models.Topic{ID: 3, CourseID: 1, Title: "Cells", SortOrder: 10},
				Lessons: []models.Lesson{
					{ID: 62, TopicID: 3, Title: "Membranes", SortOrder: 10},
					{ID: 63, TopicID: 3, Title: "Organelles", SortOrder: 20},
				},
				SubTopics: []models.SubTopicNode{
					{
						SubTopic: models.SubTopic{ID: 5, TopicID: 3, Title: "Mitosis", SortOrder: 30},
						Lessons: []models.Lesson{
							{ID: 64, TopicID: 3, SubTopicID: &sub, Title: "Prophase", SortOrder: 10},
						},
					},
				},
			},
		},
	}
}

func TestTreeStoreReplaceAndGetSnapshot(t *testing.T) {
	store := NewTreeStore(zap.NewNop())
	require.NoError(t, store.Replace(sampleTree()))

	tree, version, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), version)

	// Snapshot mutation must not leak back into the store.
	tree.Topics[0].Lessons[0].SortOrder = 999
	fresh, _, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, 10.0, fresh.Topics[0].Lessons[0].SortOrder)
}

func TestTreeStoreRejectsOrphanLesson(t *testing.T) {
	tree := sampleTree()
	tree.Topics[0].Lessons[0].TopicID = 99

	store := NewTreeStore(zap.NewNop())
	err := store.Replace(tree)
	require.Error(t, err)
}

func TestTreeStoreRejectsDirectLessonWithSubTopicRef(t *testing.T) {
	tree := sampleTree()
	bogus := int64(5)
	tree.Topics[0].Lessons[0].SubTopicID = &bogus

	store := NewTreeStore(zap.NewNop())
	require.Error(t, store.Replace(tree))
}

func TestTreeStoreMutateBumpsVersion(t *testing.T) {
	store := NewTreeStore(zap.NewNop())
	require.NoError(t, store.Replace(sampleTree()))

	err := store.Mutate(1, func(tree *models.CourseTree) error {
		tree.Topics[0].Lessons[0].SortOrder = 15
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), store.Version(1))

	tree, _, _ := store.Get(1)
	assert.Equal(t, 15.0, tree.Topics[0].Lessons[0].SortOrder)
}

func TestTreeStoreMutateRollsBackOnInvalidResult(t *testing.T) {
	store := NewTreeStore(zap.NewNop())
	require.NoError(t, store.Replace(sampleTree()))

	err := store.Mutate(1, func(tree *models.CourseTree) error {
		tree.Topics[0].SubTopics[0].Lessons[0].SubTopicID = nil
		return nil
	})
	require.Error(t, err)

	tree, _, _ := store.Get(1)
	require.NotNil(t, tree.Topics[0].SubTopics[0].Lessons[0].SubTopicID)
	assert.Equal(t, uint64(1), store.Version(1))
}

func TestTreeStoreMutateUnknownCourse(t *testing.T) {
	store := NewTreeStore(zap.NewNop())
	err := store.Mutate(42, func(*models.CourseTree) error { return nil })
	assert.Error(t, err)
}
