package model

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionUnmarshal(t *testing.T) {
	t.Run("binds discriminator and payload", func(t *testing.T) {
		var q Question
		err := json.Unmarshal([]byte(`{
			"id": 7, "questionType": 1, "text": "Anything to add?",
			"number": 2, "required": true, "maxLength": 500
		}`), &q)
		require.NoError(t, err)
		assert.Equal(t, KindText, q.Kind)
		assert.Equal(t, 500, q.MaxLength)
		assert.True(t, q.Required)
	})

	t.Run("rejects missing discriminator", func(t *testing.T) {
		var q Question
		err := json.Unmarshal([]byte(`{"id": 7, "text": "Anything to add?"}`), &q)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingDiscriminator))
	})

	t.Run("rejects unknown discriminator", func(t *testing.T) {
		var q Question
		err := json.Unmarshal([]byte(`{"questionType": 99, "text": "?"}`), &q)
		assert.Error(t, err)
	})
}

func TestAnswerUnmarshal(t *testing.T) {
	t.Run("binds discriminator", func(t *testing.T) {
		var a Answer
		err := json.Unmarshal([]byte(`{
			"questionId": 7, "answerType": 5, "complete": true, "selectedOptions": "4,6"
		}`), &a)
		require.NoError(t, err)
		assert.Equal(t, AnswerSelectAll, a.Kind)
		assert.Equal(t, "4,6", a.SelectedOptions)
	})

	t.Run("rejects missing discriminator", func(t *testing.T) {
		var a Answer
		err := json.Unmarshal([]byte(`{"questionId": 7, "text": "hello"}`), &a)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingDiscriminator))
	})
}

func TestOptionIDCodec(t *testing.T) {
	t.Run("joins ids comma-separated", func(t *testing.T) {
		assert.Equal(t, "4,6", JoinOptionIDs([]int{4, 6}))
		assert.Equal(t, "", JoinOptionIDs(nil))
	})

	t.Run("splits regardless of order", func(t *testing.T) {
		ids, err := SplitOptionIDs("6,4")
		require.NoError(t, err)
		assert.ElementsMatch(t, []int{4, 6}, ids)
	})

	t.Run("blank means no selection", func(t *testing.T) {
		ids, err := SplitOptionIDs("  ")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("rejects junk", func(t *testing.T) {
		_, err := SplitOptionIDs("4,six")
		assert.Error(t, err)
	})
}

func TestSurveyAccessors(t *testing.T) {
	two := 2
	survey := Survey{
		ID: 1,
		Groups: []QuestionGroup{
			{ID: 2, Number: 1, NextGroupID: &two},
			{ID: 1, Number: 0},
		},
		Questions: []Question{
			{ID: 11, GroupID: 1, Kind: KindText, Number: 2},
			{ID: 10, GroupID: 1, Kind: KindRating, Number: 1},
			{ID: 12, GroupID: 2, Kind: KindTrueFalse, Number: 1},
		},
	}

	t.Run("entry group is lowest number", func(t *testing.T) {
		entry, err := survey.EntryGroup()
		require.NoError(t, err)
		assert.Equal(t, 1, entry.ID)
	})

	t.Run("questions in group sorted by number", func(t *testing.T) {
		questions := survey.QuestionsInGroup(1)
		require.Len(t, questions, 2)
		assert.Equal(t, 10, questions[0].ID)
		assert.Equal(t, 11, questions[1].ID)
	})

	t.Run("no groups", func(t *testing.T) {
		empty := Survey{ID: 2}
		_, err := empty.EntryGroup()
		assert.Error(t, err)
	})
}

func TestSortedOptions(t *testing.T) {
	q := Question{
		Kind: KindSelectAll,
		Options: []ChoiceOption{
			{ID: 6, Order: 2},
			{ID: 4, Order: 1},
		},
	}
	options := q.SortedOptions()
	require.Len(t, options, 2)
	assert.Equal(t, 4, options[0].ID)
	// original slice untouched
	assert.Equal(t, 6, q.Options[0].ID)
}
