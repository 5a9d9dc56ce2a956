package engine

import (
	"testing"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogDefinitions(t *testing.T) {
	catalog := NewCatalog()

	defs := catalog.Definitions()
	require.Len(t, defs, 5)

	t.Run("answer kind round trip", func(t *testing.T) {
		for _, def := range defs {
			byQuestion, err := catalog.DefinitionFor(def.QuestionKind)
			require.NoError(t, err)
			byAnswer, err := catalog.DefinitionForAnswer(def.AnswerKind)
			require.NoError(t, err)
			assert.Equal(t, byQuestion, byAnswer)

			q := questionOfKind(def.QuestionKind)
			answer, err := def.EnsureAnswerInitialized(&q, nil)
			require.NoError(t, err)
			assert.Equal(t, def.AnswerKind, answer.Kind)
			assert.Equal(t, q.ID, answer.QuestionID)
		}
	})

	t.Run("option kinds require options", func(t *testing.T) {
		def, err := catalog.DefinitionFor(model.KindMultipleChoice)
		require.NoError(t, err)
		assert.True(t, def.RequiresOptions)
		assert.False(t, def.AllowsMultipleSelections)

		def, err = catalog.DefinitionFor(model.KindSelectAll)
		require.NoError(t, err)
		assert.True(t, def.RequiresOptions)
		assert.True(t, def.AllowsMultipleSelections)
	})

	t.Run("unregistered kind is a distinct error", func(t *testing.T) {
		_, err := catalog.DefinitionFor(model.QuestionKind(42))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedKind))

		_, err = catalog.DefinitionForAnswer(model.AnswerKind(42))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedKind))
	})
}

func TestEnsureAnswerInitializedSelectAll(t *testing.T) {
	catalog := NewCatalog()
	def, err := catalog.DefinitionFor(model.KindSelectAll)
	require.NoError(t, err)

	q := model.Question{
		ID:   7,
		Kind: model.KindSelectAll,
		Options: []model.ChoiceOption{
			{ID: 6, Text: "Cheese", Order: 2},
			{ID: 4, Text: "Ham", Order: 1},
			{ID: 9, Text: "Olives", Order: 3},
		},
	}

	t.Run("fresh answer has one unselected slot per option", func(t *testing.T) {
		answer, err := def.EnsureAnswerInitialized(&q, nil)
		require.NoError(t, err)
		require.Len(t, answer.Selections, 3)
		assert.Equal(t, 4, answer.Selections[0].OptionID)
		assert.Equal(t, 6, answer.Selections[1].OptionID)
		assert.Equal(t, 9, answer.Selections[2].OptionID)
		for _, sel := range answer.Selections {
			assert.False(t, sel.Selected)
		}
	})

	t.Run("saved selection string is overlaid", func(t *testing.T) {
		existing := model.Answer{
			ID:              3,
			QuestionID:      7,
			Kind:            model.AnswerSelectAll,
			SelectedOptions: "9,4",
		}
		answer, err := def.EnsureAnswerInitialized(&q, &existing)
		require.NoError(t, err)
		require.Len(t, answer.Selections, 3)
		assert.True(t, answer.Selections[0].Selected)  // 4
		assert.False(t, answer.Selections[1].Selected) // 6
		assert.True(t, answer.Selections[2].Selected)  // 9
		assert.Equal(t, 3, answer.ID)
	})

	t.Run("corrupt selection string surfaces", func(t *testing.T) {
		existing := model.Answer{
			QuestionID:      7,
			Kind:            model.AnswerSelectAll,
			SelectedOptions: "9,banana",
		}
		_, err := def.EnsureAnswerInitialized(&q, &existing)
		assert.Error(t, err)
	})
}

func TestEnsureAnswerInitializedKeepsValues(t *testing.T) {
	catalog := NewCatalog()
	def, err := catalog.DefinitionFor(model.KindText)
	require.NoError(t, err)

	q := model.Question{ID: 5, Kind: model.KindText, MaxLength: 100}
	existing := model.Answer{QuestionID: 5, Kind: model.AnswerText, Text: "draft", Complete: false}

	answer, err := def.EnsureAnswerInitialized(&q, &existing)
	require.NoError(t, err)
	assert.Equal(t, "draft", answer.Text)
	assert.Equal(t, model.AnswerText, answer.Kind)
}

func questionOfKind(kind model.QuestionKind) model.Question {
	q := model.Question{ID: 1, Kind: kind, Text: "q", Number: 1}
	switch kind {
	case model.KindText:
		q.MaxLength = 200
	case model.KindMultipleChoice, model.KindSelectAll:
		q.Options = []model.ChoiceOption{
			{ID: 4, QuestionID: 1, Text: "A", Order: 1},
			{ID: 6, QuestionID: 1, Text: "B", Order: 2},
		}
	}
	return q
}
