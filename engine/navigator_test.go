package engine

import (
	"testing"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

// branchingSurvey builds the fixture used across navigator tests:
//
//	group 1 (entry) -> group 2 -> group 3 (submit after)
//	group 4 is reachable only through branches
func branchingSurvey() *model.Survey {
	return &model.Survey{
		ID: 1,
		Groups: []model.QuestionGroup{
			{ID: 1, SurveyID: 1, Number: 0, Name: "Intro", NextGroupID: intp(2)},
			{ID: 2, SurveyID: 1, Number: 1, Name: "Details", NextGroupID: intp(3)},
			{ID: 3, SurveyID: 1, Number: 2, Name: "Wrap-up", NextGroupID: intp(4), SubmitAfter: true},
			{ID: 4, SurveyID: 1, Number: 3, Name: "Extras"},
		},
		Questions: []model.Question{
			{
				ID: 10, SurveyID: 1, GroupID: 1, Kind: model.KindMultipleChoice, Number: 1,
				Text: "Returning customer?",
				Options: []model.ChoiceOption{
					{ID: 4, QuestionID: 10, Text: "Yes", Order: 1, BranchToGroupID: intp(2)},
					{ID: 5, QuestionID: 10, Text: "No", Order: 2, BranchToGroupID: intp(4)},
				},
			},
			{
				ID: 11, SurveyID: 1, GroupID: 1, Kind: model.KindSelectAll, Number: 2,
				Text: "Which products do you use?",
				Options: []model.ChoiceOption{
					{ID: 6, QuestionID: 11, Text: "A", Order: 1},
					{ID: 7, QuestionID: 11, Text: "B", Order: 2, BranchToGroupID: intp(3)},
				},
			},
			{
				ID: 12, SurveyID: 1, GroupID: 2, Kind: model.KindText, Number: 1,
				Text: "Tell us more", Required: true, MaxLength: 500,
			},
			{
				ID: 13, SurveyID: 1, GroupID: 3, Kind: model.KindRating, Number: 1,
				Text: "Overall rating",
			},
		},
	}
}

func TestNavigatorAdvance(t *testing.T) {
	navigator := NewNavigator(newTestResolver(t))
	survey := branchingSurvey()

	t.Run("default successor when nothing branches", func(t *testing.T) {
		decision, err := navigator.Advance(survey, 1, map[int]*model.Answer{})
		require.NoError(t, err)
		assert.False(t, decision.Terminal)
		assert.Equal(t, 2, decision.NextGroupID)
	})

	t.Run("selected branch overrides default", func(t *testing.T) {
		answers := map[int]*model.Answer{
			10: {QuestionID: 10, Kind: model.AnswerMultipleChoice, SelectedOptionID: 5, Complete: true},
		}
		decision, err := navigator.Advance(survey, 1, answers)
		require.NoError(t, err)
		assert.Equal(t, 4, decision.NextGroupID)
	})

	t.Run("lowest question number wins the tie-break", func(t *testing.T) {
		answers := map[int]*model.Answer{
			10: {QuestionID: 10, Kind: model.AnswerMultipleChoice, SelectedOptionID: 5, Complete: true},
			11: {QuestionID: 11, Kind: model.AnswerSelectAll, SelectedOptions: "7", Complete: true},
		}
		decision, err := navigator.Advance(survey, 1, answers)
		require.NoError(t, err)
		assert.Equal(t, 4, decision.NextGroupID, "question 10 outranks question 11")
	})

	t.Run("lowest option order wins within a multi-selection", func(t *testing.T) {
		// both selected options of question 10... question 10 is single
		// choice, so use a select-all where options 6 and 7 are picked:
		// only 7 branches, so it fires even though 6 has lower order.
		answers := map[int]*model.Answer{
			11: {QuestionID: 11, Kind: model.AnswerSelectAll, SelectedOptions: "7,6", Complete: true},
		}
		decision, err := navigator.Advance(survey, 1, answers)
		require.NoError(t, err)
		assert.Equal(t, 3, decision.NextGroupID)
	})

	t.Run("unanswered branch question does not fire", func(t *testing.T) {
		answers := map[int]*model.Answer{
			10: {QuestionID: 10, Kind: model.AnswerMultipleChoice, SelectedOptionID: 0},
		}
		decision, err := navigator.Advance(survey, 1, answers)
		require.NoError(t, err)
		assert.Equal(t, 2, decision.NextGroupID)
	})

	t.Run("required gate blocks and names the question", func(t *testing.T) {
		_, err := navigator.Advance(survey, 2, map[int]*model.Answer{})
		require.Error(t, err)

		var required *RequiredError
		require.True(t, errors.As(err, &required))
		assert.Equal(t, 2, required.GroupID)
		assert.Equal(t, []int{12}, required.QuestionIDs)
	})

	t.Run("incomplete answer does not satisfy the gate", func(t *testing.T) {
		answers := map[int]*model.Answer{
			12: {QuestionID: 12, Kind: model.AnswerText, Text: "draft", Complete: false},
		}
		_, err := navigator.Advance(survey, 2, answers)
		var required *RequiredError
		require.True(t, errors.As(err, &required))
		assert.Equal(t, []int{12}, required.QuestionIDs)
	})

	t.Run("complete answer opens the gate", func(t *testing.T) {
		answers := map[int]*model.Answer{
			12: {QuestionID: 12, Kind: model.AnswerText, Text: "done", Complete: true},
		}
		decision, err := navigator.Advance(survey, 2, answers)
		require.NoError(t, err)
		assert.Equal(t, 3, decision.NextGroupID)
	})

	t.Run("submit-after group is terminal despite next group", func(t *testing.T) {
		decision, err := navigator.Advance(survey, 3, map[int]*model.Answer{})
		require.NoError(t, err)
		assert.True(t, decision.Terminal)
		assert.Zero(t, decision.NextGroupID)
	})

	t.Run("no successor means terminal", func(t *testing.T) {
		decision, err := navigator.Advance(survey, 4, map[int]*model.Answer{})
		require.NoError(t, err)
		assert.True(t, decision.Terminal)
	})

	t.Run("unknown group is rejected", func(t *testing.T) {
		_, err := navigator.Advance(survey, 99, map[int]*model.Answer{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownReference))
	})

	t.Run("selection outside the option list is rejected", func(t *testing.T) {
		answers := map[int]*model.Answer{
			10: {QuestionID: 10, Kind: model.AnswerMultipleChoice, SelectedOptionID: 99, Complete: true},
		}
		_, err := navigator.Advance(survey, 1, answers)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownReference))
	})

	t.Run("branch to a missing group is rejected", func(t *testing.T) {
		broken := branchingSurvey()
		broken.Questions[0].Options[1].BranchToGroupID = intp(99)
		answers := map[int]*model.Answer{
			10: {QuestionID: 10, Kind: model.AnswerMultipleChoice, SelectedOptionID: 5, Complete: true},
		}
		_, err := navigator.Advance(broken, 1, answers)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownReference))
	})
}

func TestValidateGraph(t *testing.T) {
	t.Run("well-formed graph passes", func(t *testing.T) {
		assert.NoError(t, ValidateGraph(branchingSurvey()))
	})

	t.Run("dangling next group fails", func(t *testing.T) {
		survey := branchingSurvey()
		survey.Groups[3].NextGroupID = intp(99)
		err := ValidateGraph(survey)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownReference))
	})

	t.Run("dangling branch target fails", func(t *testing.T) {
		survey := branchingSurvey()
		survey.Questions[1].Options[1].BranchToGroupID = intp(99)
		err := ValidateGraph(survey)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownReference))
	})

	t.Run("cycle through default successors fails", func(t *testing.T) {
		survey := branchingSurvey()
		survey.Groups[3].NextGroupID = intp(1) // 4 -> 1, closing 1 -> ... -> 4 -> 1
		err := ValidateGraph(survey)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("branch back to an earlier group fails", func(t *testing.T) {
		survey := branchingSurvey()
		survey.Questions[2].Options = []model.ChoiceOption{
			{ID: 20, QuestionID: 12, Text: "loop", Order: 1, BranchToGroupID: intp(1)},
		}
		survey.Questions[2].Kind = model.KindMultipleChoice
		err := ValidateGraph(survey)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cycle")
	})

	t.Run("submit-after stops traversal before its successors", func(t *testing.T) {
		survey := branchingSurvey()
		// a loop dangling behind a submit-after group is unreachable
		survey.Groups[2].NextGroupID = intp(3)
		assert.NoError(t, ValidateGraph(survey))
	})
}
