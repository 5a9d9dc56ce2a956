package engine

import (
	"math/rand"
	"strconv"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
)

type multipleChoiceHandler struct{}

func (multipleChoiceHandler) QuestionKind() model.QuestionKind { return model.KindMultipleChoice }
func (multipleChoiceHandler) AnswerKind() model.AnswerKind     { return model.AnswerMultipleChoice }

func (h multipleChoiceHandler) IsValid(q *model.Question) bool {
	return q != nil && q.Kind == model.KindMultipleChoice && len(q.Options) > 0
}

func (h multipleChoiceHandler) HasChanged(incoming, existing *model.Answer) (bool, error) {
	if err := checkAnswerPair(h, incoming, existing); err != nil {
		return false, err
	}
	return incoming.SelectedOptionID != existing.SelectedOptionID ||
		incoming.Complete != existing.Complete, nil
}

func (h multipleChoiceHandler) DisplayValue(a *model.Answer) (string, error) {
	if err := checkAnswerKind(h, a); err != nil {
		return "", err
	}
	if a.SelectedOptionID == 0 {
		return "[No selection]", nil
	}
	return strconv.Itoa(a.SelectedOptionID), nil
}

func (h multipleChoiceHandler) CreateDemoAnswer(q *model.Question, rng *rand.Rand, respondent string) (model.Answer, error) {
	if err := checkQuestionKind(h, q); err != nil {
		return model.Answer{}, err
	}
	if len(q.Options) == 0 {
		return model.Answer{}, errors.Errorf("question %d has no options to pick from", q.ID)
	}

	return model.Answer{
		QuestionID:       q.ID,
		Kind:             model.AnswerMultipleChoice,
		Respondent:       respondent,
		Complete:         true,
		SelectedOptionID: q.Options[rng.Intn(len(q.Options))].ID,
	}, nil
}

func (h multipleChoiceHandler) ReconcileOptions(questionID int, existing, updated []model.ChoiceOption) OptionChangeSet {
	return reconcileOptions(questionID, existing, updated)
}
