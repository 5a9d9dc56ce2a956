package engine

import (
	"math/rand"

	"github.com/branchsurvey/server/model"
)

type trueFalseHandler struct{}

func (trueFalseHandler) QuestionKind() model.QuestionKind { return model.KindTrueFalse }
func (trueFalseHandler) AnswerKind() model.AnswerKind     { return model.AnswerTrueFalse }

func (h trueFalseHandler) IsValid(q *model.Question) bool {
	return q != nil && q.Kind == model.KindTrueFalse
}

func (h trueFalseHandler) HasChanged(incoming, existing *model.Answer) (bool, error) {
	if err := checkAnswerPair(h, incoming, existing); err != nil {
		return false, err
	}
	return incoming.Flag != existing.Flag || incoming.Complete != existing.Complete, nil
}

func (h trueFalseHandler) DisplayValue(a *model.Answer) (string, error) {
	if err := checkAnswerKind(h, a); err != nil {
		return "", err
	}
	if a.Flag {
		return "True", nil
	}
	return "False", nil
}

func (h trueFalseHandler) CreateDemoAnswer(q *model.Question, rng *rand.Rand, respondent string) (model.Answer, error) {
	if err := checkQuestionKind(h, q); err != nil {
		return model.Answer{}, err
	}

	return model.Answer{
		QuestionID: q.ID,
		Kind:       model.AnswerTrueFalse,
		Respondent: respondent,
		Complete:   true,
		Flag:       rng.Intn(2) == 0,
	}, nil
}
