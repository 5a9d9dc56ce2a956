package engine

import (
	"math/rand"

	"github.com/branchsurvey/server/model"
)

type textHandler struct{}

func (textHandler) QuestionKind() model.QuestionKind { return model.KindText }
func (textHandler) AnswerKind() model.AnswerKind     { return model.AnswerText }

func (h textHandler) IsValid(q *model.Question) bool {
	return q != nil && q.Kind == model.KindText && q.MaxLength > 0
}

func (h textHandler) HasChanged(incoming, existing *model.Answer) (bool, error) {
	if err := checkAnswerPair(h, incoming, existing); err != nil {
		return false, err
	}
	return incoming.Text != existing.Text || incoming.Complete != existing.Complete, nil
}

func (h textHandler) DisplayValue(a *model.Answer) (string, error) {
	if err := checkAnswerKind(h, a); err != nil {
		return "", err
	}
	if a.Text == "" {
		return "[No text provided]", nil
	}
	return a.Text, nil
}

var demoPhrases = []string{
	"Everything worked as expected.",
	"Could be better, could be worse.",
	"Great experience overall, would recommend.",
	"No comment.",
	"The second step was confusing at first.",
}

func (h textHandler) CreateDemoAnswer(q *model.Question, rng *rand.Rand, respondent string) (model.Answer, error) {
	if err := checkQuestionKind(h, q); err != nil {
		return model.Answer{}, err
	}

	text := demoPhrases[rng.Intn(len(demoPhrases))]
	if q.MaxLength > 0 && len(text) > q.MaxLength {
		text = text[:q.MaxLength]
	}

	return model.Answer{
		QuestionID: q.ID,
		Kind:       model.AnswerText,
		Respondent: respondent,
		Complete:   true,
		Text:       text,
	}, nil
}
