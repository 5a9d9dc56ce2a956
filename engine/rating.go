package engine

import (
	"math/rand"
	"strconv"

	"github.com/branchsurvey/server/model"
)

// ratingMax is the upper bound of the 1-10 rating scale.
const ratingMax = 10

type ratingHandler struct{}

func (ratingHandler) QuestionKind() model.QuestionKind { return model.KindRating }
func (ratingHandler) AnswerKind() model.AnswerKind     { return model.AnswerRating }

func (h ratingHandler) IsValid(q *model.Question) bool {
	return q != nil && q.Kind == model.KindRating
}

func (h ratingHandler) HasChanged(incoming, existing *model.Answer) (bool, error) {
	if err := checkAnswerPair(h, incoming, existing); err != nil {
		return false, err
	}
	return incoming.Rating != existing.Rating || incoming.Complete != existing.Complete, nil
}

func (h ratingHandler) DisplayValue(a *model.Answer) (string, error) {
	if err := checkAnswerKind(h, a); err != nil {
		return "", err
	}
	if a.Rating == 0 {
		return "[No rating]", nil
	}
	return strconv.Itoa(a.Rating), nil
}

func (h ratingHandler) CreateDemoAnswer(q *model.Question, rng *rand.Rand, respondent string) (model.Answer, error) {
	if err := checkQuestionKind(h, q); err != nil {
		return model.Answer{}, err
	}

	return model.Answer{
		QuestionID: q.ID,
		Kind:       model.AnswerRating,
		Respondent: respondent,
		Complete:   true,
		Rating:     1 + rng.Intn(ratingMax),
	}, nil
}
