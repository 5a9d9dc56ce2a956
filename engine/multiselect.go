package engine

import (
	"math/rand"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
)

type selectAllHandler struct{}

func (selectAllHandler) QuestionKind() model.QuestionKind { return model.KindSelectAll }
func (selectAllHandler) AnswerKind() model.AnswerKind     { return model.AnswerSelectAll }

func (h selectAllHandler) IsValid(q *model.Question) bool {
	return q != nil && q.Kind == model.KindSelectAll && len(q.Options) > 0
}

// HasChanged compares the two comma-joined selections as sets: "4,6" and
// "6,4" are the same answer.
func (h selectAllHandler) HasChanged(incoming, existing *model.Answer) (bool, error) {
	if err := checkAnswerPair(h, incoming, existing); err != nil {
		return false, err
	}
	if incoming.Complete != existing.Complete {
		return true, nil
	}

	incomingIDs, err := incoming.SelectedIDs()
	if err != nil {
		return false, err
	}
	existingIDs, err := existing.SelectedIDs()
	if err != nil {
		return false, err
	}

	return !sameIDSet(incomingIDs, existingIDs), nil
}

func (h selectAllHandler) DisplayValue(a *model.Answer) (string, error) {
	if err := checkAnswerKind(h, a); err != nil {
		return "", err
	}
	if a.SelectedOptions == "" {
		return "[No selection]", nil
	}
	return a.SelectedOptions, nil
}

// CreateDemoAnswer flips a coin per option, then guarantees at least one
// selection so the demo answer is never empty.
func (h selectAllHandler) CreateDemoAnswer(q *model.Question, rng *rand.Rand, respondent string) (model.Answer, error) {
	if err := checkQuestionKind(h, q); err != nil {
		return model.Answer{}, err
	}
	if len(q.Options) == 0 {
		return model.Answer{}, errors.Errorf("question %d has no options to pick from", q.ID)
	}

	options := q.SortedOptions()
	var ids []int
	for _, opt := range options {
		if rng.Intn(2) == 0 {
			ids = append(ids, opt.ID)
		}
	}
	if len(ids) == 0 {
		ids = append(ids, options[rng.Intn(len(options))].ID)
	}

	answer := model.Answer{
		QuestionID:      q.ID,
		Kind:            model.AnswerSelectAll,
		Respondent:      respondent,
		Complete:        true,
		SelectedOptions: model.JoinOptionIDs(ids),
	}
	return answer, nil
}

func (h selectAllHandler) ReconcileOptions(questionID int, existing, updated []model.ChoiceOption) OptionChangeSet {
	return reconcileOptions(questionID, existing, updated)
}

func sameIDSet(a, b []int) bool {
	as := make(map[int]bool, len(a))
	for _, id := range a {
		as[id] = true
	}
	bs := make(map[int]bool, len(b))
	for _, id := range b {
		bs[id] = true
	}
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if !bs[id] {
			return false
		}
	}
	return true
}
