package engine

import (
	"math/rand"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
)

// Handler implements the per-kind behavior of the engine. Handlers are
// stateless; one instance per kind serves all requests concurrently.
//
// Calling a handler with a question or answer whose kind tag does not match
// the handler's own kind returns ErrKindMismatch, never a silent coercion.
type Handler interface {
	QuestionKind() model.QuestionKind
	AnswerKind() model.AnswerKind

	// IsValid checks the question's structure (payload present and sane).
	IsValid(q *model.Question) bool

	// HasChanged reports whether saving incoming over existing would
	// change anything: the kind-specific value differs, or the shared
	// completeness flag differs.
	HasChanged(incoming, existing *model.Answer) (bool, error)

	// DisplayValue renders the answer for grids and exports.
	DisplayValue(a *model.Answer) (string, error)

	// CreateDemoAnswer synthesizes a plausible random answer for the
	// question, marked complete.
	CreateDemoAnswer(q *model.Question, rng *rand.Rand, respondent string) (model.Answer, error)
}

// OptionHandler is implemented by the option-bearing kinds
// (multiple choice, select all that apply).
type OptionHandler interface {
	Handler

	// ReconcileOptions diffs an updated option list against the persisted
	// one. See OptionChangeSet for the rules.
	ReconcileOptions(questionID int, existing, updated []model.ChoiceOption) OptionChangeSet
}

// ValidateSelection checks an option-bearing answer's selected ids against
// the question's actual options, so a malformed reference is rejected before
// the answer is persisted. Non-option kinds and empty selections pass.
func ValidateSelection(q *model.Question, a *model.Answer) error {
	var ids []int
	switch a.Kind {
	case model.AnswerMultipleChoice:
		if a.SelectedOptionID != 0 {
			ids = []int{a.SelectedOptionID}
		}
	case model.AnswerSelectAll:
		var err error
		ids, err = a.SelectedIDs()
		if err != nil {
			return err
		}
	default:
		return nil
	}

	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if _, ok := q.OptionByID(id); !ok {
			return errors.Wrapf(ErrUnknownReference,
				"option %d is not an option of question %d", id, q.ID)
		}
		if seen[id] {
			return errors.Errorf("option %d selected twice on question %d", id, q.ID)
		}
		seen[id] = true
	}
	return nil
}

func checkQuestionKind(h Handler, q *model.Question) error {
	if q == nil {
		return errors.Wrapf(ErrKindMismatch, "%s handler: nil question", h.QuestionKind())
	}
	if q.Kind != h.QuestionKind() {
		return errors.Wrapf(ErrKindMismatch,
			"question %d is %s, handler is %s", q.ID, q.Kind, h.QuestionKind())
	}
	return nil
}

func checkAnswerKind(h Handler, a *model.Answer) error {
	if a == nil {
		return errors.Wrapf(ErrKindMismatch, "%s handler: nil answer", h.AnswerKind())
	}
	if a.Kind != h.AnswerKind() {
		return errors.Wrapf(ErrKindMismatch,
			"answer %d is %s, handler is %s", a.ID, a.Kind, h.AnswerKind())
	}
	return nil
}

func checkAnswerPair(h Handler, incoming, existing *model.Answer) error {
	if err := checkAnswerKind(h, incoming); err != nil {
		return err
	}
	return checkAnswerKind(h, existing)
}
