package engine

import (
	"fmt"
	"strings"

	"github.com/branchsurvey/server/model"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Decision is the navigator's verdict on "advance from group G".
type Decision struct {
	// Terminal means the survey response is finished: either the group is
	// flagged submit-after, or there is no successor to go to.
	Terminal bool `json:"terminal"`

	// NextGroupID is the group to present next. Zero when Terminal.
	NextGroupID int `json:"nextGroupId,omitempty"`
}

// RequiredError blocks an advance while required questions in the group
// have no complete answer. It names every offending question so the caller
// can re-prompt.
type RequiredError struct {
	GroupID     int   `json:"groupId"`
	QuestionIDs []int `json:"questionIds"`

	detail error
}

func (e *RequiredError) Error() string {
	ids := make([]string, len(e.QuestionIDs))
	for i, id := range e.QuestionIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("group %d: required questions unanswered: %s",
		e.GroupID, strings.Join(ids, ", "))
}

func (e *RequiredError) Unwrap() error {
	return e.detail
}

// Navigator computes group traversal over a loaded survey aggregate. It
// holds no per-response state; the caller owns the respondent's answers and
// passes them in on every advance.
type Navigator struct {
	resolver *Resolver
}

func NewNavigator(resolver *Resolver) *Navigator {
	return &Navigator{resolver: resolver}
}

// Advance decides what follows the given group for a respondent whose
// answers so far are keyed by question id:
//
//  1. every required question in the group must have a complete answer,
//     else a RequiredError is returned
//  2. a submit-after group is terminal no matter what branches exist
//  3. otherwise the first answered option (question number ascending, then
//     option order ascending) carrying a branch target wins
//  4. otherwise the group's default successor applies; none means terminal
func (n *Navigator) Advance(survey *model.Survey, groupID int, answers map[int]*model.Answer) (Decision, error) {
	group, ok := survey.GroupByID(groupID)
	if !ok {
		return Decision{}, errors.Wrapf(ErrUnknownReference, "group %d", groupID)
	}
	questions := survey.QuestionsInGroup(group.ID)

	if err := n.checkRequired(group, questions, answers); err != nil {
		return Decision{}, err
	}

	if group.SubmitAfter {
		return Decision{Terminal: true}, nil
	}

	branch, err := n.branchTarget(survey, questions, answers)
	if err != nil {
		return Decision{}, err
	}
	if branch != 0 {
		return Decision{NextGroupID: branch}, nil
	}

	if group.NextGroupID != nil {
		next := *group.NextGroupID
		if _, ok := survey.GroupByID(next); !ok {
			return Decision{}, errors.Wrapf(ErrUnknownReference,
				"group %d: next group %d", group.ID, next)
		}
		return Decision{NextGroupID: next}, nil
	}

	return Decision{Terminal: true}, nil
}

func (n *Navigator) checkRequired(group *model.QuestionGroup, questions []*model.Question, answers map[int]*model.Answer) error {
	var missing []int
	var detail *multierror.Error
	for _, q := range questions {
		if !q.Required {
			continue
		}
		if a := answers[q.ID]; a == nil || !a.Complete {
			missing = append(missing, q.ID)
			detail = multierror.Append(detail,
				errors.Errorf("question %d (%q) has no complete answer", q.ID, q.Text))
		}
	}
	if len(missing) > 0 {
		return &RequiredError{
			GroupID:     group.ID,
			QuestionIDs: missing,
			detail:      detail.ErrorOrNil(),
		}
	}
	return nil
}

// branchTarget scans the group's answered option-bearing questions for a
// branch override. Questions arrive sorted by question number, so the first
// hit implements the tie-break: lowest question number first, and within a
// multi-selection answer, lowest option order first. Returns 0 when no
// branch fires.
func (n *Navigator) branchTarget(survey *model.Survey, questions []*model.Question, answers map[int]*model.Answer) (int, error) {
	for _, q := range questions {
		handler, err := n.resolver.ForQuestion(q.Kind)
		if err != nil {
			return 0, err
		}
		if _, bearsOptions := handler.(OptionHandler); !bearsOptions {
			continue
		}

		a := answers[q.ID]
		if a == nil {
			continue
		}

		selected, err := selectedOptionIDs(q, a)
		if err != nil {
			return 0, err
		}
		if len(selected) == 0 {
			continue
		}

		for _, opt := range q.SortedOptions() {
			if !selected[opt.ID] || opt.BranchToGroupID == nil {
				continue
			}
			target := *opt.BranchToGroupID
			if _, ok := survey.GroupByID(target); !ok {
				return 0, errors.Wrapf(ErrUnknownReference,
					"option %d branches to group %d", opt.ID, target)
			}
			return target, nil
		}
	}
	return 0, nil
}

// selectedOptionIDs extracts the answer's selection and verifies every id
// against the question's actual options.
func selectedOptionIDs(q *model.Question, a *model.Answer) (map[int]bool, error) {
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
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrKindMismatch,
			"question %d: answer kind %s carries no options", q.ID, a.Kind)
	}

	selected := make(map[int]bool, len(ids))
	for _, id := range ids {
		if _, ok := q.OptionByID(id); !ok {
			return nil, errors.Wrapf(ErrUnknownReference,
				"answer %d selects option %d, not an option of question %d", a.ID, id, q.ID)
		}
		selected[id] = true
	}
	return selected, nil
}
