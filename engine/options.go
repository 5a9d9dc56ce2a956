package engine

import (
	"sort"

	"github.com/branchsurvey/server/model"
)

// OptionChangeSet is the result of diffing an updated option list against
// the persisted one. Identity for the diff is the persisted option id,
// never the text, so renamed options survive as updates.
type OptionChangeSet struct {
	Inserts []model.ChoiceOption
	Updates []model.ChoiceOption
	Deletes []int
}

func (cs OptionChangeSet) Empty() bool {
	return len(cs.Inserts) == 0 && len(cs.Updates) == 0 && len(cs.Deletes) == 0
}

// reconcileOptions implements the id-based three-way diff shared by the
// option-bearing handlers:
//
//   - id == 0: new insert; gets the owning question id and, if no order was
//     set, a 1-based order from its position in the updated list
//   - id present in both: update-in-place, recorded only when text, order
//     or branch target actually changed
//   - non-zero id absent from the updated list: delete
//
// A non-zero id that matches nothing persisted is kept as an insert rather
// than dropped, so no authored option is ever lost silently.
func reconcileOptions(questionID int, existing, updated []model.ChoiceOption) OptionChangeSet {
	remaining := make(map[int]model.ChoiceOption, len(existing))
	for _, opt := range existing {
		remaining[opt.ID] = opt
	}

	var cs OptionChangeSet
	for i, opt := range updated {
		if opt.ID == 0 {
			opt.QuestionID = questionID
			if opt.Order == 0 {
				opt.Order = i + 1
			}
			cs.Inserts = append(cs.Inserts, opt)
			continue
		}

		prev, ok := remaining[opt.ID]
		if !ok {
			opt.QuestionID = questionID
			if opt.Order == 0 {
				opt.Order = i + 1
			}
			cs.Inserts = append(cs.Inserts, opt)
			continue
		}
		delete(remaining, opt.ID)

		if prev.Text != opt.Text || prev.Order != opt.Order ||
			!sameBranchTarget(prev.BranchToGroupID, opt.BranchToGroupID) {
			prev.Text = opt.Text
			prev.Order = opt.Order
			prev.BranchToGroupID = opt.BranchToGroupID
			cs.Updates = append(cs.Updates, prev)
		}
	}

	for id := range remaining {
		cs.Deletes = append(cs.Deletes, id)
	}
	sort.Ints(cs.Deletes)

	return cs
}

func sameBranchTarget(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
