package engine

import (
	"github.com/branchsurvey/server/model"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// ValidateGraph checks the group traversal graph at authoring time: every
// default-next and branch edge must point at a group of the same survey,
// and no cycle may be reachable from the entry group. The navigator relies
// on this having passed and does not re-check at traversal time.
func ValidateGraph(survey *model.Survey) error {
	var errs *multierror.Error

	entry, err := survey.EntryGroup()
	if err != nil {
		return err
	}

	for i := range survey.Groups {
		g := &survey.Groups[i]
		if g.NextGroupID != nil {
			if _, ok := survey.GroupByID(*g.NextGroupID); !ok {
				errs = multierror.Append(errs, errors.Wrapf(ErrUnknownReference,
					"group %d: next group %d", g.ID, *g.NextGroupID))
			}
		}
	}
	for i := range survey.Questions {
		q := &survey.Questions[i]
		for _, opt := range q.Options {
			if opt.BranchToGroupID == nil {
				continue
			}
			if _, ok := survey.GroupByID(*opt.BranchToGroupID); !ok {
				errs = multierror.Append(errs, errors.Wrapf(ErrUnknownReference,
					"question %d option %d: branch to group %d", q.ID, opt.ID, *opt.BranchToGroupID))
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	const (
		unvisited = iota
		onPath
		done
	)
	state := map[int]int{}

	var visit func(groupID int) error
	visit = func(groupID int) error {
		switch state[groupID] {
		case onPath:
			return errors.Errorf("group graph cycle through group %d", groupID)
		case done:
			return nil
		}
		state[groupID] = onPath

		group, _ := survey.GroupByID(groupID)
		if !group.SubmitAfter {
			for _, next := range successors(survey, group) {
				if err := visit(next); err != nil {
					return err
				}
			}
		}

		state[groupID] = done
		return nil
	}

	return visit(entry.ID)
}

// successors lists every group reachable in one step from g: the default
// next group plus all branch targets of options on g's questions.
func successors(survey *model.Survey, g *model.QuestionGroup) []int {
	var next []int
	seen := map[int]bool{}

	if g.NextGroupID != nil && !seen[*g.NextGroupID] {
		seen[*g.NextGroupID] = true
		next = append(next, *g.NextGroupID)
	}
	for _, q := range survey.QuestionsInGroup(g.ID) {
		for _, opt := range q.SortedOptions() {
			if opt.BranchToGroupID == nil || seen[*opt.BranchToGroupID] {
				continue
			}
			seen[*opt.BranchToGroupID] = true
			next = append(next, *opt.BranchToGroupID)
		}
	}
	return next
}
