package engine

import (
	"fmt"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
)

// KindDefinition is one entry of the kind catalog: pure data describing a
// question kind and its companion answer kind.
type KindDefinition struct {
	QuestionKind             model.QuestionKind
	AnswerKind               model.AnswerKind
	DisplayName              string
	RequiresOptions          bool
	AllowsMultipleSelections bool
}

// EnsureAnswerInitialized returns a correctly-shaped answer for the given
// question, overlaying the values of a previously saved answer when one
// exists. For select-all questions it builds one selection slot per option,
// all false, then applies the saved comma-joined selection string; a stored
// string that fails to parse is an error, never a silently empty selection.
func (d KindDefinition) EnsureAnswerInitialized(q *model.Question, existing *model.Answer) (model.Answer, error) {
	answer := model.Answer{
		QuestionID: q.ID,
		Kind:       d.AnswerKind,
	}
	if existing != nil {
		answer = *existing
		answer.Kind = d.AnswerKind
		answer.QuestionID = q.ID
	}

	if d.QuestionKind != model.KindSelectAll {
		return answer, nil
	}

	ids, err := model.SplitOptionIDs(answer.SelectedOptions)
	if err != nil {
		return model.Answer{}, errors.Wrapf(err, "question %d: stored selection", q.ID)
	}
	selected := make(map[int]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	options := q.SortedOptions()
	answer.Selections = make([]model.OptionSelection, len(options))
	for i, opt := range options {
		answer.Selections[i] = model.OptionSelection{
			OptionID: opt.ID,
			Text:     opt.Text,
			Selected: selected[opt.ID],
		}
	}
	return answer, nil
}

// Catalog is the immutable registry of the five supported kinds. It is
// built once at process start and passed by reference wherever kind
// metadata is needed; there is no global lazy registry.
type Catalog struct {
	byQuestion map[model.QuestionKind]KindDefinition
	byAnswer   map[model.AnswerKind]KindDefinition
}

func NewCatalog() *Catalog {
	c := &Catalog{
		byQuestion: map[model.QuestionKind]KindDefinition{},
		byAnswer:   map[model.AnswerKind]KindDefinition{},
	}

	c.register(KindDefinition{model.KindText, model.AnswerText, "Free text", false, false})
	c.register(KindDefinition{model.KindTrueFalse, model.AnswerTrueFalse, "True/false", false, false})
	c.register(KindDefinition{model.KindRating, model.AnswerRating, "Rating 1-10", false, false})
	c.register(KindDefinition{model.KindMultipleChoice, model.AnswerMultipleChoice, "Multiple choice", true, false})
	c.register(KindDefinition{model.KindSelectAll, model.AnswerSelectAll, "Select all that apply", true, true})

	return c
}

// register fails fast on duplicates: the kind set is fixed at compile time,
// so a collision here is a programming error.
func (c *Catalog) register(def KindDefinition) {
	if _, dup := c.byQuestion[def.QuestionKind]; dup {
		panic(fmt.Sprintf("engine: duplicate question kind %s", def.QuestionKind))
	}
	if _, dup := c.byAnswer[def.AnswerKind]; dup {
		panic(fmt.Sprintf("engine: duplicate answer kind %s", def.AnswerKind))
	}
	c.byQuestion[def.QuestionKind] = def
	c.byAnswer[def.AnswerKind] = def
}

func (c *Catalog) DefinitionFor(kind model.QuestionKind) (KindDefinition, error) {
	def, ok := c.byQuestion[kind]
	if !ok {
		return KindDefinition{}, errors.Wrapf(ErrUnsupportedKind, "question kind %s", kind)
	}
	return def, nil
}

func (c *Catalog) DefinitionForAnswer(kind model.AnswerKind) (KindDefinition, error) {
	def, ok := c.byAnswer[kind]
	if !ok {
		return KindDefinition{}, errors.Wrapf(ErrUnsupportedKind, "answer kind %s", kind)
	}
	return def, nil
}

// Definitions lists all registered kinds in question-kind order.
func (c *Catalog) Definitions() []KindDefinition {
	defs := make([]KindDefinition, 0, len(c.byQuestion))
	for k := model.KindText; k <= model.KindSelectAll; k++ {
		if def, ok := c.byQuestion[k]; ok {
			defs = append(defs, def)
		}
	}
	return defs
}
