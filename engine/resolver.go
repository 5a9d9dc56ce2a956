package engine

import (
	"fmt"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
)

// Resolver maps question and answer kinds to their handlers. It is built
// once from the full handler set at process start and is read-only after
// that, so concurrent lookups need no synchronization.
type Resolver struct {
	catalog    *Catalog
	byQuestion map[model.QuestionKind]Handler
	byAnswer   map[model.AnswerKind]Handler
}

func NewResolver(catalog *Catalog) *Resolver {
	r := &Resolver{
		catalog:    catalog,
		byQuestion: map[model.QuestionKind]Handler{},
		byAnswer:   map[model.AnswerKind]Handler{},
	}

	r.register(textHandler{})
	r.register(trueFalseHandler{})
	r.register(ratingHandler{})
	r.register(multipleChoiceHandler{})
	r.register(selectAllHandler{})

	return r
}

func (r *Resolver) register(h Handler) {
	if _, err := r.catalog.DefinitionFor(h.QuestionKind()); err != nil {
		panic(fmt.Sprintf("engine: handler for uncataloged kind %s", h.QuestionKind()))
	}
	if _, dup := r.byQuestion[h.QuestionKind()]; dup {
		panic(fmt.Sprintf("engine: duplicate handler for kind %s", h.QuestionKind()))
	}
	r.byQuestion[h.QuestionKind()] = h
	r.byAnswer[h.AnswerKind()] = h
}

func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// ForQuestion returns the handler for a question kind, or a distinct
// ErrUnsupportedKind error on a lookup miss: never a nil handler.
func (r *Resolver) ForQuestion(kind model.QuestionKind) (Handler, error) {
	h, ok := r.byQuestion[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedKind, "question kind %s", kind)
	}
	return h, nil
}

// ForAnswer returns the handler for an answer kind, or ErrUnsupportedKind.
func (r *Resolver) ForAnswer(kind model.AnswerKind) (Handler, error) {
	h, ok := r.byAnswer[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedKind, "answer kind %s", kind)
	}
	return h, nil
}

// ForOptions returns the option-bearing handler for a question kind, or
// ErrUnsupportedKind when the kind carries no options.
func (r *Resolver) ForOptions(kind model.QuestionKind) (OptionHandler, error) {
	h, err := r.ForQuestion(kind)
	if err != nil {
		return nil, err
	}
	oh, ok := h.(OptionHandler)
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedKind, "question kind %s has no options", kind)
	}
	return oh, nil
}
