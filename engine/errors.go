// Package engine implements the question/answer kind machinery and the
// group-based branching navigation of a survey: a closed catalog of five
// question kinds, one stateless handler per kind, a resolver to look them
// up, an answer reconciler, and a navigator that decides which group a
// respondent sees next.
//
// Everything here is pure computation over already-loaded data. The engine
// never touches the database; callers load the aggregate, ask for a
// decision, and perform the writes themselves.
package engine

import "github.com/pkg/errors"

var (
	// ErrUnsupportedKind reports a resolver or catalog lookup for a kind
	// that was never registered. Callers must treat this as fatal for the
	// request, never as "skip validation".
	ErrUnsupportedKind = errors.New("unsupported kind")

	// ErrKindMismatch reports a handler invoked with a question or answer
	// whose kind tag disagrees with the handler's own. This is a caller
	// bug, not bad input.
	ErrKindMismatch = errors.New("kind mismatch")

	// ErrUnknownReference reports a branch target or selected option id
	// that does not exist in the survey aggregate.
	ErrUnknownReference = errors.New("unknown reference")
)
