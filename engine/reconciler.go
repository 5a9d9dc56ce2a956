package engine

import (
	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
)

// ReconcileOutcome tells the persistence layer what to do with an incoming
// answer. The engine only decides; the caller performs the write.
type ReconcileOutcome int

const (
	// ReconcileNoop: the incoming answer matches the stored one; writing
	// it would only churn timestamps.
	ReconcileNoop ReconcileOutcome = iota

	// ReconcileInsert: no stored answer exists for this question and
	// respondent yet.
	ReconcileInsert

	// ReconcileUpdate: overwrite the stored answer's mutable fields in
	// place. Never re-create the row: its identity must survive.
	ReconcileUpdate
)

func (o ReconcileOutcome) String() string {
	switch o {
	case ReconcileNoop:
		return "noop"
	case ReconcileInsert:
		return "insert"
	case ReconcileUpdate:
		return "update"
	}
	return "reconcile_outcome(?)"
}

// Reconciler decides between insert, update and no-op for a submitted
// answer, delegating the kind-specific comparison to the handler.
type Reconciler struct {
	resolver *Resolver
}

func NewReconciler(resolver *Resolver) *Reconciler {
	return &Reconciler{resolver: resolver}
}

func (rc *Reconciler) Reconcile(incoming, existing *model.Answer) (ReconcileOutcome, error) {
	if incoming == nil {
		return ReconcileNoop, errors.New("reconcile: nil incoming answer")
	}
	if existing == nil {
		return ReconcileInsert, nil
	}
	if incoming.QuestionID != existing.QuestionID {
		return ReconcileNoop, errors.Errorf(
			"reconcile: answers belong to different questions (%d vs %d)",
			incoming.QuestionID, existing.QuestionID)
	}

	handler, err := rc.resolver.ForAnswer(incoming.Kind)
	if err != nil {
		return ReconcileNoop, err
	}

	changed, err := handler.HasChanged(incoming, existing)
	if err != nil {
		return ReconcileNoop, err
	}
	if changed {
		return ReconcileUpdate, nil
	}
	return ReconcileNoop, nil
}
