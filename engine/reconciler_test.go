package engine

import (
	"testing"

	"github.com/branchsurvey/server/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	reconciler := NewReconciler(newTestResolver(t))

	t.Run("no stored answer inserts", func(t *testing.T) {
		incoming := model.Answer{QuestionID: 7, Kind: model.AnswerText, Text: "hi"}
		outcome, err := reconciler.Reconcile(&incoming, nil)
		require.NoError(t, err)
		assert.Equal(t, ReconcileInsert, outcome)
	})

	t.Run("identical resubmit is a no-op", func(t *testing.T) {
		stored := model.Answer{ID: 3, QuestionID: 7, Kind: model.AnswerText, Text: "hi", Complete: true}
		incoming := model.Answer{QuestionID: 7, Kind: model.AnswerText, Text: "hi", Complete: true}
		outcome, err := reconciler.Reconcile(&incoming, &stored)
		require.NoError(t, err)
		assert.Equal(t, ReconcileNoop, outcome)
	})

	t.Run("changed value updates in place", func(t *testing.T) {
		stored := model.Answer{ID: 3, QuestionID: 7, Kind: model.AnswerRating, Rating: 4, Complete: true}
		incoming := model.Answer{QuestionID: 7, Kind: model.AnswerRating, Rating: 9, Complete: true}
		outcome, err := reconciler.Reconcile(&incoming, &stored)
		require.NoError(t, err)
		assert.Equal(t, ReconcileUpdate, outcome)
	})

	t.Run("completion alone forces an update", func(t *testing.T) {
		stored := model.Answer{ID: 3, QuestionID: 7, Kind: model.AnswerSelectAll, SelectedOptions: "4,6"}
		incoming := model.Answer{QuestionID: 7, Kind: model.AnswerSelectAll, SelectedOptions: "6,4", Complete: true}
		outcome, err := reconciler.Reconcile(&incoming, &stored)
		require.NoError(t, err)
		assert.Equal(t, ReconcileUpdate, outcome)
	})

	t.Run("different questions are a caller bug", func(t *testing.T) {
		stored := model.Answer{QuestionID: 8, Kind: model.AnswerText}
		incoming := model.Answer{QuestionID: 7, Kind: model.AnswerText}
		_, err := reconciler.Reconcile(&incoming, &stored)
		assert.Error(t, err)
	})

	t.Run("unsupported kind surfaces distinctly", func(t *testing.T) {
		stored := model.Answer{QuestionID: 7}
		incoming := model.Answer{QuestionID: 7}
		_, err := reconciler.Reconcile(&incoming, &stored)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedKind))
	})
}
