package engine

import (
	"testing"

	"github.com/branchsurvey/server/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileOptions(t *testing.T) {
	resolver := newTestResolver(t)
	handler, err := resolver.ForOptions(model.KindMultipleChoice)
	require.NoError(t, err)

	group2 := 2
	existing := []model.ChoiceOption{
		{ID: 4, QuestionID: 7, Text: "Ham", Order: 1},
		{ID: 6, QuestionID: 7, Text: "Cheese", Order: 2, BranchToGroupID: &group2},
		{ID: 9, QuestionID: 7, Text: "Olives", Order: 3},
	}

	t.Run("identical set is a no-op", func(t *testing.T) {
		cs := handler.ReconcileOptions(7, existing, existing)
		assert.True(t, cs.Empty())
	})

	t.Run("zero id inserts with question id and order", func(t *testing.T) {
		updated := append(append([]model.ChoiceOption{}, existing...),
			model.ChoiceOption{Text: "Anchovies"})

		cs := handler.ReconcileOptions(7, existing, updated)
		require.Len(t, cs.Inserts, 1)
		assert.Empty(t, cs.Updates)
		assert.Empty(t, cs.Deletes)

		ins := cs.Inserts[0]
		assert.Equal(t, 7, ins.QuestionID)
		assert.Equal(t, 4, ins.Order)
		assert.Equal(t, "Anchovies", ins.Text)
	})

	t.Run("explicit order on insert is kept", func(t *testing.T) {
		cs := handler.ReconcileOptions(7, nil, []model.ChoiceOption{{Text: "Solo", Order: 9}})
		require.Len(t, cs.Inserts, 1)
		assert.Equal(t, 9, cs.Inserts[0].Order)
	})

	t.Run("rename updates by id, not text", func(t *testing.T) {
		updated := []model.ChoiceOption{
			{ID: 4, Text: "Prosciutto", Order: 1},
			{ID: 6, Text: "Cheese", Order: 2, BranchToGroupID: &group2},
			{ID: 9, Text: "Olives", Order: 3},
		}

		cs := handler.ReconcileOptions(7, existing, updated)
		assert.Empty(t, cs.Inserts)
		assert.Empty(t, cs.Deletes)
		require.Len(t, cs.Updates, 1)
		assert.Equal(t, 4, cs.Updates[0].ID)
		assert.Equal(t, "Prosciutto", cs.Updates[0].Text)
		assert.Equal(t, 7, cs.Updates[0].QuestionID)
	})

	t.Run("branch target change is an update", func(t *testing.T) {
		group3 := 3
		updated := []model.ChoiceOption{
			{ID: 4, Text: "Ham", Order: 1},
			{ID: 6, Text: "Cheese", Order: 2, BranchToGroupID: &group3},
			{ID: 9, Text: "Olives", Order: 3},
		}

		cs := handler.ReconcileOptions(7, existing, updated)
		require.Len(t, cs.Updates, 1)
		assert.Equal(t, 6, cs.Updates[0].ID)
		require.NotNil(t, cs.Updates[0].BranchToGroupID)
		assert.Equal(t, 3, *cs.Updates[0].BranchToGroupID)
	})

	t.Run("absent non-zero id deletes", func(t *testing.T) {
		updated := []model.ChoiceOption{
			{ID: 6, Text: "Cheese", Order: 2, BranchToGroupID: &group2},
		}

		cs := handler.ReconcileOptions(7, existing, updated)
		assert.Empty(t, cs.Inserts)
		assert.Empty(t, cs.Updates)
		assert.Equal(t, []int{4, 9}, cs.Deletes)
	})

	t.Run("mixed change set", func(t *testing.T) {
		updated := []model.ChoiceOption{
			{ID: 4, Text: "Ham", Order: 2},
			{Text: "Capers"},
		}

		cs := handler.ReconcileOptions(7, existing, updated)
		require.Len(t, cs.Inserts, 1)
		assert.Equal(t, 2, cs.Inserts[0].Order)
		require.Len(t, cs.Updates, 1)
		assert.Equal(t, 4, cs.Updates[0].ID)
		assert.Equal(t, []int{6, 9}, cs.Deletes)
	})

	t.Run("unknown non-zero id is kept as insert", func(t *testing.T) {
		updated := append(append([]model.ChoiceOption{}, existing...),
			model.ChoiceOption{ID: 77, Text: "Imported", Order: 4})

		cs := handler.ReconcileOptions(7, existing, updated)
		require.Len(t, cs.Inserts, 1)
		assert.Equal(t, 77, cs.Inserts[0].ID)
		assert.Empty(t, cs.Deletes)
	})
}
