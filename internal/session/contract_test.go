package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-assistant/internal/workflow"
)

func sampleState(userID int64, kind workflow.Kind) *workflow.State {
	return &workflow.State{
		UserID:      userID,
		Kind:        kind,
		Messages:    []workflow.Message{{Role: workflow.RoleUser, Content: "hello", Workflow: kind}},
		Items:       []workflow.Item{{Title: "Cloud", Suggestions: []string{"certify"}}},
		Facts:       map[string]string{"skills": "Go"},
		TotalCount:  1,
		CurrentStep: "identify_gaps",
	}
}

// runStoreContract exercises the behavior every Store must share
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		st, ok, err := store.Get(ctx, Key{UserID: 1001, Kind: workflow.KindGapJob})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, st)
	})

	t.Run("put get delete", func(t *testing.T) {
		key := Key{UserID: 1002, Kind: workflow.KindGapProfile}
		require.NoError(t, store.Put(ctx, key, sampleState(1002, workflow.KindGapProfile)))

		st, ok, err := store.Get(ctx, key)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "identify_gaps", st.CurrentStep)
		assert.Equal(t, "Cloud", st.Items[0].Title)

		require.NoError(t, store.Delete(ctx, key))
		_, ok, err = store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("returned state is a copy", func(t *testing.T) {
		key := Key{UserID: 1003, Kind: workflow.KindResumeGeneration}
		orig := sampleState(1003, workflow.KindResumeGeneration)
		require.NoError(t, store.Put(ctx, key, orig))
		orig.CurrentStep = "mutated after put"

		st, _, err := store.Get(ctx, key)
		require.NoError(t, err)
		st.Items[0].Title = "mutated after get"

		again, _, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "identify_gaps", again.CurrentStep)
		assert.Equal(t, "Cloud", again.Items[0].Title)
	})

	t.Run("list and delete by user", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, Key{UserID: 1, Kind: workflow.KindGapJob}, sampleState(1, workflow.KindGapJob)))
		require.NoError(t, store.Put(ctx, Key{UserID: 1, Kind: workflow.KindGapProfile}, sampleState(1, workflow.KindGapProfile)))
		require.NoError(t, store.Put(ctx, Key{UserID: 12, Kind: workflow.KindGapJob}, sampleState(12, workflow.KindGapJob)))

		keys, err := store.ListByUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []Key{
			{UserID: 1, Kind: workflow.KindGapJob},
			{UserID: 1, Kind: workflow.KindGapProfile},
		}, keys)

		n, err := store.DeleteUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		keys, err = store.ListByUser(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, keys)

		// user 12 shares the "user_1" prefix text but must be untouched
		keys, err = store.ListByUser(ctx, 12)
		require.NoError(t, err)
		assert.Len(t, keys, 1)
		_, _ = store.DeleteUser(ctx, 12)
	})

	t.Run("delete user with nothing stored", func(t *testing.T) {
		n, err := store.DeleteUser(ctx, 424242)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("nil state rejected", func(t *testing.T) {
		assert.ErrorIs(t, store.Put(ctx, Key{UserID: 5, Kind: workflow.KindReachout}, nil), ErrNilState)
	})
}
