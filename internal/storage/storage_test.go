package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type testState struct {
	Items []testItem `json:"items"`
}

// runStoreContract checks the behaviour every backend must share.
func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("load missing key", func(t *testing.T) {
		var dest testState
		err := store.Load(ctx, "missing", &dest)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save then load keeps order and quantities", func(t *testing.T) {
		in := testState{Items: []testItem{
			{ProductID: "p2", Quantity: 3},
			{ProductID: "p1", Quantity: 1},
		}}
		require.NoError(t, store.Save(ctx, KeyCart, in))

		var out testState
		require.NoError(t, store.Load(ctx, KeyCart, &out))
		assert.Equal(t, in, out)
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "overwrite", testState{Items: []testItem{{ProductID: "a", Quantity: 1}}}))
		require.NoError(t, store.Save(ctx, "overwrite", testState{Items: []testItem{{ProductID: "b", Quantity: 2}}}))

		var out testState
		require.NoError(t, store.Load(ctx, "overwrite", &out))
		require.Len(t, out.Items, 1)
		assert.Equal(t, "b", out.Items[0].ProductID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "gone", testState{}))
		require.NoError(t, store.Delete(ctx, "gone"))

		var out testState
		assert.ErrorIs(t, store.Load(ctx, "gone", &out), ErrNotFound)

		// deleting twice is fine
		assert.NoError(t, store.Delete(ctx, "gone"))
	})
}

func TestOrderKey_Format(t *testing.T) {
	assert.Equal(t, "order-WOWO-1234", OrderKey("WOWO-1234"))
}
