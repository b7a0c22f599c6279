package protobase

import (
	"testing"

	"github.com/cuemby/protobase/pkg/collection"
	"github.com/cuemby/protobase/pkg/txn"
	"github.com/cuemby/protobase/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestStorageContextOpenMemoryRoundTrip(t *testing.T) {
	ctx, err := OpenMemory(types.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctx.Close()) })

	tx, err := ctx.Begin()
	require.NoError(t, err)

	l := (&collection.List{}).AppendLast("a").AppendLast("b")
	require.NoError(t, tx.SetRootObject("greeting", &txn.ListValue{List: l}))
	require.NoError(t, ctx.Commit(tx))

	tx2, err := ctx.Begin()
	require.NoError(t, err)
	val, found, err := tx2.GetRootObject("greeting")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []any{"a", "b"}, val.(*collection.List).AsSlice())
}

func TestStorageContextRejectsInvalidConfig(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.CacheStripes = 0
	_, err := OpenMemory(cfg)
	require.ErrorIs(t, err, types.ErrValidation)
}
