package txn

import (
	"testing"

	"github.com/cuemby/protobase/pkg/block"
	"github.com/cuemby/protobase/pkg/cache"
	"github.com/cuemby/protobase/pkg/collection"
	"github.com/cuemby/protobase/pkg/index"
	"github.com/cuemby/protobase/pkg/types"
	"github.com/cuemby/protobase/pkg/wal"
	"github.com/stretchr/testify/require"
)

// intValue converts a msgpack-round-tripped numeric value (the
// msgpack library may hand back int64 or uint64 depending on sign and
// magnitude) back to int64 for comparison.
func intValue(t *testing.T, v any) int64 {
	t.Helper()
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	default:
		t.Fatalf("unexpected numeric type %T for value %v", v, v)
		return 0
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	provider := block.NewMemoryProvider()
	cfg := types.DefaultConfig()

	store, err := wal.Open(provider, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := cache.New(cfg, store.GetBytes)
	return NewManager(provider, store, c)
}

func TestBeginGetSetCommitRoundTrip(t *testing.T) {
	m := newTestManager(t)

	tx, err := m.Begin()
	require.NoError(t, err)

	l := (&collection.List{}).AppendLast("a").AppendLast("b")
	require.NoError(t, tx.SetRootObject("my_list", &ListValue{List: l}))

	_, found, err := tx.GetRootObject("missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, m.Commit(tx))
	require.Equal(t, "committed", tx.State())

	tx2, err := m.Begin()
	require.NoError(t, err)
	val, found, err := tx2.GetRootObject("my_list")
	require.NoError(t, err)
	require.True(t, found)
	got, ok := val.(*collection.List)
	require.True(t, ok)
	require.Equal(t, []any{"a", "b"}, got.AsSlice())
}

func TestCommitPersistsEveryCollectionKind(t *testing.T) {
	m := newTestManager(t)
	tx, err := m.Begin()
	require.NoError(t, err)

	dict := (&collection.Dictionary{}).SetAt("k1", "v1")
	set := (&collection.Set{}).Add("x").Add("y")
	repeated := (&collection.RepeatedKeysDictionary{}).SetAt("bucket", "r1").SetAt("bucket", "r2")
	reg := index.NewRegistry().Add("by_status", "active", "rec-1").Add("by_status", "active", "rec-2")

	require.NoError(t, tx.SetRootObject("d", &DictionaryValue{Dictionary: dict}))
	require.NoError(t, tx.SetRootObject("s", &SetValue{Set: set}))
	require.NoError(t, tx.SetRootObject("rk", &RepeatedKeysValue{Dictionary: repeated}))
	require.NoError(t, tx.SetRootObject("idx", NewRegistryValue(reg)))
	require.NoError(t, m.Commit(tx))

	tx2, err := m.Begin()
	require.NoError(t, err)

	dv, _, err := tx2.GetRootObject("d")
	require.NoError(t, err)
	gotDict := dv.(*collection.Dictionary)
	v, ok := gotDict.GetAt("k1")
	require.True(t, ok)
	require.Equal(t, "v1", v)

	sv, _, err := tx2.GetRootObject("s")
	require.NoError(t, err)
	gotSet := sv.(*collection.Set)
	require.True(t, gotSet.Has("x"))
	require.True(t, gotSet.Has("y"))

	rv, _, err := tx2.GetRootObject("rk")
	require.NoError(t, err)
	gotRepeated := rv.(*collection.RepeatedKeysDictionary)
	bucket, ok := gotRepeated.GetAt("bucket")
	require.True(t, ok)
	require.Equal(t, 2, bucket.Count())

	iv, _, err := tx2.GetRootObject("idx")
	require.NoError(t, err)
	gotReg := iv.(*index.Registry)
	members := gotReg.Get("by_status", "active")
	require.Equal(t, 2, members.Count())
}

func TestSnapshotIsolation(t *testing.T) {
	m := newTestManager(t)

	setup, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, setup.SetRootObject("counter", map[string]any{"value": int64(5)}))
	require.NoError(t, m.Commit(setup))

	reader, err := m.Begin()
	require.NoError(t, err)

	writer, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, writer.SetRootObject("counter", map[string]any{"value": int64(6)}))
	require.NoError(t, m.Commit(writer))

	val, found, err := reader.GetRootObject("counter")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(5), intValue(t, val.(map[string]any)["value"]))

	fresh, err := m.Begin()
	require.NoError(t, err)
	val, found, err = fresh.GetRootObject("counter")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(6), intValue(t, val.(map[string]any)["value"]))
}

// TestCommitConflict mirrors spec §8's seed scenario: T1 and T2 both
// read counter=5; T1 writes 6 and commits, T2 writes 7 and commits ->
// ConflictError.
func TestCommitConflict(t *testing.T) {
	m := newTestManager(t)

	setup, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, setup.SetRootObject("counter", map[string]any{"value": int64(5)}))
	require.NoError(t, m.Commit(setup))

	t1, err := m.Begin()
	require.NoError(t, err)
	t2, err := m.Begin()
	require.NoError(t, err)

	require.NoError(t, t1.SetRootObject("counter", map[string]any{"value": int64(6)}))
	require.NoError(t, m.Commit(t1))

	require.NoError(t, t2.SetRootObject("counter", map[string]any{"value": int64(7)}))
	err = m.Commit(t2)
	require.ErrorIs(t, err, types.ErrConflict)
	require.Equal(t, "aborted", t2.State())
}

// TestRebaseOnDisjointRoots verifies a transaction whose snapshot is
// stale still commits cleanly when the roots it touched were not
// touched by the intervening commit (spec §4.7 step 3's rebase path).
func TestRebaseOnDisjointRoots(t *testing.T) {
	m := newTestManager(t)

	t1, err := m.Begin()
	require.NoError(t, err)
	t2, err := m.Begin()
	require.NoError(t, err)

	require.NoError(t, t1.SetRootObject("a", map[string]any{"value": int64(1)}))
	require.NoError(t, m.Commit(t1))

	require.NoError(t, t2.SetRootObject("b", map[string]any{"value": int64(2)}))
	require.NoError(t, m.Commit(t2))

	final, err := m.Begin()
	require.NoError(t, err)
	av, found, err := final.GetRootObject("a")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1), intValue(t, av.(map[string]any)["value"]))

	bv, found, err := final.GetRootObject("b")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(2), intValue(t, bv.(map[string]any)["value"]))
}

func TestAbortDiscardsDrafts(t *testing.T) {
	m := newTestManager(t)
	tx, err := m.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.SetRootObject("x", map[string]any{"value": int64(1)}))
	m.Abort(tx)
	require.Equal(t, "aborted", tx.State())

	err = m.Commit(tx)
	require.ErrorIs(t, err, types.ErrClosed)
}
