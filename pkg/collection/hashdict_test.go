package collection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/protobase/pkg/types"
)

func TestHashDictionarySetGetRemove(t *testing.T) {
	h := &HashDictionary{}
	h = h.SetAt("x", 1).SetAt("y", 2)

	v, ok := h.GetAt("x")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	h2 := h.RemoveAt("x")
	assert.False(t, h2.Has("x"))
	assert.True(t, h.Has("x"))
}

func TestHashDictionaryMergeIsRightBiased(t *testing.T) {
	left := (&HashDictionary{}).SetAt("a", 1).SetAt("b", 2)
	right := (&HashDictionary{}).SetAt("b", 20).SetAt("c", 3)

	merged := left.Merge(right)
	v, _ := merged.GetAt("b")
	assert.Equal(t, 20, v, "right-hand side wins on collision")
	assert.Equal(t, 3, merged.Count())
}

func TestHashDictionaryFirstLast(t *testing.T) {
	h := &HashDictionary{}
	for i := 0; i < 20; i++ {
		h = h.SetAt(i, i*i)
	}
	_, _, ok := h.First()
	require.True(t, ok)
	_, _, ok = h.Last()
	require.True(t, ok)
}

// atomKey wraps an AtomPointer so HashDictionary hashes it by
// identity (its pointer) rather than by canonical content encoding,
// exercising the HashableAsAtom path from spec §4.4.6.
type atomKey struct{ ptr types.AtomPointer }

func (a atomKey) AtomPointer() types.AtomPointer { return a.ptr }

func TestHashDictionaryAtomKeyedEntries(t *testing.T) {
	k1 := atomKey{ptr: types.AtomPointer{TransactionID: uuid.New(), Offset: 1}}
	k2 := atomKey{ptr: types.AtomPointer{TransactionID: uuid.New(), Offset: 2}}

	h := &HashDictionary{}
	h = h.SetAt(k1, "first")
	h = h.SetAt(k2, "second")

	v, ok := h.GetAt(k1)
	require.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok = h.GetAt(k2)
	require.True(t, ok)
	assert.Equal(t, "second", v)
}
