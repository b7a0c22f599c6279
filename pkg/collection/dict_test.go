package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionarySetGetRemove(t *testing.T) {
	d := &Dictionary{}
	d = d.SetAt("a", 1).SetAt("b", 2).SetAt("c", 3)

	v, ok := d.GetAt("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	d2 := d.RemoveAt("b")
	assert.False(t, d2.Has("b"))
	assert.True(t, d.Has("b"), "original dictionary must be unaffected by removal")
}

func TestDictionaryOverwrite(t *testing.T) {
	d := (&Dictionary{}).SetAt("k", 1).SetAt("k", 2)
	v, _ := d.GetAt("k")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, d.Count())
}

func TestDictionaryRange(t *testing.T) {
	d := &Dictionary{}
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		d = d.SetAt(k, k)
	}
	var got []string
	d.Range("b", "d", true, true, func(k string, _ any) bool {
		got = append(got, k)
		return true
	})
	assert.Equal(t, []string{"b", "c"}, got)
}

func TestDictionaryKeysAscending(t *testing.T) {
	d := &Dictionary{}
	for _, k := range []string{"z", "a", "m"} {
		d = d.SetAt(k, true)
	}
	assert.Equal(t, []string{"a", "m", "z"}, d.Keys())
}
