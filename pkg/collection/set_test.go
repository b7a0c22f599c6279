package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetAddHasRemove(t *testing.T) {
	s := &Set{}
	s = s.Add("a").Add("b").Add("a")
	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Has("a"))

	s2 := s.RemoveAt("a")
	assert.False(t, s2.Has("a"))
	assert.True(t, s.Has("a"), "original set must be unaffected")
}

func TestSetUnionIntersectionDifference(t *testing.T) {
	a := (&Set{}).Add(1).Add(2).Add(3)
	b := (&Set{}).Add(2).Add(3).Add(4)

	union := a.Union(b)
	assert.Equal(t, 4, union.Count())

	inter := a.Intersection(b)
	assert.Equal(t, 2, inter.Count())
	assert.True(t, inter.Has(2))
	assert.True(t, inter.Has(3))

	diff := a.Difference(b)
	assert.Equal(t, 1, diff.Count())
	assert.True(t, diff.Has(1))
}
