package collection

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkBalanced(t *testing.T, n *avlNode[int, int]) {
	t.Helper()
	if n == nil {
		return
	}
	bf := balanceFactor(n)
	require.LessOrEqual(t, bf, 1)
	require.GreaterOrEqual(t, bf, -1)
	checkBalanced(t, n.left)
	checkBalanced(t, n.right)
}

func TestAVLRandomizedStaysBalanced(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var root *avlNode[int, int]
	oracle := map[int]int{}

	for i := 0; i < 3000; i++ {
		k := rng.Intn(500)
		switch rng.Intn(3) {
		case 0, 1:
			root = avlInsert(root, k, k*10, cmpIntForTest)
			oracle[k] = k * 10
		case 2:
			root = avlRemove(root, k, cmpIntForTest)
			delete(oracle, k)
		}
		checkBalanced(t, root)
	}

	require.Equal(t, len(oracle), count(root))
	for k, want := range oracle {
		got, ok := avlGet(root, k, cmpIntForTest)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func cmpIntForTest(a, b int) int { return a - b }

func TestAVLRangeBounds(t *testing.T) {
	var root *avlNode[int, int]
	for i := 0; i < 20; i++ {
		root = avlInsert(root, i, i, cmpIntForTest)
	}
	var got []int
	avlRange(root,
		func(k int) bool { return k >= 5 },
		func(k int) bool { return k < 10 },
		func(k, _ int) bool {
			got = append(got, k)
			return true
		},
	)
	assert.Equal(t, []int{5, 6, 7, 8, 9}, got)
}
