package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalHashIsDeterministic(t *testing.T) {
	a := map[string]any{"x": 1, "y": "hello"}
	b := map[string]any{"y": "hello", "x": 1}
	assert.Equal(t, CanonicalHash(a), CanonicalHash(b), "map key order must not affect the hash")
}

func TestCanonicalHashDistinguishesValues(t *testing.T) {
	assert.NotEqual(t, CanonicalHash("abc"), CanonicalHash("abd"))
	assert.NotEqual(t, CanonicalHash(1), CanonicalHash(2))
	assert.NotEqual(t, CanonicalHash(int64(1)), CanonicalHash("1"))
}

func TestCanonicalHashNestedStructures(t *testing.T) {
	a := []any{1, map[string]any{"k": "v"}, "tail"}
	b := []any{1, map[string]any{"k": "v"}, "tail"}
	assert.Equal(t, CanonicalHash(a), CanonicalHash(b))
}
