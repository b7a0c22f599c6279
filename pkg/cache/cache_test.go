package cache

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/cuemby/protobase/pkg/types"
	"github.com/stretchr/testify/require"
)

func testPointer(offset uint64) types.AtomPointer {
	return types.AtomPointer{TransactionID: types.NewTransactionID(), Offset: offset}
}

func TestGetBytesLoadsOnMissAndCachesOnHit(t *testing.T) {
	ptr := testPointer(1)
	var loads int64
	loader := func(p types.AtomPointer) ([]byte, error) {
		atomic.AddInt64(&loads, 1)
		return []byte("payload"), nil
	}

	cfg := types.DefaultConfig()
	c := New(cfg, loader)

	data, err := c.GetBytes(ptr)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)

	data, err = c.GetBytes(ptr)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), data)
	require.EqualValues(t, 1, atomic.LoadInt64(&loads), "second read should be served from cache")
}

func TestGetObjectDecodesOnceAndCaches(t *testing.T) {
	ptr := testPointer(2)
	loader := func(p types.AtomPointer) ([]byte, error) {
		return []byte(`{"k":"v"}`), nil
	}
	var decodes int64
	decode := func(data []byte) (map[string]any, error) {
		atomic.AddInt64(&decodes, 1)
		return map[string]any{"k": "v"}, nil
	}

	cfg := types.DefaultConfig()
	c := New(cfg, loader)

	obj, err := c.GetObject(ptr, decode)
	require.NoError(t, err)
	require.Equal(t, "v", obj["k"])

	obj, err = c.GetObject(ptr, decode)
	require.NoError(t, err)
	require.Equal(t, "v", obj["k"])
	require.EqualValues(t, 1, atomic.LoadInt64(&decodes), "second read should be served from the object cache")
}

func TestPutBytesWarmsCacheWithoutLoader(t *testing.T) {
	ptr := testPointer(3)
	loader := func(p types.AtomPointer) ([]byte, error) {
		return nil, fmt.Errorf("loader should not be called")
	}
	cfg := types.DefaultConfig()
	c := New(cfg, loader)

	c.PutBytes(ptr, []byte("written"))
	data, err := c.GetBytes(ptr)
	require.NoError(t, err)
	require.Equal(t, []byte("written"), data)
}

func TestDisabledObjectCacheDecodesEveryRead(t *testing.T) {
	ptr := testPointer(4)
	loader := func(p types.AtomPointer) ([]byte, error) {
		return []byte(`{"k":"v"}`), nil
	}
	var decodes int64
	decode := func(data []byte) (map[string]any, error) {
		atomic.AddInt64(&decodes, 1)
		return map[string]any{"k": "v"}, nil
	}

	cfg := types.DefaultConfig()
	cfg.EnableObjectCache = false
	c := New(cfg, loader)

	_, err := c.GetObject(ptr, decode)
	require.NoError(t, err)
	_, err = c.GetObject(ptr, decode)
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt64(&decodes), "disabled object cache should decode every read")
}
