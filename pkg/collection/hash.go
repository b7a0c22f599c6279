package collection

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"github.com/cuemby/protobase/pkg/types"
)

// HashableAsAtom is implemented by values whose canonical hash is the
// hash of their persisted AtomPointer rather than their content, per
// spec §4.4.6: "for a persisted atom: hash = canonical hash of its
// AtomPointer."
type HashableAsAtom interface {
	AtomPointer() types.AtomPointer
}

// CanonicalHash computes the 64-bit FNV-1a hash spec §4.4.6 requires
// for non-atom keys: a deterministic encoding, never an identity hash
// (pointer address, map iteration order, etc).
func CanonicalHash(v any) uint64 {
	if a, ok := v.(HashableAsAtom); ok {
		return hashAtomPointer(a.AtomPointer())
	}
	h := fnv.New64a()
	encodeCanonical(h, v)
	return h.Sum64()
}

// canonicalEncodingEqual compares the canonical byte encodings of two
// non-atom values directly, used to break ties after a hash collision
// since CanonicalHash alone cannot prove equality.
func canonicalEncodingEqual(a, b any) bool {
	var bufA, bufB bytesBuf
	encodeCanonical(&bufA, a)
	encodeCanonical(&bufB, b)
	return bufA.String() == bufB.String()
}

type bytesBuf struct{ data []byte }

func (b *bytesBuf) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bytesBuf) String() string { return string(b.data) }

func hashAtomPointer(p types.AtomPointer) uint64 {
	h := fnv.New64a()
	h.Write(p.TransactionID[:])
	var off [8]byte
	binary.BigEndian.PutUint64(off[:], p.Offset)
	h.Write(off[:])
	return h.Sum64()
}

// encodeCanonical writes a deterministic byte encoding of v into h.
// Maps are encoded with keys sorted so that iteration order never
// affects the hash.
func encodeCanonical(h interface{ Write([]byte) (int, error) }, v any) {
	switch x := v.(type) {
	case nil:
		h.Write([]byte{0x00})
	case bool:
		if x {
			h.Write([]byte{0x01, 1})
		} else {
			h.Write([]byte{0x01, 0})
		}
	case string:
		h.Write([]byte{0x02})
		h.Write([]byte(x))
	case int:
		encodeCanonicalInt(h, int64(x))
	case int64:
		encodeCanonicalInt(h, x)
	case uint64:
		h.Write([]byte{0x04})
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], x)
		h.Write(buf[:])
	case float64:
		h.Write([]byte{0x05})
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(x))
		h.Write(buf[:])
	case []byte:
		h.Write([]byte{0x06})
		h.Write(x)
	case []any:
		h.Write([]byte{0x07})
		for _, e := range x {
			encodeCanonical(h, e)
		}
	case map[string]any:
		h.Write([]byte{0x08})
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			encodeCanonical(h, x[k])
		}
	default:
		h.Write([]byte{0xff})
		h.Write([]byte(fmt.Sprintf("%v", x)))
	}
}

func encodeCanonicalInt(h interface{ Write([]byte) (int, error) }, x int64) {
	h.Write([]byte{0x03})
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(x))
	h.Write(buf[:])
}
