package txn

import (
	"fmt"

	"github.com/cuemby/protobase/pkg/types"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// rootHistory is the atom spec §4.2/§4.7 calls a "root-history atom":
// the full root-name -> AtomPointer map published by one commit, plus
// a chain pointer back to the root-history it replaced. Each commit
// appends exactly one, giving the engine a linked audit trail of every
// published root and making rebase possible (spec §3's Root-History
// Atom definition).
type rootHistory struct {
	parent types.AtomPointer
	hasParent bool
	txnID  uuid.UUID
	roots  map[string]types.AtomPointer
}

func encodeRootHistory(h rootHistory) map[string]any {
	encodedRoots := make(map[string]any, len(h.roots))
	for name, ptr := range h.roots {
		encodedRoots[name] = ptr.Encode()
	}
	body := map[string]any{
		"txn_id": h.txnID.String(),
		"roots":  encodedRoots,
	}
	if h.hasParent {
		body["parent"] = h.parent.Encode()
	}
	return body
}

func decodeRootHistory(body map[string]any) (rootHistory, error) {
	var h rootHistory
	if raw, ok := body["parent"]; ok {
		buf, ok := raw.([]byte)
		if !ok {
			return rootHistory{}, fmt.Errorf("%w: root-history parent field is not bytes", types.ErrCorruption)
		}
		ptr, err := types.DecodeAtomPointer(buf)
		if err != nil {
			return rootHistory{}, err
		}
		h.parent = ptr
		h.hasParent = true
	}
	if raw, ok := body["txn_id"]; ok {
		s, _ := raw.(string)
		id, err := uuid.Parse(s)
		if err != nil {
			return rootHistory{}, fmt.Errorf("%w: root-history txn_id is not a uuid: %v", types.ErrCorruption, err)
		}
		h.txnID = id
	}
	roots := make(map[string]types.AtomPointer)
	rawRoots, _ := body["roots"].(map[string]any)
	for name, raw := range rawRoots {
		buf, ok := raw.([]byte)
		if !ok {
			return rootHistory{}, fmt.Errorf("%w: root-history entry %q is not bytes", types.ErrCorruption, name)
		}
		ptr, err := types.DecodeAtomPointer(buf)
		if err != nil {
			return rootHistory{}, err
		}
		roots[name] = ptr
	}
	h.roots = roots
	return h, nil
}

// decodeMsgpackBody mirrors the FormatMsgpack leg of wal's internal
// decodePayload; it is duplicated here (rather than exported from
// pkg/wal) because loading a root-history atom is a txn-layer concern
// and msgpack is already the engine's map-atom wire format.
func decodeMsgpackBody(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode root-history atom: %v", types.ErrCorruption, err)
	}
	return m, nil
}
