package txn

import (
	"github.com/cuemby/protobase/pkg/collection"
	"github.com/cuemby/protobase/pkg/index"
	"github.com/cuemby/protobase/pkg/types"
)

// decodeRootValue loads the atom at ptr and, where its "kind" tag
// names one of rootvalue.go's adapters, rebuilds the original typed
// collection rather than handing back the flattened map. Anything
// else (a plain staged scalar or map) is returned as its raw body.
func (m *Manager) decodeRootValue(ptr types.AtomPointer) (any, error) {
	body, err := m.loadAtom(ptr)
	if err != nil {
		return nil, err
	}
	kind, _ := body["kind"].(string)
	switch kind {
	case "list":
		items, _ := body["items"].([]any)
		l := &collection.List{}
		for _, item := range items {
			l = l.AppendLast(item)
		}
		return l, nil

	case "dictionary":
		entries, _ := body["entries"].(map[string]any)
		d := &collection.Dictionary{}
		for k, v := range entries {
			d = d.SetAt(k, v)
		}
		return d, nil

	case "set":
		members, _ := body["members"].([]any)
		s := &collection.Set{}
		for _, member := range members {
			s = s.Add(member)
		}
		return s, nil

	case "repeated_keys":
		buckets, _ := body["buckets"].(map[string]any)
		r := &collection.RepeatedKeysDictionary{}
		for k, raw := range buckets {
			members, _ := raw.([]any)
			for _, member := range members {
				r = r.SetAt(k, member)
			}
		}
		return r, nil

	case "index_registry":
		return m.decodeIndexRegistry(body)

	default:
		return body, nil
	}
}

func (m *Manager) decodeIndexRegistry(body map[string]any) (*index.Registry, error) {
	reg := index.NewRegistry()
	indexes, _ := body["indexes"].(map[string]any)
	for name, raw := range indexes {
		buf, ok := raw.([]byte)
		if !ok {
			continue
		}
		childPtr, err := types.DecodeAtomPointer(buf)
		if err != nil {
			return nil, err
		}
		childBody, err := m.loadAtom(childPtr)
		if err != nil {
			return nil, err
		}
		entries, _ := childBody["entries"].([]any)
		for _, raw := range entries {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			ids, _ := entry["ids"].([]any)
			for _, id := range ids {
				reg = reg.Add(name, entry["key"], id)
			}
		}
	}
	return reg, nil
}
