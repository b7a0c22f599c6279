package collection

// Set is the persistent set from spec §4.4.5, built directly on
// HashDictionary with values discarded (every binding maps a member
// to itself).
type Set struct {
	items *HashDictionary
}

// Count returns the number of members.
func (s *Set) Count() int {
	if s.items == nil {
		return 0
	}
	return s.items.Count()
}

// Has reports whether v is a member.
func (s *Set) Has(v any) bool {
	if s.items == nil {
		return false
	}
	return s.items.Has(v)
}

// Add returns a new Set with v added; adding an existing member is a
// no-op that returns an equivalent set.
func (s *Set) Add(v any) *Set {
	items := s.items
	if items == nil {
		items = &HashDictionary{}
	}
	return &Set{items: items.SetAt(v, v)}
}

// RemoveAt returns a new Set with v removed.
func (s *Set) RemoveAt(v any) *Set {
	if s.items == nil {
		return s
	}
	newItems := s.items.RemoveAt(v)
	if newItems == s.items {
		return s
	}
	return &Set{items: newItems}
}

// Union returns the set of members present in s or other.
func (s *Set) Union(other *Set) *Set {
	result := s
	other.AsIterable(func(v any) bool {
		result = result.Add(v)
		return true
	})
	return result
}

// Intersection returns the set of members present in both s and
// other.
func (s *Set) Intersection(other *Set) *Set {
	result := &Set{}
	s.AsIterable(func(v any) bool {
		if other.Has(v) {
			result = result.Add(v)
		}
		return true
	})
	return result
}

// Difference returns the set of members present in s but not other.
func (s *Set) Difference(other *Set) *Set {
	result := &Set{}
	s.AsIterable(func(v any) bool {
		if !other.Has(v) {
			result = result.Add(v)
		}
		return true
	})
	return result
}

// AsIterable calls visit for every member, stopping early if visit
// returns false.
func (s *Set) AsIterable(visit func(any) bool) {
	if s.items == nil {
		return
	}
	s.items.AsIterable(func(k, _ any) bool {
		return visit(k)
	})
}

// AsSlice materializes the set's members.
func (s *Set) AsSlice() []any {
	out := make([]any, 0, s.Count())
	s.AsIterable(func(v any) bool {
		out = append(out, v)
		return true
	})
	return out
}
