package collection

// RepeatedKeysDictionary is a Dictionary<string, Set> from spec
// §4.4.2's secondary-index requirements: a single key maps to a set
// of record references rather than a single value, letting an index
// bucket hold every record sharing a key.
type RepeatedKeysDictionary struct {
	dict *Dictionary
}

// Count returns the number of distinct keys (not total records).
func (r *RepeatedKeysDictionary) Count() int {
	if r.dict == nil {
		return 0
	}
	return r.dict.Count()
}

// GetAt returns the Set of records bound to key, if any.
func (r *RepeatedKeysDictionary) GetAt(key string) (*Set, bool) {
	if r.dict == nil {
		return nil, false
	}
	v, ok := r.dict.GetAt(key)
	if !ok {
		return nil, false
	}
	return v.(*Set), true
}

// Has reports whether key has at least one record bound to it.
func (r *RepeatedKeysDictionary) Has(key string) bool {
	_, ok := r.GetAt(key)
	return ok
}

// SetAt adds record to the set bound to key, creating the bucket if
// key is new.
func (r *RepeatedKeysDictionary) SetAt(key string, record any) *RepeatedKeysDictionary {
	dict := r.dict
	if dict == nil {
		dict = &Dictionary{}
	}
	bucket, ok := r.GetAt(key)
	if !ok {
		bucket = &Set{}
	}
	return &RepeatedKeysDictionary{dict: dict.SetAt(key, bucket.Add(record))}
}

// RemoveRecordAt removes a single record from key's bucket, deleting
// the bucket entirely once it becomes empty.
func (r *RepeatedKeysDictionary) RemoveRecordAt(key string, record any) *RepeatedKeysDictionary {
	bucket, ok := r.GetAt(key)
	if !ok {
		return r
	}
	newBucket := bucket.RemoveAt(record)
	if newBucket.Count() == 0 {
		return &RepeatedKeysDictionary{dict: r.dict.RemoveAt(key)}
	}
	return &RepeatedKeysDictionary{dict: r.dict.SetAt(key, newBucket)}
}

// RemoveAt deletes key and its entire bucket of records.
func (r *RepeatedKeysDictionary) RemoveAt(key string) *RepeatedKeysDictionary {
	if r.dict == nil {
		return r
	}
	newDict := r.dict.RemoveAt(key)
	if newDict == r.dict {
		return r
	}
	return &RepeatedKeysDictionary{dict: newDict}
}

// AsIterable calls visit for every (key, record-set) pair in ascending
// key order, stopping early if visit returns false.
func (r *RepeatedKeysDictionary) AsIterable(visit func(string, *Set) bool) {
	if r.dict == nil {
		return
	}
	r.dict.AsIterable(func(k string, v any) bool {
		return visit(k, v.(*Set))
	})
}

// Range calls visit for every (key, record-set) pair whose key lies in
// [low, high).
func (r *RepeatedKeysDictionary) Range(low, high string, hasLow, hasHigh bool, visit func(string, *Set) bool) {
	if r.dict == nil {
		return
	}
	r.dict.Range(low, high, hasLow, hasHigh, func(k string, v any) bool {
		return visit(k, v.(*Set))
	})
}
