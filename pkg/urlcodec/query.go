package urlcodec

// Query is a string map that remembers insertion order.
// The zero value is an empty query ready to use.
type Query struct {
	keys   []string
	values map[string]string
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{values: make(map[string]string)}
}

// Set stores value under key. Replacing an existing key keeps its position.
func (q *Query) Set(key, value string) {
	if q.values == nil {
		q.values = make(map[string]string)
	}
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
}

// Get returns the value for key, or "" if absent.
func (q *Query) Get(key string) string {
	if q == nil {
		return ""
	}
	return q.values[key]
}

// Lookup returns the value for key and whether it is present.
func (q *Query) Lookup(key string) (string, bool) {
	if q == nil {
		return "", false
	}
	v, ok := q.values[key]
	return v, ok
}

// Has reports whether key is present, whatever its value.
func (q *Query) Has(key string) bool {
	_, ok := q.Lookup(key)
	return ok
}

// Delete removes key.
func (q *Query) Delete(key string) {
	if q == nil {
		return
	}
	if _, ok := q.values[key]; !ok {
		return
	}
	delete(q.values, key)
	for i, k := range q.keys {
		if k == key {
			q.keys = append(q.keys[:i], q.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (q *Query) Keys() []string {
	if q == nil {
		return nil
	}
	out := make([]string, len(q.keys))
	copy(out, q.keys)
	return out
}

// Len returns the number of entries.
func (q *Query) Len() int {
	if q == nil {
		return 0
	}
	return len(q.keys)
}
