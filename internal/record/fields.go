package record

// Fields is an insertion-ordered mapping produced by a loader.
// Values are string, *Fields, []any (of string or *Fields) or nil.
type Fields struct {
	keys []string
	vals map[string]any
}

// NewFields returns an empty mapping.
func NewFields() *Fields {
	return &Fields{vals: make(map[string]any)}
}

// Set stores v under key. A key keeps the position of its first insertion.
func (f *Fields) Set(key string, v any) {
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = v
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (any, bool) {
	v, ok := f.vals[key]
	return v, ok
}

// String returns the value under key when it is a string.
func (f *Fields) String(key string) (string, bool) {
	v, ok := f.vals[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Keys returns the keys in insertion order.
func (f *Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len returns the number of keys.
func (f *Fields) Len() int {
	return len(f.keys)
}
