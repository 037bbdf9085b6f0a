package sets

// Set is a simple generic hash set for comparable keys.
// Usage: s := sets.New("a", "b"); s.Add("c"); if s.Has("b") {...}
type Set[T comparable] map[T]struct{}

// New creates a set pre-populated with the provided values.
func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts value into the set.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

// Has returns true if v is present. A nil set has nothing.
func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// AddNew inserts v and reports whether it was absent before.
func (s Set[T]) AddNew(v T) bool {
	if s.Has(v) {
		return false
	}
	s.Add(v)
	return true
}
