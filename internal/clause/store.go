package clause

import "sync"

// dedupeKey identifies a clause by origin page and content. Two clauses
// with the same key are the same text discovered twice.
type dedupeKey struct {
	page  int
	title string
	body  string
}

// Store is an ordered, append-only collection of clauses for one
// document. IDs are positional and match document reading order. A
// Store is mutated only while a document is being segmented; after
// that it is read-only and safe for concurrent queries.
type Store struct {
	mu      sync.RWMutex
	clauses []*Clause
	seen    map[dedupeKey]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		seen: make(map[dedupeKey]struct{}),
	}
}

// Append adds a clause and assigns it the next positional ID. A clause
// whose (page, title, body) triple was already appended is dropped and
// Append reports false.
func (s *Store) Append(title, body string, page int) (*Clause, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dedupeKey{page: page, title: title, body: body}
	if _, dup := s.seen[key]; dup {
		return nil, false
	}
	s.seen[key] = struct{}{}

	c := &Clause{
		ID:    len(s.clauses),
		Title: title,
		Body:  body,
		Page:  page,
	}
	s.clauses = append(s.clauses, c)
	return c, true
}

// Get returns the clause with the given ID.
func (s *Store) Get(id int) (*Clause, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 0 || id >= len(s.clauses) {
		return nil, false
	}
	return s.clauses[id], true
}

// All returns the clauses in ID order. The returned slice is a copy;
// the clauses themselves are shared and must not be mutated.
func (s *Store) All() []*Clause {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Clause, len(s.clauses))
	copy(out, s.clauses)
	return out
}

// Count returns the number of clauses in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clauses)
}
