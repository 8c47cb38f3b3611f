package engine

import "sync"

// Registry maps document IDs to served Index handles. Put replaces
// the stored pointer, so queries already running against a previous
// handle finish on a consistent snapshot while new queries see the
// replacement. It is the only mutable state in the serving path.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]*Index
	order   []string // insertion order, latest last
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]*Index)}
}

// Put installs or replaces the handle served for a document.
func (r *Registry) Put(docID string, idx *Index) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[docID]; !exists {
		r.order = append(r.order, docID)
	} else {
		r.moveToEnd(docID)
	}
	r.handles[docID] = idx
}

// Get returns the handle served for a document.
func (r *Registry) Get(docID string) (*Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.handles[docID]
	return idx, ok
}

// Latest returns the most recently installed handle.
func (r *Registry) Latest() (string, *Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) == 0 {
		return "", nil, false
	}
	docID := r.order[len(r.order)-1]
	return docID, r.handles[docID], true
}

// Delete removes a document's handle.
func (r *Registry) Delete(docID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[docID]; !exists {
		return
	}
	delete(r.handles, docID)
	for i, id := range r.order {
		if id == docID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// IDs returns the registered document IDs in installation order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// moveToEnd refreshes docID's position. Callers hold r.mu.
func (r *Registry) moveToEnd(docID string) {
	for i, id := range r.order {
		if id == docID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			r.order = append(r.order, docID)
			return
		}
	}
}
