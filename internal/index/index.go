// Package index holds the symbol table built by an indexing run.
package index

import (
	"sort"
	"sync"

	"github.com/pxp-lang/pxp-sub001/internal/entity"
)

// Index maps fully qualified function names to their entities. It is safe
// for concurrent use.
type Index struct {
	mu        sync.RWMutex
	functions map[string]*entity.FunctionEntity
}

// New returns an empty Index.
func New() *Index {
	return &Index{functions: make(map[string]*entity.FunctionEntity)}
}

// AddFunction inserts e under name, replacing any entity already there.
func (ix *Index) AddFunction(name string, e *entity.FunctionEntity) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.functions[name] = e
}

// Function looks up an entity by exact qualified name.
func (ix *Index) Function(name string) (*entity.FunctionEntity, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.functions[name]
	return e, ok
}

// Len returns the number of indexed functions.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.functions)
}

// Names returns every indexed name in lexical order.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	names := make([]string, 0, len(ix.functions))
	for name := range ix.functions {
		names = append(names, name)
	}
	ix.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Functions returns every indexed entity ordered by name.
func (ix *Index) Functions() []*entity.FunctionEntity {
	names := ix.Names()
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]*entity.FunctionEntity, 0, len(names))
	for _, name := range names {
		if e, ok := ix.functions[name]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Merge copies every entity of other into ix. Entries from other win.
func (ix *Index) Merge(other *Index) {
	if other == nil || other == ix {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for name, e := range other.functions {
		ix.functions[name] = e
	}
}
