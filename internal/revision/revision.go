// Package revision implements the optimistic-concurrency primitive of
// the plan engine: a monotonically increasing counter per document
// instance, incremented exactly once per committed structural change.
//
// The counter is the sole mechanism for concurrency control. A plan
// compiled against revision N is rejected outright if the document has
// advanced past N by the time execution is attempted. Step executors
// never increment the counter; only the commit observer installed by
// Track does.
package revision

import (
	"fmt"
	"sync"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
)

// Registry tracks revisions for a set of document instances. The zero
// value is not usable; use NewRegistry or the package-level default.
type Registry struct {
	mu       sync.Mutex
	counters map[*doc.Doc]*int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{counters: make(map[*doc.Doc]*int64)}
}

// Track starts observing a document: its counter is initialized on
// first observation and incremented on every commit that changed the
// document. Tracking an already-tracked document is a no-op.
func (r *Registry) Track(d *doc.Doc) {
	r.mu.Lock()
	if _, ok := r.counters[d]; ok {
		r.mu.Unlock()
		return
	}
	counter := new(int64)
	r.counters[d] = counter
	r.mu.Unlock()

	d.OnCommit(func(changed bool) {
		if !changed {
			return
		}
		r.mu.Lock()
		*counter++
		r.mu.Unlock()
	})
}

// Untrack detaches a document, releasing its counter. Call when the
// document instance is destroyed.
func (r *Registry) Untrack(d *doc.Doc) {
	r.mu.Lock()
	delete(r.counters, d)
	r.mu.Unlock()
}

// Get returns the current revision of a tracked document. Untracked
// documents report revision 0.
func (r *Registry) Get(d *doc.Doc) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[d]; ok {
		return *c
	}
	return 0
}

// Check verifies the document is still at the expected revision.
func (r *Registry) Check(d *doc.Doc, expected int64) error {
	current := r.Get(d)
	if current != expected {
		return fmt.Errorf("revision: document at revision %d, expected %d", current, expected)
	}
	return nil
}

// Default is the process-wide registry used by the compiler and the
// plan executor.
var Default = NewRegistry()

// Track observes a document in the default registry.
func Track(d *doc.Doc) { Default.Track(d) }

// Untrack detaches a document from the default registry.
func Untrack(d *doc.Doc) { Default.Untrack(d) }

// Get reads a document's revision from the default registry.
func Get(d *doc.Doc) int64 { return Default.Get(d) }

// Check verifies a revision against the default registry.
func Check(d *doc.Doc, expected int64) error { return Default.Check(d, expected) }
