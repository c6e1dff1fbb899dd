// Package doc implements the host document subsystem the plan engine
// mutates: a versioned tree of container and text-bearing block nodes,
// inline marks, and a transaction mechanism with position mapping.
//
// The package provides:
//
//   - A Node tree with absolute positions (a node occupies [pos, pos+Size()))
//   - Marks: named, attribute-carrying annotations over text sub-ranges
//   - Transactions: a cloned working tree plus an op log and a Mapping
//     that translates pre-mutation positions through applied ops
//   - A Doc holder with a commit hook for change observers
//
// Position scheme: a text-bearing block of N runes has size N+2 (one
// boundary token on each side); a container node has size 2 plus the sum
// of its children; the document root contributes no boundary tokens, so
// its first child starts at position 0. A content offset o inside a block
// at position p has absolute address p+1+o.
//
// Concurrency: documents are single-writer. A Transaction is exclusively
// owned by its creator until Commit or abandonment; commit observers run
// synchronously on the committing goroutine.
package doc

import (
	"fmt"
	"sync/atomic"
)

// Doc owns the live tree for one document instance and notifies
// observers when a transaction commits.
type Doc struct {
	root       *Node
	generation atomic.Uint64
	observers  []func(changed bool)
}

// New creates a Doc around an existing tree. The root must be a
// container of type "doc".
func New(root *Node) *Doc {
	return &Doc{root: root}
}

// Root returns the current committed tree.
func (d *Doc) Root() *Node {
	return d.root
}

// Generation returns a counter that increases on every committed
// transaction that changed the document. Used for cache invalidation.
func (d *Doc) Generation() uint64 {
	return d.generation.Load()
}

// OnCommit registers an observer invoked after every commit with a flag
// indicating whether the committed transaction changed the document.
func (d *Doc) OnCommit(fn func(changed bool)) {
	d.observers = append(d.observers, fn)
}

// NewTransaction begins a draft against the current tree. The draft
// works on a deep clone; the committed tree is never mutated in place.
func (d *Doc) NewTransaction() *Transaction {
	return &Transaction{
		doc:  d,
		base: d.root,
		root: d.root.Clone(),
		meta: make(map[string]any),
	}
}

// Commit applies a transaction: the working tree becomes the committed
// tree and observers are notified. A transaction may be committed at
// most once, and only against the tree it was created from.
func (d *Doc) Commit(tx *Transaction) error {
	if tx.doc != d {
		return fmt.Errorf("doc: transaction belongs to a different document")
	}
	if tx.committed {
		return fmt.Errorf("doc: transaction already committed")
	}
	if tx.base != d.root {
		return fmt.Errorf("doc: transaction is stale (document changed since it was opened)")
	}
	tx.committed = true
	if tx.changed {
		d.root = tx.root
		d.generation.Add(1)
	}
	for _, fn := range d.observers {
		fn(tx.changed)
	}
	return nil
}
