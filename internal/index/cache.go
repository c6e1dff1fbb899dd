package index

import "sync"

import "github.com/wasimrehman05/superdoc-sub008/internal/doc"

// cache memoizes one Index per tree root. The root pointer changes on
// every committed mutation, so a stale tree can never serve a hit.
var cache = struct {
	sync.Mutex
	root *doc.Node
	idx  *Index
}{}

// Get returns the cached index for the tree, rebuilding when the root
// reference changed since the last call.
func Get(root *doc.Node) *Index {
	cache.Lock()
	defer cache.Unlock()
	if cache.root == root && cache.idx != nil {
		return cache.idx
	}
	idx := Build(root)
	cache.root = root
	cache.idx = idx
	return idx
}

// Invalidate drops the cached index. Tests use this to force rebuilds.
func Invalidate() {
	cache.Lock()
	defer cache.Unlock()
	cache.root = nil
	cache.idx = nil
}
