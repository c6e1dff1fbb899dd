// Package index builds and caches the flat list of text-bearing block
// candidates the target compiler resolves selectors against.
//
// An Index is a snapshot of one tree: positions recorded here shift
// after any mutation, so callers running sequential mutating steps must
// re-derive positions through the transaction's position mapping rather
// than trust a pre-mutation index.
package index

import "github.com/wasimrehman05/superdoc-sub008/internal/doc"

// Candidate is a snapshot of one text-bearing block's address at
// index-build time.
type Candidate struct {
	ID   string
	Pos  int
	End  int
	Size int
	Node *doc.Node
}

// Index is the candidate list for one tree, in document order.
type Index struct {
	candidates []Candidate
	byID       map[string]int
}

// Build traverses the tree once, recording every text-bearing block.
func Build(root *doc.Node) *Index {
	idx := &Index{byID: make(map[string]int)}
	doc.Walk(root, func(n *doc.Node, pos int) bool {
		if !n.IsTextBlock() {
			return true
		}
		c := Candidate{
			ID:   n.BlockID(),
			Pos:  pos,
			End:  pos + n.Size(),
			Size: n.Size(),
			Node: n,
		}
		if c.ID != "" {
			if _, dup := idx.byID[c.ID]; !dup {
				idx.byID[c.ID] = len(idx.candidates)
			}
		}
		idx.candidates = append(idx.candidates, c)
		return true
	})
	return idx
}

// Candidates returns the blocks in document order.
func (idx *Index) Candidates() []Candidate {
	return idx.candidates
}

// FindByID returns the candidate with the given stable id.
func (idx *Index) FindByID(id string) (Candidate, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return Candidate{}, false
	}
	return idx.candidates[i], true
}

// Len returns the number of candidates.
func (idx *Index) Len() int {
	return len(idx.candidates)
}
