// Package testutil provides document and plan builders for tests.
package testutil

import (
	"fmt"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
)

// Block is a compact description of one block for document building.
type Block struct {
	ID    string
	Type  string // default "paragraph"
	Text  string
	Spans []doc.Span     // overrides Text when set
	Attrs map[string]any // merged on top of the id attribute
}

// BuildDoc constructs a document whose root holds the given blocks as
// direct children.
func BuildDoc(blocks ...Block) *doc.Doc {
	root := &doc.Node{Type: "doc"}
	for _, b := range blocks {
		root.Children = append(root.Children, BuildBlock(b))
	}
	return doc.New(root)
}

// BuildBlock constructs one text-bearing block node.
func BuildBlock(b Block) *doc.Node {
	nodeType := b.Type
	if nodeType == "" {
		nodeType = "paragraph"
	}
	attrs := map[string]any{doc.AttrBlockID: b.ID}
	for k, v := range b.Attrs {
		attrs[k] = v
	}
	node := &doc.Node{Type: nodeType, Attrs: attrs}
	switch {
	case len(b.Spans) > 0:
		node.Inline = b.Spans
	case b.Text != "":
		node.Inline = []doc.Span{{Text: b.Text}}
	}
	return node
}

// Container wraps blocks in a container node (table, list, ...). The
// container may carry a blockId attribute; container ids are allowed
// to collide with block ids without consequence.
func Container(nodeType, id string, children ...*doc.Node) *doc.Node {
	node := &doc.Node{Type: nodeType, Children: children}
	if id != "" {
		node.Attrs = map[string]any{doc.AttrBlockID: id}
	}
	return node
}

// SequentialIDs returns a deterministic block-id generator
// ("gen-1", "gen-2", ...) so tests can assert on minted ids.
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
