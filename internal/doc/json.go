package doc

import (
	"encoding/json"
	"fmt"
	"sort"
)

// MarshalDocument serializes a document tree as indented JSON.
func MarshalDocument(d *Doc) ([]byte, error) {
	return json.MarshalIndent(d.Root(), "", "  ")
}

// UnmarshalDocument parses a JSON document tree and wraps it in a Doc.
// The root node must have type "doc".
func UnmarshalDocument(data []byte) (*Doc, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("doc: parse document: %w", err)
	}
	if root.Type != "doc" {
		return nil, fmt.Errorf("doc: root node must have type %q, got %q", "doc", root.Type)
	}
	return New(&root), nil
}

// DuplicateBlockIDs scans every text-bearing block and returns the
// stable ids shared by two or more distinct blocks, sorted. Container
// nodes are excluded: their identifiers may collide freely.
func DuplicateBlockIDs(root *Node) []string {
	seen := map[string]int{}
	Walk(root, func(n *Node, _ int) bool {
		if n.IsTextBlock() {
			if id := n.BlockID(); id != "" {
				seen[id]++
			}
		}
		return true
	})
	var dups []string
	for id, count := range seen {
		if count > 1 {
			dups = append(dups, id)
		}
	}
	sort.Strings(dups)
	return dups
}
