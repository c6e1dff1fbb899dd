package doc

import (
	"strings"
	"unicode/utf8"
)

// Attribute key carrying a block's stable identifier. Stable ids are
// unique among text-bearing blocks at any instant; container nodes may
// share identifiers without consequence.
const AttrBlockID = "blockId"

// textBlockTypes enumerates the text-bearing node types. Everything
// else is a container.
var textBlockTypes = map[string]bool{
	"paragraph": true,
	"heading":   true,
	"listItem":  true,
}

// Span is one run of inline text with a constant mark set.
type Span struct {
	Text  string `json:"text"`
	Marks []Mark `json:"marks,omitempty"`
}

// Node is one node of the document tree. Text-bearing blocks carry
// Inline spans; containers carry Children. The two are exclusive.
type Node struct {
	Type     string         `json:"type"`
	Attrs    map[string]any `json:"attrs,omitempty"`
	Children []*Node        `json:"children,omitempty"`
	Inline   []Span         `json:"inline,omitempty"`
}

// IsTextBlock reports whether the node is a text-bearing block.
func (n *Node) IsTextBlock() bool {
	return textBlockTypes[n.Type]
}

// BlockID returns the node's stable identifier, or "" if absent.
func (n *Node) BlockID() string {
	if n.Attrs == nil {
		return ""
	}
	id, _ := n.Attrs[AttrBlockID].(string)
	return id
}

// SetBlockID sets the node's stable identifier attribute.
func (n *Node) SetBlockID(id string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]any, 1)
	}
	n.Attrs[AttrBlockID] = id
}

// Text returns the concatenated inline text of a text-bearing block.
// Containers return "".
func (n *Node) Text() string {
	if len(n.Inline) == 0 {
		return ""
	}
	var b strings.Builder
	for _, sp := range n.Inline {
		b.WriteString(sp.Text)
	}
	return b.String()
}

// TextLen returns the rune length of the block's text.
func (n *Node) TextLen() int {
	total := 0
	for _, sp := range n.Inline {
		total += utf8.RuneCountInString(sp.Text)
	}
	return total
}

// Size returns the number of positions the node occupies. Text-bearing
// blocks and containers both contribute two boundary tokens; the
// document root contributes none.
func (n *Node) Size() int {
	if n.Type == "doc" {
		total := 0
		for _, c := range n.Children {
			total += c.Size()
		}
		return total
	}
	if n.IsTextBlock() {
		return n.TextLen() + 2
	}
	total := 2
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// Clone returns a deep copy of the subtree.
func (n *Node) Clone() *Node {
	out := &Node{Type: n.Type, Attrs: cloneAttrs(n.Attrs)}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	if n.Inline != nil {
		out.Inline = make([]Span, len(n.Inline))
		for i, sp := range n.Inline {
			out.Inline[i] = Span{Text: sp.Text, Marks: CloneMarks(sp.Marks)}
		}
	}
	return out
}

// Walk visits every node in document order with its absolute position.
// Returning false from the visitor stops the walk.
func Walk(root *Node, visit func(n *Node, pos int) bool) {
	walk(root, 0, visit)
}

func walk(n *Node, pos int, visit func(n *Node, pos int) bool) bool {
	if !visit(n, pos) {
		return false
	}
	childPos := pos
	if n.Type != "doc" {
		childPos = pos + 1
	}
	for _, c := range n.Children {
		if !walk(c, childPos, visit) {
			return false
		}
		childPos += c.Size()
	}
	return true
}

// FindBlock locates a text-bearing block by stable id, returning the
// node and its absolute position.
func FindBlock(root *Node, id string) (node *Node, pos int, ok bool) {
	Walk(root, func(n *Node, p int) bool {
		if n.IsTextBlock() && n.BlockID() == id {
			node, pos, ok = n, p, true
			return false
		}
		return true
	})
	return node, pos, ok
}

// findParent locates the container holding the given child, returning
// the parent and the child's index. Identity comparison, not equality.
func findParent(root, child *Node) (parent *Node, index int, ok bool) {
	Walk(root, func(n *Node, _ int) bool {
		for i, c := range n.Children {
			if c == child {
				parent, index, ok = n, i, true
				return false
			}
		}
		return true
	})
	return parent, index, ok
}
