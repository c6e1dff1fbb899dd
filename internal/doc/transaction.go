package doc

import (
	"fmt"
	"unicode/utf8"
)

// SpanSegment addresses one block's contribution to a multi-block
// range: the rune offsets [From, To) within the block's text.
type SpanSegment struct {
	BlockID string
	From    int
	To      int
}

// Transaction is a draft of document mutations. Ops apply to a cloned
// working tree; nothing touches the committed tree until Doc.Commit.
// A transaction is exclusively owned by one caller and is not safe for
// concurrent use.
type Transaction struct {
	doc       *Doc
	base      *Node
	root      *Node
	mapping   Mapping
	changed   bool
	committed bool
	meta      map[string]any
}

// Root returns the working tree, reflecting ops applied so far.
func (tx *Transaction) Root() *Node {
	return tx.root
}

// Mapping returns the position mapping accumulated by applied ops.
func (tx *Transaction) Mapping() *Mapping {
	return &tx.mapping
}

// DocChanged reports whether the draft differs from the original tree.
func (tx *Transaction) DocChanged() bool {
	return tx.changed
}

// SetMeta attaches arbitrary metadata to the transaction.
func (tx *Transaction) SetMeta(key string, value any) {
	tx.meta[key] = value
}

// Meta reads metadata previously attached with SetMeta.
func (tx *Transaction) Meta(key string) (any, bool) {
	v, ok := tx.meta[key]
	return v, ok
}

// ReplaceTextRange replaces the rune range [from, to) of a block's text
// with new text carrying one constant mark set.
func (tx *Transaction) ReplaceTextRange(blockID string, from, to int, text string, marks []Mark) error {
	block, pos, ok := FindBlock(tx.root, blockID)
	if !ok {
		return fmt.Errorf("doc: block %q not found", blockID)
	}
	if err := checkRange(block, from, to); err != nil {
		return err
	}
	var insert []Span
	if text != "" {
		insert = []Span{{Text: text, Marks: CloneMarks(marks)}}
	}
	block.Inline = spliceSpans(block.Inline, from, to, insert)
	tx.mapping.record(pos+1+from, to-from, utf8.RuneCountInString(text))
	tx.changed = true
	return nil
}

// AddMark applies a mark over the rune range [from, to) of a block.
// Returns false if every covered span already carried the mark.
func (tx *Transaction) AddMark(blockID string, from, to int, mark Mark) (bool, error) {
	block, _, ok := FindBlock(tx.root, blockID)
	if !ok {
		return false, fmt.Errorf("doc: block %q not found", blockID)
	}
	if err := checkRange(block, from, to); err != nil {
		return false, err
	}
	covered := sliceSpans(block.Inline, from, to)
	mutated := false
	for i := range covered {
		if !ContainsMark(covered[i].Marks, mark) {
			covered[i].Marks = append(CloneMarks(covered[i].Marks), Mark{Type: mark.Type, Attrs: cloneAttrs(mark.Attrs)})
			mutated = true
		}
	}
	if !mutated {
		return false, nil
	}
	block.Inline = spliceSpans(block.Inline, from, to, covered)
	tx.changed = true
	return true, nil
}

// RemoveMark removes every mark of the given type over the rune range
// [from, to). Returns false if no covered span carried such a mark.
func (tx *Transaction) RemoveMark(blockID string, from, to int, markType string) (bool, error) {
	block, _, ok := FindBlock(tx.root, blockID)
	if !ok {
		return false, fmt.Errorf("doc: block %q not found", blockID)
	}
	if err := checkRange(block, from, to); err != nil {
		return false, err
	}
	covered := sliceSpans(block.Inline, from, to)
	mutated := false
	for i := range covered {
		trimmed := WithoutMarkType(covered[i].Marks, markType)
		if len(trimmed) != len(covered[i].Marks) {
			covered[i].Marks = trimmed
			mutated = true
		}
	}
	if !mutated {
		return false, nil
	}
	block.Inline = spliceSpans(block.Inline, from, to, covered)
	tx.changed = true
	return true, nil
}

// InsertBlock inserts a node as a sibling of the anchor block, before
// or after it. Returns the inserted node's absolute position.
func (tx *Transaction) InsertBlock(anchorID string, before bool, node *Node) (int, error) {
	anchor, anchorPos, ok := FindBlock(tx.root, anchorID)
	if !ok {
		return 0, fmt.Errorf("doc: anchor block %q not found", anchorID)
	}
	parent, idx, ok := findParent(tx.root, anchor)
	if !ok {
		return 0, fmt.Errorf("doc: anchor block %q has no parent", anchorID)
	}
	insertAt := idx
	insertPos := anchorPos
	if !before {
		insertAt = idx + 1
		insertPos = anchorPos + anchor.Size()
	}
	children := make([]*Node, 0, len(parent.Children)+1)
	children = append(children, parent.Children[:insertAt]...)
	children = append(children, node)
	children = append(children, parent.Children[insertAt:]...)
	parent.Children = children
	tx.mapping.record(insertPos, 0, node.Size())
	tx.changed = true
	return insertPos, nil
}

// ReplaceSpan replaces a contiguous multi-block range with replacement
// paragraph blocks. The unmatched prefix of the first block and suffix
// of the last block survive in their original blocks; fully consumed
// blocks are removed. All segment blocks must share one parent.
func (tx *Transaction) ReplaceSpan(segments []SpanSegment, paragraphs []*Node) error {
	if len(segments) < 2 {
		return fmt.Errorf("doc: span replace requires at least two segments, got %d", len(segments))
	}
	type resolved struct {
		node *Node
		pos  int
	}
	blocks := make([]resolved, len(segments))
	for i, seg := range segments {
		node, pos, ok := FindBlock(tx.root, seg.BlockID)
		if !ok {
			return fmt.Errorf("doc: block %q not found", seg.BlockID)
		}
		if err := checkRange(node, seg.From, seg.To); err != nil {
			return err
		}
		blocks[i] = resolved{node: node, pos: pos}
	}
	parent, firstIdx, ok := findParent(tx.root, blocks[0].node)
	if !ok {
		return fmt.Errorf("doc: block %q has no parent", segments[0].BlockID)
	}
	for i := 1; i < len(blocks); i++ {
		p, _, ok := findParent(tx.root, blocks[i].node)
		if !ok || p != parent {
			return fmt.Errorf("doc: span segments cross container boundaries")
		}
	}

	first, last := blocks[0], blocks[len(blocks)-1]
	absFrom := first.pos + 1 + segments[0].From
	absTo := last.pos + 1 + segments[len(segments)-1].To
	oldLen := absTo - absFrom
	sizeBefore := parent.Size()

	replaced := map[*Node]bool{}
	for _, b := range blocks {
		replaced[b.node] = true
	}

	children := make([]*Node, 0, len(parent.Children)+len(paragraphs))
	children = append(children, parent.Children[:firstIdx]...)
	if segments[0].From > 0 {
		first.node.Inline = spliceSpans(first.node.Inline, segments[0].From, first.node.TextLen(), nil)
		children = append(children, first.node)
	}
	children = append(children, paragraphs...)
	if lastTo := segments[len(segments)-1].To; lastTo < last.node.TextLen() {
		last.node.Inline = spliceSpans(last.node.Inline, 0, lastTo, nil)
		children = append(children, last.node)
	}
	for _, c := range parent.Children[firstIdx:] {
		if !replaced[c] {
			children = append(children, c)
		}
	}
	parent.Children = children

	newLen := oldLen + parent.Size() - sizeBefore
	if newLen < 0 {
		newLen = 0
	}
	tx.mapping.record(absFrom, oldLen, newLen)
	tx.changed = true
	return nil
}

func checkRange(block *Node, from, to int) error {
	if from < 0 || to < from || to > block.TextLen() {
		return fmt.Errorf("doc: range [%d, %d) out of bounds for block %q (len %d)",
			from, to, block.BlockID(), block.TextLen())
	}
	return nil
}
