package doc

import "reflect"

// Mark is a named, attribute-carrying annotation applied over a
// sub-range of a block's text (bold, italic, textStyle, ...).
// Marks have structural equality: same type, same attributes.
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Equal reports structural equality of two marks.
func (m Mark) Equal(other Mark) bool {
	if m.Type != other.Type {
		return false
	}
	if len(m.Attrs) == 0 && len(other.Attrs) == 0 {
		return true
	}
	return reflect.DeepEqual(m.Attrs, other.Attrs)
}

// MarksEqual reports whether two mark sets are equal: same marks, same
// order, same attributes.
func MarksEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// ContainsMark reports whether the set contains a mark structurally
// equal to m.
func ContainsMark(set []Mark, m Mark) bool {
	for _, x := range set {
		if x.Equal(m) {
			return true
		}
	}
	return false
}

// WithoutMarkType returns the set with every mark of the given type
// removed. The input is not modified.
func WithoutMarkType(set []Mark, markType string) []Mark {
	out := make([]Mark, 0, len(set))
	for _, m := range set {
		if m.Type != markType {
			out = append(out, m)
		}
	}
	return out
}

// CloneMarks returns a deep copy of a mark set.
func CloneMarks(set []Mark) []Mark {
	if set == nil {
		return nil
	}
	out := make([]Mark, len(set))
	for i, m := range set {
		out[i] = Mark{Type: m.Type, Attrs: cloneAttrs(m.Attrs)}
	}
	return out
}

func cloneAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
