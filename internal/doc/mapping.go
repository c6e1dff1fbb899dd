package doc

// MapEntry records one replaced range: positions [Start, OldEnd) were
// replaced by [Start, NewEnd).
type MapEntry struct {
	Start  int
	OldEnd int
	NewEnd int
}

// Mapping translates pre-mutation absolute positions through the ops
// applied so far in a transaction. Entries are applied in op order, so
// a position compiled before any mutation maps to its current address.
//
// Positions inside a replaced range collapse to the end of the
// replacement; positions at or before Start are unchanged.
type Mapping struct {
	entries []MapEntry
}

// NewMapping builds a mapping from explicit entries, oldest first.
func NewMapping(entries []MapEntry) *Mapping {
	m := &Mapping{entries: make([]MapEntry, len(entries))}
	copy(m.entries, entries)
	return m
}

// Map translates one position through every recorded entry in order.
func (m *Mapping) Map(pos int) int {
	for _, e := range m.entries {
		switch {
		case pos <= e.Start:
			// Unchanged.
		case pos >= e.OldEnd:
			pos += e.NewEnd - e.OldEnd
		default:
			pos = e.NewEnd
		}
	}
	return pos
}

// Entries returns a copy of the recorded entries, oldest first.
func (m *Mapping) Entries() []MapEntry {
	out := make([]MapEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of recorded entries.
func (m *Mapping) Len() int {
	return len(m.entries)
}

func (m *Mapping) record(start, oldLen, newLen int) {
	m.entries = append(m.entries, MapEntry{
		Start:  start,
		OldEnd: start + oldLen,
		NewEnd: start + newLen,
	})
}
