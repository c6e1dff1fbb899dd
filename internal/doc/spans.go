package doc

import "unicode/utf8"

// sliceSpans copies the portion of a span list covering the rune range
// [from, to), split exactly at the range boundaries.
func sliceSpans(spans []Span, from, to int) []Span {
	var out []Span
	offset := 0
	for _, sp := range spans {
		n := utf8.RuneCountInString(sp.Text)
		start, end := offset, offset+n
		offset = end
		if end <= from || start >= to {
			continue
		}
		lo, hi := 0, n
		if from > start {
			lo = from - start
		}
		if to < end {
			hi = to - start
		}
		runes := []rune(sp.Text)
		out = append(out, Span{Text: string(runes[lo:hi]), Marks: sp.Marks})
	}
	return out
}

// spliceSpans replaces the rune range [from, to) of a span list with
// the given spans, coalescing adjacent spans with equal mark sets and
// dropping empty spans.
func spliceSpans(spans []Span, from, to int, insert []Span) []Span {
	var out []Span
	out = append(out, sliceSpans(spans, 0, from)...)
	out = append(out, insert...)
	total := 0
	for _, sp := range spans {
		total += utf8.RuneCountInString(sp.Text)
	}
	out = append(out, sliceSpans(spans, to, total)...)
	return coalesceSpans(out)
}

// coalesceSpans merges adjacent spans with equal mark sets and removes
// zero-length spans.
func coalesceSpans(spans []Span) []Span {
	out := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		if len(out) > 0 && MarksEqual(out[len(out)-1].Marks, sp.Marks) {
			out[len(out)-1].Text += sp.Text
			continue
		}
		out = append(out, sp)
	}
	return out
}
