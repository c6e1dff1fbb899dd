package compiler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/index"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/style"
)

// Match is one selector resolution before target construction: either
// a sub-range of one block or an ordered multi-block span.
type Match struct {
	Candidates []index.Candidate // covered blocks, document order
	From       int               // rune offset in first block
	To         int               // rune offset in last block
}

// ResolveSelector resolves a step's where clause against a block
// index. Used eagerly at compile time and again by the assert executor
// against the post-mutation tree.
func ResolveSelector(idx *index.Index, sel *plan.Selector, root *doc.Node, stepID string) ([]Match, error) {
	if sel == nil {
		return nil, plan.NewError(plan.ErrCodeInvalidTarget, "step has no where clause").WithStep(stepID)
	}

	scope, err := resolveScope(idx, sel.Within, root, stepID)
	if err != nil {
		return nil, err
	}

	candidates := scopedCandidates(idx, scope)

	if sel.BlockID != "" {
		cand, ok := idx.FindByID(sel.BlockID)
		if !ok {
			return nil, plan.NewError(plan.ErrCodeTargetNotFound, "block %q not found", sel.BlockID).
				WithStep(stepID).WithDetail("block_id", sel.BlockID)
		}
		if scope != nil && !scope.contains(cand) {
			return nil, plan.NewError(plan.ErrCodeTargetNotFound, "block %q is outside the selector scope", sel.BlockID).
				WithStep(stepID).WithDetail("block_id", sel.BlockID)
		}
		candidates = []index.Candidate{cand}
	}

	if sel.NodeType != "" {
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if c.Node.Type == sel.NodeType {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	var matches []Match
	if sel.Text != "" {
		matches = findTextMatches(candidates, sel.Text)
	} else {
		for _, c := range candidates {
			matches = append(matches, Match{
				Candidates: []index.Candidate{c},
				From:       0,
				To:         c.Node.TextLen(),
			})
		}
	}

	if sel.Occurrence > 0 {
		if sel.Occurrence > len(matches) {
			return nil, nil
		}
		matches = matches[sel.Occurrence-1 : sel.Occurrence]
	}
	return matches, nil
}

// scopeRange is an absolute address range a candidate must nest inside
// to be in scope. Bounds are inclusive, so the scope root block itself
// is in scope; an ancestor that merely overlaps (starts before Start)
// is not.
type scopeRange struct {
	Start int
	End   int
}

func (s *scopeRange) contains(c index.Candidate) bool {
	return c.Pos >= s.Start && c.End <= s.End
}

func resolveScope(idx *index.Index, within *plan.Scope, root *doc.Node, stepID string) (*scopeRange, error) {
	if within == nil {
		return nil, nil
	}
	if within.BlockID != "" {
		// The scope block may be a container (table, list), which the
		// block index does not carry; resolve against the full tree.
		var found *scopeRange
		doc.Walk(root, func(n *doc.Node, pos int) bool {
			if n.BlockID() == within.BlockID {
				found = &scopeRange{Start: pos, End: pos + n.Size()}
				return false
			}
			return true
		})
		if found == nil {
			return nil, plan.NewError(plan.ErrCodeTargetNotFound, "scope block %q not found", within.BlockID).
				WithStep(stepID).WithDetail("block_id", within.BlockID)
		}
		return found, nil
	}
	if within.AnchorText != "" {
		anchors := findTextMatches(idx.Candidates(), within.AnchorText)
		if len(anchors) == 0 {
			return nil, plan.NewError(plan.ErrCodeTargetNotFound, "scope anchor %q not found", within.AnchorText).
				WithStep(stepID)
		}
		a := anchors[0]
		first, last := a.Candidates[0], a.Candidates[len(a.Candidates)-1]
		return &scopeRange{Start: first.Pos + 1 + a.From, End: last.Pos + 1 + a.To}, nil
	}
	return nil, plan.NewError(plan.ErrCodeInvalidTarget, "within scope needs a block id or anchor text").WithStep(stepID)
}

func scopedCandidates(idx *index.Index, scope *scopeRange) []index.Candidate {
	all := idx.Candidates()
	if scope == nil {
		out := make([]index.Candidate, len(all))
		copy(out, all)
		return out
	}
	var out []index.Candidate
	for _, c := range all {
		if scope.contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// findTextMatches locates every occurrence of needle across the
// candidates' texts. Candidate texts are joined with a single line
// feed, so a needle containing "\n" can match across adjacent blocks;
// such matches produce multi-candidate (span) results.
func findTextMatches(candidates []index.Candidate, needle string) []Match {
	if len(candidates) == 0 || needle == "" {
		return nil
	}

	// Joined rune stream plus, per rune, which candidate it belongs to
	// and its offset there. Separator runes belong to no candidate.
	type runeAddr struct {
		cand   int // -1 for separators
		offset int
	}
	var joined []rune
	var addrs []runeAddr
	for i, c := range candidates {
		if i > 0 {
			joined = append(joined, '\n')
			addrs = append(addrs, runeAddr{cand: -1})
		}
		for off, r := range []rune(c.Node.Text()) {
			joined = append(joined, r)
			addrs = append(addrs, runeAddr{cand: i, offset: off})
		}
	}

	needleRunes := []rune(needle)
	n := len(needleRunes)
	var matches []Match
	for start := 0; start+n <= len(joined); start++ {
		if !runesEqual(joined[start:start+n], needleRunes) {
			continue
		}
		end := start + n - 1
		if addrs[start].cand == -1 || addrs[end].cand == -1 {
			continue // a match may not begin or end on a block boundary
		}
		firstC, lastC := addrs[start].cand, addrs[end].cand
		if !contiguousBlocks(candidates, firstC, lastC) {
			continue
		}
		matches = append(matches, Match{
			Candidates: candidates[firstC : lastC+1],
			From:       addrs[start].offset,
			To:         addrs[end].offset + 1,
		})
		start = end // no overlapping matches
	}
	return matches
}

// contiguousBlocks verifies the covered candidates are adjacent in the
// document: each block's end abuts the next block's start.
func contiguousBlocks(candidates []index.Candidate, first, last int) bool {
	for i := first; i < last; i++ {
		if candidates[i].End != candidates[i+1].Pos {
			return false
		}
	}
	return true
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// buildTarget converts a resolved match into a compiled target with an
// eagerly captured style snapshot, so execution never re-scans text.
func buildTarget(m Match, step plan.Step, matchIndex int) (plan.CompiledTarget, error) {
	if len(m.Candidates) == 1 {
		c := m.Candidates[0]
		captured := style.Capture(c.Node, m.From, m.To)
		if err := style.AssertRunTiling(captured.Runs, m.From, m.To, c.ID); err != nil {
			return plan.CompiledTarget{}, err
		}
		rt := &plan.RangeTarget{
			StepID:        step.ID,
			Op:            step.Op,
			BlockID:       c.ID,
			From:          m.From,
			To:            m.To,
			AbsFrom:       c.Pos + 1 + m.From,
			AbsTo:         c.Pos + 1 + m.To,
			Text:          sliceRunes(c.Node.Text(), m.From, m.To),
			CapturedStyle: &captured,
		}
		if captured.IsUniform {
			rt.Marks = doc.CloneMarks(captured.Runs[0].Marks)
		}
		return plan.CompiledTarget{Kind: plan.TargetRange, Range: rt}, nil
	}

	st := &plan.SpanTarget{
		StepID:  step.ID,
		Op:      step.Op,
		MatchID: fmt.Sprintf("%s/span-%d", step.ID, matchIndex),
	}
	var texts []string
	for i, c := range m.Candidates {
		from, to := 0, c.Node.TextLen()
		if i == 0 {
			from = m.From
		}
		if i == len(m.Candidates)-1 {
			to = m.To
		}
		captured := style.Capture(c.Node, from, to)
		if err := style.AssertRunTiling(captured.Runs, from, to, c.ID); err != nil {
			return plan.CompiledTarget{}, err
		}
		st.Segments = append(st.Segments, plan.Segment{
			BlockID: c.ID,
			From:    from,
			To:      to,
			AbsFrom: c.Pos + 1 + from,
			AbsTo:   c.Pos + 1 + to,
		})
		st.CapturedStyleBySegment = append(st.CapturedStyleBySegment, captured)
		texts = append(texts, sliceRunes(c.Node.Text(), from, to))
	}
	st.Text = strings.Join(texts, "\n")
	return plan.CompiledTarget{Kind: plan.TargetSpan, Span: st}, nil
}

func sliceRunes(s string, from, to int) string {
	if from == 0 && to == utf8.RuneCountInString(s) {
		return s
	}
	runes := []rune(s)
	return string(runes[from:to])
}
