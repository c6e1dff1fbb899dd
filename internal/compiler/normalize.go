package compiler

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// NormalizeReplacementText turns raw replacement content into the list
// of paragraph texts it produces. Line-ending variants collapse to a
// single line feed, a run of two or more line feeds is one paragraph
// boundary (a run of 3+ never produces empty paragraphs), and empty
// leading/trailing paragraphs from boundary markers are dropped. A
// single line feed is never a boundary.
//
// Input that normalizes to zero non-empty paragraphs raises
// INVALID_INPUT.
func NormalizeReplacementText(input string) ([]string, error) {
	text := norm.NFC.String(input)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []string
	var current strings.Builder
	newlines := 0
	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}
	for _, r := range text {
		if r == '\n' {
			newlines++
			continue
		}
		if newlines >= 2 {
			flush()
		} else if newlines == 1 && current.Len() > 0 {
			current.WriteRune('\n')
		}
		newlines = 0
		current.WriteRune(r)
	}
	flush()

	if len(paragraphs) == 0 {
		return nil, plan.NewError(plan.ErrCodeInvalidInput,
			"replacement text normalizes to zero paragraphs")
	}
	return paragraphs, nil
}
