package harness

import (
	"fmt"
	"os"
	"strings"

	"github.com/wasimrehman05/superdoc-sub008/internal/compiler"
	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/engine"
	"github.com/wasimrehman05/superdoc-sub008/internal/index"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
	"github.com/wasimrehman05/superdoc-sub008/internal/planfile"
)

// Result is the outcome of running one scenario.
type Result struct {
	// Receipt is the execution receipt, nil when the plan aborted.
	Receipt *plan.Receipt

	// ExecErr is the abort error, nil on success.
	ExecErr error

	// Doc is the document after execution.
	Doc *doc.Doc
}

// Run executes a scenario: load the document fixture, load and
// compile the plan, execute it, and evaluate the scenario's
// expectations and assertions.
//
// Block identifiers minted during the run are sequential
// ("scenario-1", "scenario-2", ...) so receipts are deterministic and
// golden-comparable.
func Run(scenario *Scenario) (*Result, error) {
	data, err := os.ReadFile(scenario.Document)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: read document: %w", scenario.Name, err)
	}
	d, err := doc.UnmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	pf, err := planfile.LoadFile(scenario.Plan)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: load plan: %w", scenario.Name, err)
	}

	origMint := engine.MintBlockID
	next := 0
	engine.MintBlockID = func() string {
		next++
		return fmt.Sprintf("scenario-%d", next)
	}
	defer func() { engine.MintBlockID = origMint }()

	result := &Result{Doc: d}

	compiled, err := compiler.CompilePlan(pf.Steps, d)
	if err != nil {
		result.ExecErr = err
	} else {
		result.Receipt, result.ExecErr = engine.ExecuteCompiledPlan(d, compiled, &engine.Options{DryRun: scenario.DryRun})
	}

	if err := checkExpectations(scenario, result); err != nil {
		return result, err
	}
	if err := checkAssertions(scenario, d); err != nil {
		return result, err
	}
	return result, nil
}

func checkExpectations(scenario *Scenario, result *Result) error {
	expect := scenario.Expect

	if expect.ErrorCode != "" {
		if result.ExecErr == nil {
			return fmt.Errorf("scenario %s: expected error %s, plan succeeded", scenario.Name, expect.ErrorCode)
		}
		if !plan.IsCode(result.ExecErr, plan.ErrorCode(expect.ErrorCode)) {
			return fmt.Errorf("scenario %s: expected error %s, got: %v", scenario.Name, expect.ErrorCode, result.ExecErr)
		}
		return nil
	}

	if result.ExecErr != nil {
		return fmt.Errorf("scenario %s: unexpected error: %w", scenario.Name, result.ExecErr)
	}
	if result.Receipt.Success != expect.Success {
		return fmt.Errorf("scenario %s: success = %v, expected %v", scenario.Name, result.Receipt.Success, expect.Success)
	}

	if len(expect.Effects) > 0 {
		var got []string
		for _, step := range result.Receipt.Steps {
			got = append(got, string(step.Effect))
		}
		if strings.Join(got, ",") != strings.Join(expect.Effects, ",") {
			return fmt.Errorf("scenario %s: effects = %v, expected %v", scenario.Name, got, expect.Effects)
		}
	}
	return nil
}

func checkAssertions(scenario *Scenario, d *doc.Doc) error {
	for i, a := range scenario.Assertions {
		if err := checkAssertion(a, d); err != nil {
			return fmt.Errorf("scenario %s: assertion %d (%s): %w", scenario.Name, i, a.Type, err)
		}
	}
	return nil
}

func checkAssertion(a Assertion, d *doc.Doc) error {
	switch a.Type {
	case AssertBlockText:
		block, _, ok := doc.FindBlock(d.Root(), a.BlockID)
		if !ok {
			return fmt.Errorf("block %q not found", a.BlockID)
		}
		if got := block.Text(); got != a.Text {
			return fmt.Errorf("block %q text = %q, expected %q", a.BlockID, got, a.Text)
		}
	case AssertTextCount:
		idx := index.Build(d.Root())
		matches, err := compiler.ResolveSelector(idx, &plan.Selector{Text: a.Text}, d.Root(), "harness")
		if err != nil {
			return err
		}
		if len(matches) != a.Count {
			return fmt.Errorf("%q occurs %d times, expected %d", a.Text, len(matches), a.Count)
		}
	case AssertBlockCount:
		count := 0
		doc.Walk(d.Root(), func(n *doc.Node, _ int) bool {
			if n.Type == a.NodeType {
				count++
			}
			return true
		})
		if count != a.Count {
			return fmt.Errorf("%d %q blocks, expected %d", count, a.NodeType, a.Count)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
