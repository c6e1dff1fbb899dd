package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/wasimrehman05/superdoc-sub008/internal/doc"
	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

// Snapshot is the golden-comparable record of one scenario run: the
// receipt plus the final document tree.
type Snapshot struct {
	Scenario string        `json:"scenario"`
	Receipt  *plan.Receipt `json:"receipt"`
	Document *doc.Node     `json:"document"`
}

// RunWithGolden executes a scenario and compares the resulting
// snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := Snapshot{
		Scenario: scenario.Name,
		Receipt:  result.Receipt,
		Document: result.Doc.Root(),
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
