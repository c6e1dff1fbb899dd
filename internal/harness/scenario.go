package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end conformance case: a document
// fixture, a plan, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario; it doubles as the golden
	// file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Document is the path to the document JSON fixture, relative to
	// the scenario file.
	Document string `yaml:"document"`

	// Plan is the path to the CUE plan file, relative to the scenario
	// file.
	Plan string `yaml:"plan"`

	// DryRun executes the plan without committing.
	DryRun bool `yaml:"dry_run,omitempty"`

	// Expect describes the expected execution outcome.
	Expect ExpectClause `yaml:"expect"`

	// Assertions validate the final tree.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected receipt shape.
type ExpectClause struct {
	// Success is the expected receipt success flag. Ignored when
	// ErrorCode is set.
	Success bool `yaml:"success"`

	// Effects lists the expected per-step effects in order. Empty
	// skips the check.
	Effects []string `yaml:"effects,omitempty"`

	// ErrorCode expects the plan to abort with this error code
	// instead of producing a receipt.
	ErrorCode string `yaml:"error_code,omitempty"`
}

// Assertion validates one aspect of the final tree.
type Assertion struct {
	// Type selects the assertion:
	// - "block_text": the block with BlockID carries exactly Text
	// - "text_count": Text occurs exactly Count times document-wide
	// - "block_count": exactly Count blocks of NodeType exist
	Type string `yaml:"type"`

	BlockID  string `yaml:"block_id,omitempty"`
	NodeType string `yaml:"node_type,omitempty"`
	Text     string `yaml:"text,omitempty"`
	Count    int    `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertBlockText  = "block_text"
	AssertTextCount  = "text_count"
	AssertBlockCount = "block_count"
)

// LoadScenario reads and parses a scenario YAML file. Fixture paths
// are resolved relative to the scenario file's directory. Unknown
// YAML fields are rejected, which catches typos like "assertion:".
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if scenario.Document != "" && !filepath.IsAbs(scenario.Document) {
		scenario.Document = filepath.Join(base, scenario.Document)
	}
	if scenario.Plan != "" && !filepath.IsAbs(scenario.Plan) {
		scenario.Plan = filepath.Join(base, scenario.Plan)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Document == "" {
		return fmt.Errorf("document is required")
	}
	if s.Plan == "" {
		return fmt.Errorf("plan is required")
	}
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertBlockText:
			if a.BlockID == "" {
				return fmt.Errorf("assertion %d: block_text needs block_id", i)
			}
		case AssertTextCount:
			if a.Text == "" {
				return fmt.Errorf("assertion %d: text_count needs text", i)
			}
		case AssertBlockCount:
			if a.NodeType == "" {
				return fmt.Errorf("assertion %d: block_count needs node_type", i)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
