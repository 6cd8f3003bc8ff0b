package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/variantlab/varq/internal/queryir"
	"github.com/variantlab/varq/internal/querysql"
)

// Scenario defines a query-compilation conformance scenario: a set of
// query documents compiled against a fixed sample map and compared
// verbatim against golden SQL.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Samples maps sample names to ids, standing in for the store's
	// samples table so compilation stays deterministic and storeless.
	Samples map[string]int64 `yaml:"samples,omitempty"`

	// Cases are the query documents to compile, in order.
	Cases []Case `yaml:"cases"`
}

// Case is one named query document inside a scenario.
type Case struct {
	Name  string   `yaml:"name"`
	Query QueryDoc `yaml:"query"`
}

// QueryDoc wraps a query document and records whether it was present
// in the YAML at all, so a missing query fails validation instead of
// silently compiling the defaults.
type QueryDoc struct {
	Query queryir.Query
	set   bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *QueryDoc) UnmarshalYAML(node *yaml.Node) error {
	if err := node.Decode(&d.Query); err != nil {
		return err
	}
	d.set = true
	return nil
}

// CompiledCase is the SQL text a case compiled to.
type CompiledCase struct {
	Name string
	SQL  string
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "case:" vs "cases:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := map[string]bool{}
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true
		if !c.Query.set {
			return fmt.Errorf("cases[%d]: query is required", i)
		}
	}

	return nil
}

// Compile compiles every case against the scenario's sample map, in
// case order.
func (s *Scenario) Compile() ([]CompiledCase, error) {
	comp := &querysql.Compiler{SampleIDs: s.Samples}

	compiled := make([]CompiledCase, 0, len(s.Cases))
	for _, c := range s.Cases {
		text, err := comp.CompileQuery(c.Query.Query)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
		compiled = append(compiled, CompiledCase{Name: c.Name, SQL: text})
	}
	return compiled, nil
}
