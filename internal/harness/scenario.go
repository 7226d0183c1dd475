package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one conformance case: a manifest fed through the pipeline
// and the outcome it must produce.
type Scenario struct {
	// Name uniquely identifies the scenario. Golden scenarios use it as
	// the golden file basename.
	Name string `yaml:"name"`

	// Description explains what the scenario pins down.
	Description string `yaml:"description"`

	// Manifest is the inline CUE declaration manifest.
	Manifest string `yaml:"manifest"`

	// Error is the diagnostic code the pipeline must fail with, for
	// example "E203". Mutually exclusive with Expect.
	Error string `yaml:"error,omitempty"`

	// Expect describes the routine a successful run must produce.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Golden additionally compares the rendered Go source against
	// testdata/golden/{name}.golden.
	Golden bool `yaml:"golden,omitempty"`
}

// ExpectClause describes the expected routine shape.
type ExpectClause struct {
	// Async reports whether the routine must take a context.
	Async bool `yaml:"async,omitempty"`

	// Unconditional lists declaration names in expected statement order.
	Unconditional []string `yaml:"unconditional,omitempty"`

	// Environments lists the guarded blocks in expected order.
	Environments []EnvExpect `yaml:"environments,omitempty"`
}

// EnvExpect is one expected environment-guarded block.
type EnvExpect struct {
	Label      string   `yaml:"label"`
	Statements []string `yaml:"statements"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently weakening a case.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", filepath.Base(path), err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario under dir, sorted by
// filename.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(s.Manifest) == "" {
		return fmt.Errorf("manifest is required")
	}

	switch {
	case s.Error != "" && s.Expect != nil:
		return fmt.Errorf("error and expect are mutually exclusive")
	case s.Error == "" && s.Expect == nil:
		return fmt.Errorf("either error or expect is required")
	}
	if s.Golden && s.Error != "" {
		return fmt.Errorf("golden scenarios cannot expect an error")
	}

	if s.Expect != nil {
		seen := make(map[string]bool)
		for i, env := range s.Expect.Environments {
			if env.Label == "" {
				return fmt.Errorf("expect.environments[%d]: label is required", i)
			}
			if seen[env.Label] {
				return fmt.Errorf("expect.environments[%d]: duplicate label %q", i, env.Label)
			}
			seen[env.Label] = true
			if len(env.Statements) == 0 {
				return fmt.Errorf("expect.environments[%d]: statements list is required", i)
			}
		}
	}
	return nil
}
