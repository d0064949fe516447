package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/studiowebux/loadbench/internal/threshold"
)

// DefaultGroup is the scenario group used for the before/after comparison runs
const DefaultGroup = "phase1_comparison"

// Endpoint overrides
const (
	GraphQLURLEnv = "GRAPHQL_URL"
	RESTURLEnv    = "REST_URL"
)

var (
	// ErrUnknownScenario is returned when a scenario is not in the catalog
	ErrUnknownScenario = errors.New("unknown scenario")
	// ErrUnknownProfile is returned when a threshold profile is not in the catalog
	ErrUnknownProfile = errors.New("unknown threshold profile")
	// ErrUnknownStages is returned when a stage table is not in the catalog
	ErrUnknownStages = errors.New("unknown stage table")
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog holds the benchmark configuration tables
type Catalog struct {
	Endpoints  Endpoints                            `yaml:"endpoints"`
	Scenarios  map[string]map[string]ScenarioConfig `yaml:"scenarios"`
	Stages     map[string][]Stage                   `yaml:"stages"`
	Thresholds map[string]map[string][]string       `yaml:"thresholds"`
	Sleep      map[string]float64                   `yaml:"sleep"`
	TestData   TestData                             `yaml:"testData"`

	// Source is the file the catalog was read from, "" for the embedded one
	Source string `yaml:"-"`
}

// Endpoints are the base URLs of the two deployments under test
type Endpoints struct {
	GraphQL string `yaml:"graphql"`
	REST    string `yaml:"rest"`
}

// ScenarioConfig is the executor block of one scenario
type ScenarioConfig struct {
	Executor    string `yaml:"executor"`
	VUs         int    `yaml:"vus"`
	Iterations  int    `yaml:"iterations"`
	MaxDuration string `yaml:"maxDuration"`
}

// Stage is one step of a ramping-vus stage table
type Stage struct {
	Duration string `yaml:"duration" json:"duration"`
	Target   int    `yaml:"target" json:"target"`
}

// TestData holds sample values used to build request payloads
type TestData struct {
	Categories []string `yaml:"categories"`
	Places     []string `yaml:"places"`
}

// Options is the options block handed to the load-testing runtime
type Options struct {
	Thresholds map[string][]string        `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Scenarios  map[string]ScenarioOptions `json:"scenarios" yaml:"scenarios"`
}

// ScenarioOptions is one entry of Options.Scenarios
type ScenarioOptions struct {
	Executor    string  `json:"executor" yaml:"executor"`
	VUs         int     `json:"vus,omitempty" yaml:"vus,omitempty"`
	Iterations  int     `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	MaxDuration string  `json:"maxDuration,omitempty" yaml:"maxDuration,omitempty"`
	Stages      []Stage `json:"stages,omitempty" yaml:"stages,omitempty"`
}

// LoadCatalog reads the catalog at path, falling back to the embedded default
// when path is empty or does not exist. Endpoint env overrides are applied and
// the result is validated.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	source := ""

	if path != "" {
		content, err := os.ReadFile(path)
		if err == nil {
			data = content
			source = path
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
	}

	c, err := ParseCatalog(data)
	if err != nil {
		return nil, err
	}
	c.Source = source

	c.ApplyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// ParseCatalog decodes catalog YAML
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &c, nil
}

// ApplyEnv replaces the endpoints with GRAPHQL_URL and REST_URL when set
func (c *Catalog) ApplyEnv() {
	if v := os.Getenv(GraphQLURLEnv); v != "" {
		c.Endpoints.GraphQL = v
	}
	if v := os.Getenv(RESTURLEnv); v != "" {
		c.Endpoints.REST = v
	}
}

// Validate checks endpoints, durations and every threshold expression
func (c *Catalog) Validate() error {
	if c.Endpoints.GraphQL == "" || c.Endpoints.REST == "" {
		return fmt.Errorf("invalid catalog: both graphql and rest endpoints are required")
	}

	for group, scenarios := range c.Scenarios {
		for name, sc := range scenarios {
			if sc.Executor == "" {
				return fmt.Errorf("invalid catalog: scenario %s.%s has no executor", group, name)
			}
			if sc.VUs <= 0 {
				return fmt.Errorf("invalid catalog: scenario %s.%s needs at least one VU", group, name)
			}
			if sc.MaxDuration != "" {
				if _, err := time.ParseDuration(sc.MaxDuration); err != nil {
					return fmt.Errorf("invalid catalog: scenario %s.%s: %w", group, name, err)
				}
			}
		}
	}

	for name, stages := range c.Stages {
		for i, st := range stages {
			if _, err := time.ParseDuration(st.Duration); err != nil {
				return fmt.Errorf("invalid catalog: stage table %s[%d]: %w", name, i, err)
			}
			if st.Target < 0 {
				return fmt.Errorf("invalid catalog: stage table %s[%d]: negative target", name, i)
			}
		}
	}

	for profile, metrics := range c.Thresholds {
		for metric, exprs := range metrics {
			if err := threshold.ValidateAll(exprs); err != nil {
				return fmt.Errorf("invalid catalog: profile %s, metric %s: %w", profile, metric, err)
			}
		}
	}

	return nil
}

// Scenario returns the executor block of a scenario in the default group
func (c *Catalog) Scenario(name string) (ScenarioConfig, error) {
	sc, ok := c.Scenarios[DefaultGroup][name]
	if !ok {
		return ScenarioConfig{}, fmt.Errorf("%w: %s (known: %s)", ErrUnknownScenario, name, strings.Join(c.ScenarioNames(), ", "))
	}
	return sc, nil
}

// ScenarioNames returns the scenarios of the default group, sorted
func (c *Catalog) ScenarioNames() []string {
	names := make([]string, 0, len(c.Scenarios[DefaultGroup]))
	for name := range c.Scenarios[DefaultGroup] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns the threshold set of a profile, keyed by metric name
func (c *Catalog) Profile(name string) (map[string][]string, error) {
	p, ok := c.Thresholds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}
	return p, nil
}

// Options builds the runtime options for a scenario. With an empty stage
// table name the scenario's own executor block is used; otherwise a
// ramping-vus executor runs the named stage table. An empty profile defaults
// to the stage table name, or to the default group.
func (c *Catalog) Options(scenario, profile, stages string) (*Options, error) {
	sc, err := c.Scenario(scenario)
	if err != nil {
		return nil, err
	}

	if profile == "" {
		profile = DefaultGroup
		if stages != "" {
			profile = stages
		}
	}
	thresholds, err := c.Profile(profile)
	if err != nil {
		return nil, err
	}

	var entry ScenarioOptions
	if stages == "" {
		entry = ScenarioOptions{
			Executor:    sc.Executor,
			VUs:         sc.VUs,
			Iterations:  sc.Iterations,
			MaxDuration: sc.MaxDuration,
		}
	} else {
		table, ok := c.Stages[stages]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStages, stages)
		}
		entry = ScenarioOptions{
			Executor: "ramping-vus",
			Stages:   table,
		}
	}

	return &Options{
		Thresholds: thresholds,
		Scenarios: map[string]ScenarioOptions{
			strings.ReplaceAll(scenario, "_", "-"): entry,
		},
	}, nil
}

// YAML encodes the catalog back to YAML
func (c *Catalog) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return data, nil
}
