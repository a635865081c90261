package harness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario describes one deployment and the steps run against it.
type Scenario struct {
	Name              string `yaml:"name"`
	MaxSupply         uint64 `yaml:"max_supply"`
	InitialPercentBps uint64 `yaml:"initial_percent_bps"`
	Deployer          string `yaml:"deployer"`
	FoundationAccount string `yaml:"foundation_account"`
	Authority         string `yaml:"authority"`
	Steps             []Step `yaml:"steps"`
}

// Step is a single scenario action.
//
// Ops:
//
//	advance  - move the clock forward by `by` (a Go duration string)
//	issue    - attempt the next issuance as `as`
//	transfer - move `amount` from `from` to `to`
//	burn     - destroy `amount` from `account`
//	state    - snapshot the schedule state into the trace
type Step struct {
	Op      string `yaml:"op"`
	By      string `yaml:"by,omitempty"`
	As      string `yaml:"as,omitempty"`
	From    string `yaml:"from,omitempty"`
	To      string `yaml:"to,omitempty"`
	Account string `yaml:"account,omitempty"`
	Amount  uint64 `yaml:"amount,omitempty"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.MaxSupply == 0 {
		return fmt.Errorf("max_supply is required")
	}
	for i, step := range s.Steps {
		switch step.Op {
		case "advance":
			if _, err := time.ParseDuration(step.By); err != nil {
				return fmt.Errorf("step %d: bad duration %q: %w", i, step.By, err)
			}
		case "issue":
			if step.As == "" {
				return fmt.Errorf("step %d: issue requires `as`", i)
			}
		case "transfer":
			if step.From == "" || step.To == "" {
				return fmt.Errorf("step %d: transfer requires `from` and `to`", i)
			}
		case "burn":
			if step.Account == "" {
				return fmt.Errorf("step %d: burn requires `account`", i)
			}
		case "state":
		default:
			return fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}
	}
	return nil
}
