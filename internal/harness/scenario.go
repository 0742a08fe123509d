package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pdavault/internal/vault"
)

// Scenario is a scripted vault session: airdrops, a flow of instructions
// with expected outcomes, and assertions over the trace and final ledger.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy overrides the default reserve policy.
	Policy *vault.Policy `yaml:"policy,omitempty"`

	// Setup funds accounts before the flow. Setup steps must succeed.
	Setup []SetupStep `yaml:"setup,omitempty"`

	// Flow is the list of instructions to submit, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and ledger.
	Assertions []Assertion `yaml:"assertions"`
}

// SetupStep airdrops lamports to a labelled account.
type SetupStep struct {
	// Airdrop is the account label to fund (e.g. "alice").
	Airdrop string `yaml:"airdrop"`

	Lamports uint64 `yaml:"lamports"`
}

// FlowStep submits one vault instruction signed by Owner.
type FlowStep struct {
	// Invoke is the instruction name: initialize, deposit, withdraw or close.
	Invoke string `yaml:"invoke"`

	// Owner is the label of the signing owner.
	Owner string `yaml:"owner"`

	// Amount is the argument of deposit and withdraw.
	Amount uint64 `yaml:"amount,omitempty"`

	// Expect specifies the expected outcome. Nil means the step must
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Outcome is "ok" or the expected error code (e.g. "INSUFFICIENT_FUNDS").
	Outcome string `yaml:"outcome"`
}

// Assertion validates the trace or the final ledger.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Instruction names an instruction (trace_contains, trace_count).
	Instruction string `yaml:"instruction,omitempty"`

	// Owner restricts trace matches to one owner, or names the owner for
	// final_state.
	Owner string `yaml:"owner,omitempty"`

	// Outcome restricts trace matches to one outcome.
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Instructions is the expected order (trace_order).
	Instructions []string `yaml:"instructions,omitempty"`

	// Account is a label: "alice", "alice.vault" or "alice.state"
	// (final_balance).
	Account string `yaml:"account,omitempty"`

	// Lamports is the expected balance (final_balance).
	Lamports *uint64 `yaml:"lamports,omitempty"`

	// Initialized is whether the owner's record should exist (final_state).
	Initialized *bool `yaml:"initialized,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalBalance  = "final_balance"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
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

func isInstruction(name string) bool {
	for _, op := range vault.Ops {
		if string(op) == name {
			return true
		}
	}
	return false
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Airdrop == "" {
			return fmt.Errorf("setup[%d]: airdrop is required", i)
		}
		if step.Lamports == 0 {
			return fmt.Errorf("setup[%d]: lamports must be positive", i)
		}
	}

	for i, step := range s.Flow {
		if !isInstruction(step.Invoke) {
			return fmt.Errorf("flow[%d]: unknown instruction %q", i, step.Invoke)
		}
		if step.Owner == "" {
			return fmt.Errorf("flow[%d]: owner is required", i)
		}
		if step.Expect != nil && step.Expect.Outcome == "" {
			return fmt.Errorf("flow[%d].expect: outcome is required", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Instruction == "" {
			return fmt.Errorf("assertions[%d]: instruction is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Instructions) == 0 {
			return fmt.Errorf("assertions[%d]: instructions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Instruction == "" {
			return fmt.Errorf("assertions[%d]: instruction is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalBalance:
		if a.Account == "" {
			return fmt.Errorf("assertions[%d]: account is required for final_balance", index)
		}
		if a.Lamports == nil {
			return fmt.Errorf("assertions[%d]: lamports is required for final_balance", index)
		}
	case AssertFinalState:
		if a.Owner == "" {
			return fmt.Errorf("assertions[%d]: owner is required for final_state", index)
		}
		if a.Initialized == nil {
			return fmt.Errorf("assertions[%d]: initialized is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
