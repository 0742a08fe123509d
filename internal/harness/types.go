package harness

import "github.com/roach88/pdavault/internal/metrics"

// Trace event types.
const (
	EventAirdrop     = "airdrop"
	EventInstruction = "instruction"
)

// TraceEvent is one journaled step of a scenario run.
type TraceEvent struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`

	// Airdrop fields.
	Account  string `json:"account,omitempty"`
	Lamports uint64 `json:"lamports,omitempty"`

	// Instruction fields.
	Instruction string `json:"instruction,omitempty"`
	Owner       string `json:"owner,omitempty"`
	Amount      uint64 `json:"amount,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	Fee         uint64 `json:"fee"`

	// Balances after the step, keyed "owner", "vault" and "state".
	Balances map[string]uint64 `json:"balances,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every setup and flow step in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Metrics counted the run's instructions.
	Metrics *metrics.Recorder `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
