// Package harness runs scripted vault sessions against a fresh ledger and
// compares their traces with golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	policy:                      # optional, defaults to prefund + floor
//	  prefund_vault: false
//	  enforce_floor: false
//	setup:
//	  - airdrop: alice
//	    lamports: 10000000
//	flow:
//	  - invoke: initialize
//	    owner: alice
//	  - invoke: withdraw
//	    owner: alice
//	    amount: 1001
//	    expect:
//	      outcome: INSUFFICIENT_FUNDS
//	assertions:
//	  - type: trace_order
//	    instructions: [initialize, withdraw]
//	  - type: final_balance
//	    account: alice.vault
//	    lamports: 890880
//	  - type: final_state
//	    owner: alice
//	    initialized: true
//
// Labels name deterministic keys, so "alice" is the same address in every
// run. "alice.vault" and "alice.state" name her derived accounts.
//
// # Assertion Types
//
//   - trace_contains: an instruction (optionally by owner, with outcome) occurred
//   - trace_order: instructions occurred in this order, others may intervene
//   - trace_count: an instruction matched exactly count times
//   - final_balance: a labelled account holds exactly lamports
//   - final_state: an owner's vault record exists or not
//
// # Golden Files
//
// RunWithGolden writes the trace as canonical JSON and compares it with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
