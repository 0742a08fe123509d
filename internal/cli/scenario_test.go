package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: quick_deposit
description: "Initialize and deposit"
setup:
  - airdrop: alice
    lamports: 5000000
flow:
  - invoke: initialize
    owner: alice
  - invoke: deposit
    owner: alice
    amount: 250
assertions:
  - type: final_balance
    account: alice.vault
    lamports: 891130
`

const failingScenario = `
name: wrong_expectation
description: "Expects the wrong outcome"
flow:
  - invoke: close
    owner: nobody
    expect:
      outcome: ok
assertions:
  - type: trace_count
    instruction: close
    count: 1
`

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
}

func TestScenarioCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "scenario")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestScenarioCommandNonExistentDir(t *testing.T) {
	_, err := execute(t, "scenario", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestScenarioCommandEmptyDir(t *testing.T) {
	out, err := execute(t, "scenario", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestScenarioCommandUpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "quick_deposit", passingScenario)

	out, err := execute(t, "scenario", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ quick_deposit (golden updated)")
	golden := filepath.Join(dir, "golden", "quick_deposit.golden")
	require.FileExists(t, golden)

	out, err = execute(t, "scenario", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ quick_deposit")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	require.NoError(t, os.WriteFile(golden, []byte(`{"scenario_name":"quick_deposit","trace":[]}`), 0644))
	out, err = execute(t, "scenario", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "trace does not match golden file")
}

func TestScenarioCommandJSONAndMetrics(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "quick_deposit", passingScenario)
	writeScenario(t, dir, "wrong_expectation", failingScenario)
	prom := filepath.Join(t.TempDir(), "scenarios.prom")

	out, err := execute(t, "--format", "json", "scenario", dir, "--metrics-out", prom)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "SCENARIO_FAILED", resp.Error.Code)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.False(t, resp.Data.Scenarios[1].Pass)
	assert.Contains(t, resp.Data.Scenarios[1].Errors[0], "got INSUFFICIENT_FUNDS_FOR_FEE")

	b, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(b), `pdavault_lamports_moved_total{direction="deposit"} 250`)
	assert.Contains(t, string(b), `pdavault_instructions_total{instruction="close",outcome="INSUFFICIENT_FUNDS_FOR_FEE"} 1`)
}

func TestScenarioCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "quick_deposit", passingScenario)
	writeScenario(t, dir, "wrong_expectation", failingScenario)

	out, err := execute(t, "scenario", dir, "--filter", "quick_*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	_, err = execute(t, "scenario", dir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestScenarioCommandRepoScenarios(t *testing.T) {
	out, err := execute(t, "scenario", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ vault_lifecycle")
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
}
