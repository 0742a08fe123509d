package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/keys"
	"github.com/roach88/pdavault/internal/vault"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// response decodes a JSON CLIResponse, leaving Data raw.
type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decode(t *testing.T, out string, data any) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

// writeKey saves a deterministic key for label and returns its path.
func writeKey(t *testing.T, dir, label string) (string, address.Address) {
	t.Helper()
	key := keys.Deterministic(label)
	path := filepath.Join(dir, label+".json")
	require.NoError(t, keys.Save(path, key))
	return path, keys.AddressOf(key)
}

func TestVaultLifecycleCommands(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "vault.db")
	keyPath, owner := writeKey(t, dir, "alice")
	run := func(args ...string) (string, error) {
		return execute(t, append([]string{"--db", db, "--format", "json"}, args...)...)
	}

	out, err := run("airdrop", "10000000", "--key", keyPath)
	require.NoError(t, err)
	var airdrop AirdropResult
	decode(t, out, &airdrop)
	assert.Equal(t, owner, airdrop.To)
	assert.Equal(t, uint64(10_000_000), airdrop.Balance)
	assert.Equal(t, int64(1), airdrop.Seq)

	out, err = run("init", "--key", keyPath)
	require.NoError(t, err)
	var initialized SubmitResult
	decode(t, out, &initialized)
	assert.Equal(t, "initialize", initialized.Instruction)
	assert.Equal(t, uint64(5000), initialized.Receipt.Fee)
	assert.True(t, initialized.State.Initialized)
	assert.Equal(t, uint64(890_880), initialized.State.VaultBalance)
	assert.Equal(t, uint64(904_800), initialized.State.RecordBalance)
	assert.Equal(t, uint64(8_199_320), initialized.State.OwnerBalance)

	out, err = run("deposit", "1000", "--key", keyPath)
	require.NoError(t, err)
	var deposited SubmitResult
	decode(t, out, &deposited)
	assert.Equal(t, uint64(891_880), deposited.State.VaultBalance)

	out, err = run("withdraw", "1001", "--key", keyPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_FUNDS", resp.Error.Code)

	out, err = run("show", "--owner", owner.String())
	require.NoError(t, err)
	var st vault.State
	decode(t, out, &st)
	assert.True(t, st.Initialized)
	assert.Equal(t, uint64(891_880), st.VaultBalance)
	assert.Equal(t, owner, st.Owner)

	out, err = run("history", "--key", keyPath)
	require.NoError(t, err)
	var history []HistoryEntry
	decode(t, out, &history)
	require.Len(t, history, 4)
	assert.Equal(t, []string{"withdraw(1001)"}, history[0].Instructions)
	assert.Equal(t, "INSUFFICIENT_FUNDS", history[0].ErrorCode)
	assert.Equal(t, []string{"deposit(1000)"}, history[1].Instructions)
	assert.Equal(t, []string{"initialize"}, history[2].Instructions)
	assert.Empty(t, history[3].Instructions)

	out, err = execute(t, "--db", db, "metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `pdavault_instructions_total{instruction="withdraw",outcome="INSUFFICIENT_FUNDS"} 1`)
	assert.Contains(t, out, `pdavault_lamports_moved_total{direction="deposit"} 1000`)

	out, err = run("close", "--key", keyPath)
	require.NoError(t, err)
	var closed SubmitResult
	decode(t, out, &closed)
	assert.False(t, closed.State.Initialized)
	assert.Zero(t, closed.State.VaultBalance)
	assert.Equal(t, uint64(9_985_000), closed.State.OwnerBalance)

	promPath := filepath.Join(dir, "vault.prom")
	_, err = execute(t, "--db", db, "metrics", "--out", promPath)
	require.NoError(t, err)
	prom, err := os.ReadFile(promPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `pdavault_instructions_total{instruction="close",outcome="ok"} 1`)
}

func TestInstructionTextOutput(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "vault.db")
	keyPath, _ := writeKey(t, dir, "bob")

	_, err := execute(t, "--db", db, "airdrop", "5000000", "--key", keyPath)
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "deposit", "10", "--key", keyPath)
	require.Error(t, err)
	assert.Contains(t, out, "Error [NOT_INITIALIZED]")

	out, err = execute(t, "--db", db, "init", "--key", keyPath)
	require.NoError(t, err)
	assert.Contains(t, out, "initialize: ok (seq 3, fee 5000")
	assert.Contains(t, out, "Vault: ")

	out, err = execute(t, "--db", db, "init", "--key", keyPath)
	require.Error(t, err)
	assert.Contains(t, out, "Error [ALREADY_INITIALIZED]")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	keyPath, _ := writeKey(t, dir, "carol")
	cfgPath := filepath.Join(dir, "vault.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
database: `+filepath.Join(dir, "from-config.db")+`
fee_per_signature: 10000
reserve:
  prefund_vault: false
  enforce_floor: false
`), 0644))
	run := func(args ...string) (string, error) {
		return execute(t, append([]string{"--config", cfgPath, "--format", "json"}, args...)...)
	}

	_, err := run("airdrop", "3000000", "--key", keyPath)
	require.NoError(t, err)

	out, err := run("init", "--key", keyPath)
	require.NoError(t, err)
	var initialized SubmitResult
	decode(t, out, &initialized)
	assert.Equal(t, uint64(10000), initialized.Receipt.Fee)
	assert.Zero(t, initialized.State.VaultBalance)

	_, err = run("deposit", "700", "--key", keyPath)
	require.NoError(t, err)
	out, err = run("withdraw", "700", "--key", keyPath)
	require.NoError(t, err)
	var withdrawn SubmitResult
	decode(t, out, &withdrawn)
	assert.Zero(t, withdrawn.State.VaultBalance)

	assert.FileExists(t, filepath.Join(dir, "from-config.db"))
}

func TestKeygen(t *testing.T) {
	dir := t.TempDir()
	const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	path := filepath.Join(dir, "recovered.json")
	out, err := execute(t, "--format", "json", "keygen", "--out", path, "--mnemonic", mnemonic)
	require.NoError(t, err)
	var recovered KeygenResult
	decode(t, out, &recovered)
	assert.Empty(t, recovered.Mnemonic)

	want, err := keys.FromMnemonic(mnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, keys.AddressOf(want), recovered.Address)

	loaded, err := keys.Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	fresh := filepath.Join(dir, "fresh.json")
	out, err = execute(t, "--format", "json", "keygen", "--out", fresh)
	require.NoError(t, err)
	var generated KeygenResult
	decode(t, out, &generated)
	assert.Len(t, strings.Fields(generated.Mnemonic), 24)

	_, err = execute(t, "keygen", "--out", fresh)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "keygen", "--out", filepath.Join(dir, "bad.json"), "--mnemonic", "not a mnemonic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mnemonic")
}

func TestAddressCommand(t *testing.T) {
	owner := address.MustParse("CVDFLCAjXhVWiPXH9nTCTpCgVzmDVoiPzNJYuccr1dqB")
	want, err := vault.Derive(vault.DefaultProgramID, owner)
	require.NoError(t, err)

	out, err := execute(t, "address", "--owner", owner.String())
	require.NoError(t, err)
	assert.Contains(t, out, "State: "+want.State.String())
	assert.Contains(t, out, "Vault: "+want.Vault.String())

	_, err = execute(t, "address", "--owner", "not-base58!")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--key is required")
}

func TestBalanceCommand(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "vault.db")

	out, err := execute(t, "--db", db, "--format", "json", "balance", "8nUMDmj2JqRNsEBCdsp3B1Kw2gkB7wuduCevtDp8vFJ5")
	require.NoError(t, err)
	var bal BalanceResult
	decode(t, out, &bal)
	assert.Zero(t, bal.Lamports)

	_, err = execute(t, "--db", db, "airdrop", "0x10", "--owner", "8nUMDmj2JqRNsEBCdsp3B1Kw2gkB7wuduCevtDp8vFJ5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid amount "0x10"`)
}

func TestHistoryEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vault.db")
	out, err := execute(t, "--db", db, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No journal entries.")

	_, err = execute(t, "--db", db, "history", "--limit", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
