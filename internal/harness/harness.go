package harness

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/keys"
	"github.com/roach88/pdavault/internal/ledger"
	"github.com/roach88/pdavault/internal/metrics"
	"github.com/roach88/pdavault/internal/runtime"
	"github.com/roach88/pdavault/internal/testutil"
	"github.com/roach88/pdavault/internal/vault"
)

// Harness is the scenario execution engine. Each harness owns a fresh
// ledger, a runtime with the vault program registered, and deterministic
// keys and nonces.
type Harness struct {
	runtime *runtime.Runtime
	client  *vault.Client
	program address.Address
	metrics *metrics.Recorder
	logger  *slog.Logger
	keys    map[string]ed25519.PrivateKey
}

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	metrics *metrics.Recorder
}

// WithMetrics counts the run's instructions into rec instead of a fresh
// recorder, so several runs can share one set of counters.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(c *runConfig) { c.metrics = rec }
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Keys come from keys.Deterministic(label), nonces from the scenario name,
// so two runs of the same scenario produce the same trace.
//
// Execution flow:
// 1. Create fresh in-memory ledger and runtime
// 2. Execute setup airdrops
// 3. Execute flow steps, checking each expected outcome
// 4. Evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx := context.Background()

	st, err := ledger.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory ledger: %w", err)
	}
	defer st.Close()

	logger := testutil.DiscardLogger()
	rt, err := runtime.New(ctx, st,
		runtime.WithLogger(logger),
		runtime.WithIDGenerator(runtime.NewSequenceGenerator("airdrop")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime: %w", err)
	}

	policy := vault.DefaultPolicy()
	if scenario.Policy != nil {
		policy = *scenario.Policy
	}
	program := vault.DefaultProgramID
	rt.Register(vault.NewProgram(program, policy))

	rec := cfg.metrics
	if rec == nil {
		rec = metrics.NewRecorder()
	}
	h := &Harness{
		runtime: rt,
		client: vault.NewClient(rt, program,
			vault.WithNonces(runtime.NewSequenceGenerator(scenario.Name)),
			vault.WithRecorder(rec),
		),
		program: program,
		metrics: rec,
		logger:  logger,
		keys:    make(map[string]ed25519.PrivateKey),
	}

	result := NewResult()
	result.Metrics = rec

	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Harness: h,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

// key returns the deterministic key for label, caching it.
func (h *Harness) key(label string) ed25519.PrivateKey {
	k, ok := h.keys[label]
	if !ok {
		k = keys.Deterministic(label)
		h.keys[label] = k
	}
	return k
}

// executeSetup funds accounts. Setup steps must succeed.
func (h *Harness) executeSetup(ctx context.Context, setup []SetupStep, result *Result) error {
	for i, step := range setup {
		to := keys.AddressOf(h.key(step.Airdrop))
		receipt, err := h.runtime.Airdrop(ctx, to, step.Lamports)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		result.Trace = append(result.Trace, TraceEvent{
			Type:     EventAirdrop,
			Seq:      receipt.Seq,
			Account:  step.Airdrop,
			Lamports: step.Lamports,
		})
		h.logger.Info("setup step completed", "step", i, "account", step.Airdrop, "seq", receipt.Seq)
	}
	return nil
}

// executeFlow submits each step through the vault client and compares
// the journaled outcome with the step's expectation. An outcome mismatch
// is a scenario failure, not a harness error; errors are reserved for
// transactions the runtime refused to journal at all.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		call := vault.Call{Op: vault.Op(step.Invoke), Amount: step.Amount}
		receipt, err := h.client.Submit(ctx, h.key(step.Owner), call)
		if err != nil && receipt.Status == "" {
			return fmt.Errorf("flow step %d (%s): %w", i, step.Invoke, err)
		}

		outcome := string(ledger.StatusOK)
		if receipt.Status != ledger.StatusOK {
			outcome = receipt.ErrorCode
		}

		balances, err := h.balances(ctx, step.Owner)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		event := TraceEvent{
			Type:        EventInstruction,
			Seq:         receipt.Seq,
			Instruction: step.Invoke,
			Owner:       step.Owner,
			Outcome:     outcome,
			Fee:         receipt.Fee,
			Balances:    balances,
		}
		if vault.Op(step.Invoke).TakesAmount() {
			event.Amount = step.Amount
		}
		result.Trace = append(result.Trace, event)

		want := string(ledger.StatusOK)
		if step.Expect != nil {
			want = step.Expect.Outcome
		}
		if outcome != want {
			result.AddError(fmt.Sprintf("flow[%d] %s by %s: expected outcome %s, got %s",
				i, step.Invoke, step.Owner, want, outcome))
		}
	}
	return nil
}

// balances reads the owner, vault and state balances for label.
func (h *Harness) balances(ctx context.Context, label string) (map[string]uint64, error) {
	owner := keys.AddressOf(h.key(label))
	addrs, err := vault.Derive(h.program, owner)
	if err != nil {
		return nil, err
	}
	out := make(map[string]uint64, 3)
	for name, addr := range map[string]address.Address{
		"owner": owner,
		"vault": addrs.Vault,
		"state": addrs.State,
	} {
		bal, err := h.runtime.Balance(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("balance of %s.%s: %w", label, name, err)
		}
		out[name] = bal
	}
	return out, nil
}

// resolve maps an account label to an address: "alice" is alice's key,
// "alice.vault" and "alice.state" are her derived accounts.
func (h *Harness) resolve(label string) (address.Address, error) {
	name, suffix := label, ""
	if i := strings.LastIndexByte(label, '.'); i >= 0 {
		name, suffix = label[:i], label[i+1:]
	}
	owner := keys.AddressOf(h.key(name))
	if suffix == "" {
		return owner, nil
	}
	addrs, err := vault.Derive(h.program, owner)
	if err != nil {
		return address.Address{}, err
	}
	switch suffix {
	case "vault":
		return addrs.Vault, nil
	case "state":
		return addrs.State, nil
	default:
		return address.Address{}, fmt.Errorf("unknown account suffix %q in %q", suffix, label)
	}
}
