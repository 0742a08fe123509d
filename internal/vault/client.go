package vault

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/ledger"
	"github.com/roach88/pdavault/internal/runtime"
)

// Processor is the part of the runtime a Client needs.
type Processor interface {
	Process(ctx context.Context, tx runtime.Transaction) (runtime.Receipt, error)
	Account(ctx context.Context, addr address.Address) (ledger.Account, error)
	Balance(ctx context.Context, addr address.Address) (uint64, error)
}

// Recorder receives one call per submitted instruction. *metrics.Recorder
// implements it.
type Recorder interface {
	Instruction(instruction, outcome string)
	LamportsMoved(direction string, amount uint64)
}

type nopRecorder struct{}

func (nopRecorder) Instruction(string, string) {}
func (nopRecorder) LamportsMoved(string, uint64) {}

// Client submits single-instruction vault transactions signed by the owner,
// who also pays the fee.
type Client struct {
	proc     Processor
	program  address.Address
	nonces   runtime.NonceGenerator
	recorder Recorder
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithNonces sets the message nonce generator. Defaults to UUIDv7.
func WithNonces(g runtime.NonceGenerator) ClientOption {
	return func(c *Client) { c.nonces = g }
}

// WithRecorder sets where instruction outcomes are counted.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) { c.recorder = r }
}

// NewClient creates a client for the vault program at program.
func NewClient(proc Processor, program address.Address, opts ...ClientOption) *Client {
	c := &Client{
		proc:     proc,
		program:  program,
		nonces:   runtime.UUIDv7Generator{},
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Initialize(ctx context.Context, owner ed25519.PrivateKey) (runtime.Receipt, error) {
	return c.Submit(ctx, owner, Call{Op: OpInitialize})
}

func (c *Client) Deposit(ctx context.Context, owner ed25519.PrivateKey, amount uint64) (runtime.Receipt, error) {
	return c.Submit(ctx, owner, Call{Op: OpDeposit, Amount: amount})
}

func (c *Client) Withdraw(ctx context.Context, owner ed25519.PrivateKey, amount uint64) (runtime.Receipt, error) {
	return c.Submit(ctx, owner, Call{Op: OpWithdraw, Amount: amount})
}

func (c *Client) Close(ctx context.Context, owner ed25519.PrivateKey) (runtime.Receipt, error) {
	return c.Submit(ctx, owner, Call{Op: OpClose})
}

// Submit builds, signs and processes call for owner.
// A failed instruction returns its receipt together with the error.
func (c *Client) Submit(ctx context.Context, owner ed25519.PrivateKey, call Call) (runtime.Receipt, error) {
	ownerAddr, err := address.FromPublicKey(owner.Public().(ed25519.PublicKey))
	if err != nil {
		return runtime.Receipt{}, err
	}
	ix, err := NewInstruction(c.program, ownerAddr, call)
	if err != nil {
		return runtime.Receipt{}, err
	}

	tx, err := runtime.Sign(runtime.Message{
		Payer:        ownerAddr,
		Nonce:        c.nonces.Generate(),
		Instructions: []runtime.Instruction{ix},
	}, owner)
	if err != nil {
		return runtime.Receipt{}, fmt.Errorf("sign %s: %w", call.Op, err)
	}

	receipt, err := c.proc.Process(ctx, tx)
	if receipt.Status != "" {
		record(c.recorder, call, receipt.Status, receipt.ErrorCode)
	}
	return receipt, err
}

// record counts one journaled instruction.
func record(r Recorder, call Call, status ledger.Status, code string) {
	if status != ledger.StatusOK {
		r.Instruction(string(call.Op), code)
		return
	}
	r.Instruction(string(call.Op), string(ledger.StatusOK))
	if call.Op.TakesAmount() {
		r.LamportsMoved(string(call.Op), call.Amount)
	}
}

// State is a read-only view of one owner's vault.
type State struct {
	Addresses
	Initialized   bool    `json:"initialized"`
	Record        *Record `json:"record,omitempty"`
	RecordBalance uint64  `json:"record_balance"`
	VaultBalance  uint64  `json:"vault_balance"`
	OwnerBalance  uint64  `json:"owner_balance"`
}

// Inspect derives owner's addresses and reads their current state. An
// owner without a record, or whose state address holds only lamports, is
// reported with Initialized false.
func (c *Client) Inspect(ctx context.Context, owner address.Address) (State, error) {
	addrs, err := Derive(c.program, owner)
	if err != nil {
		return State{}, err
	}
	st := State{Addresses: addrs}

	acct, err := c.proc.Account(ctx, addrs.State)
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
	case err != nil:
		return State{}, err
	case acct.Owner != c.program:
		// Lamports sent to the state address before initialize.
		st.RecordBalance = acct.Lamports
	default:
		rec, err := DecodeRecord(acct.Data)
		if err != nil {
			return State{}, err
		}
		st.Initialized = true
		st.Record = &rec
		st.RecordBalance = acct.Lamports
	}

	if st.VaultBalance, err = c.proc.Balance(ctx, addrs.Vault); err != nil {
		return State{}, err
	}
	if st.OwnerBalance, err = c.proc.Balance(ctx, owner); err != nil {
		return State{}, err
	}
	return st, nil
}
