package vault

import (
	"errors"
	"fmt"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/ledger"
	"github.com/roach88/pdavault/internal/runtime"
)

// DefaultProgramID is the vault program's address unless configured
// otherwise.
var DefaultProgramID = address.MustParse("3HseKxTKQ84MXjHZJUHgiMksd2N4yaptbp2bmra2Ad9c")

// Program is the vault program. Register it with a runtime.
type Program struct {
	id     address.Address
	policy Policy
}

// NewProgram creates the vault program deployed at id.
func NewProgram(id address.Address, policy Policy) *Program {
	return &Program{id: id, policy: policy}
}

// ID implements runtime.Program.
func (p *Program) ID() address.Address {
	return p.id
}

// Policy returns the reserve policy the program runs with.
func (p *Program) Policy() Policy {
	return p.policy
}

// accounts is the fixed account list every instruction takes.
type accounts struct {
	owner address.Address
	vault address.Address
	state address.Address
}

// Execute implements runtime.Program.
func (p *Program) Execute(ic *runtime.InvokeContext, metas []runtime.AccountMeta, data []byte) error {
	call, err := DecodeCall(data)
	if err != nil {
		return err
	}
	accts, err := parseAccounts(ic, metas)
	if err != nil {
		return fmt.Errorf("%s: %w", call.Op, err)
	}

	switch call.Op {
	case OpInitialize:
		err = p.initialize(ic, accts)
	case OpDeposit:
		err = p.deposit(ic, accts, call.Amount)
	case OpWithdraw:
		err = p.withdraw(ic, accts, call.Amount)
	case OpClose:
		err = p.close(ic, accts)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", call.Op, err)
	}
	return nil
}

func parseAccounts(ic *runtime.InvokeContext, metas []runtime.AccountMeta) (accounts, error) {
	if len(metas) != 4 {
		return accounts{}, newError(CodeAccountMismatch, "%d accounts, want 4", len(metas))
	}
	owner := metas[0].Address
	if !metas[0].Signer || !ic.IsSigner(owner) {
		return accounts{}, newError(CodeMissingSignature, "owner %s did not sign", owner)
	}
	if metas[3].Address != runtime.SystemProgramID {
		return accounts{}, newError(CodeAccountMismatch, "account 3 is %s, want system program", metas[3].Address)
	}
	return accounts{
		owner: owner,
		vault: metas[1].Address,
		state: metas[2].Address,
	}, nil
}

func (p *Program) initialize(ic *runtime.InvokeContext, a accounts) error {
	addrs, err := Derive(p.id, a.owner)
	if err != nil {
		return err
	}
	if addrs.State != a.state {
		return newError(CodeInvalidDerivation, "state %s, derived %s", a.state, addrs.State)
	}
	if addrs.Vault != a.vault {
		return newError(CodeInvalidDerivation, "vault %s, derived %s", a.vault, addrs.Vault)
	}

	err = ic.CreateAccount(a.owner, a.state, RecordSize, p.id, withBump(stateSeeds(a.owner), addrs.StateBump)...)
	if errors.Is(err, runtime.ErrAccountInUse) {
		return fmt.Errorf("%w: %w", ErrAlreadyInitialized, err)
	}
	if err != nil {
		return fromHost(err)
	}

	rec := Record{VaultBump: addrs.VaultBump, StateBump: addrs.StateBump}
	if err := ic.SetData(a.state, rec.Encode()); err != nil {
		return err
	}
	ic.Logf("initialize: state %s bump %d, vault %s bump %d", a.state, rec.StateBump, a.vault, rec.VaultBump)

	if !p.policy.PrefundVault {
		return nil
	}
	floor := p.policy.ReserveFloor(ic.Rent())
	balance, err := ic.Balance(a.vault)
	if err != nil {
		return err
	}
	if balance >= floor {
		return nil
	}
	if err := ic.Transfer(a.owner, a.vault, floor-balance); err != nil {
		return fromHost(err)
	}
	ic.Logf("prefund: %d to vault", floor-balance)
	return nil
}

func (p *Program) deposit(ic *runtime.InvokeContext, a accounts, amount uint64) error {
	if amount == 0 {
		return newError(CodeInvalidAmount, "deposit of 0")
	}
	if _, err := p.loadRecord(ic, a); err != nil {
		return err
	}

	// Funds flow into the vault, so the owner's signature is enough.
	if err := ic.Transfer(a.owner, a.vault, amount); err != nil {
		return fromHost(err)
	}
	ic.Logf("deposit: %d", amount)
	return nil
}

func (p *Program) withdraw(ic *runtime.InvokeContext, a accounts, amount uint64) error {
	if amount == 0 {
		return newError(CodeInvalidAmount, "withdraw of 0")
	}
	rec, err := p.loadRecord(ic, a)
	if err != nil {
		return err
	}

	if p.policy.EnforceFloor {
		balance, err := ic.Balance(a.vault)
		if err != nil {
			return err
		}
		floor := p.policy.ReserveFloor(ic.Rent())
		if balance < amount || balance-amount < floor {
			return newError(CodeInsufficientFunds,
				"vault holds %d, withdrawing %d would leave less than the floor of %d", balance, amount, floor)
		}
	}

	if err := ic.Transfer(a.vault, a.owner, amount, rec.vaultSignerSeeds(a.state)...); err != nil {
		return fromHost(err)
	}
	ic.Logf("withdraw: %d", amount)
	return nil
}

func (p *Program) close(ic *runtime.InvokeContext, a accounts) error {
	rec, err := p.loadRecord(ic, a)
	if err != nil {
		return err
	}

	balance, err := ic.Balance(a.vault)
	if err != nil {
		return err
	}
	// Sweep before deallocating; a failed sweep must leave the record.
	if err := ic.Transfer(a.vault, a.owner, balance, rec.vaultSignerSeeds(a.state)...); err != nil {
		return fromHost(err)
	}
	if err := ic.CloseAccount(a.state, a.owner); err != nil {
		return err
	}
	ic.Logf("close: swept %d", balance)
	return nil
}

// loadRecord reads the record at a.state and validates both addresses
// against it.
func (p *Program) loadRecord(ic *runtime.InvokeContext, a accounts) (Record, error) {
	acct, err := ic.Account(a.state)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return Record{}, newError(CodeNotInitialized, "no record at %s", a.state)
	}
	if err != nil {
		return Record{}, err
	}
	if acct.Owner == runtime.SystemProgramID && len(acct.Data) == 0 {
		return Record{}, newError(CodeNotInitialized, "%s holds only lamports", a.state)
	}
	if acct.Owner != p.id {
		return Record{}, newError(CodeInvalidDerivation, "state %s is owned by %s", a.state, acct.Owner)
	}

	rec, err := DecodeRecord(acct.Data)
	if err != nil {
		return Record{}, err
	}
	if err := rec.Validate(p.id, a.owner, a.state, a.vault); err != nil {
		return Record{}, err
	}
	return rec, nil
}
