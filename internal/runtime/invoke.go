package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/ledger"
)

// maxLamports is the largest balance the ledger can store.
const maxLamports = math.MaxInt64

// InvokeContext is what a program sees while executing one instruction.
// Every write goes into the enclosing ledger transaction, so an error
// returned from Program.Execute discards all of them.
type InvokeContext struct {
	ctx     context.Context
	w       ledger.Writer
	rent    Rent
	program address.Address
	signers map[address.Address]bool
	// writable holds the accounts the instruction listed as writable.
	writable map[address.Address]bool
	touched map[address.Address]struct{}
	logs    *[]string
	logger  *slog.Logger
}

// Context returns the context the transaction is processed under.
func (ic *InvokeContext) Context() context.Context {
	return ic.ctx
}

// ProgramID returns the address of the executing program.
func (ic *InvokeContext) ProgramID() address.Address {
	return ic.program
}

// Rent returns the runtime's rent parameters.
func (ic *InvokeContext) Rent() Rent {
	return ic.rent
}

// IsSigner reports whether addr signed the transaction.
func (ic *InvokeContext) IsSigner(addr address.Address) bool {
	return ic.signers[addr]
}

// IsWritable reports whether the instruction listed addr as writable.
func (ic *InvokeContext) IsWritable(addr address.Address) bool {
	return ic.writable[addr]
}

// writableSet collects the addresses metas marks writable. An address
// listed twice is writable if either entry says so.
func writableSet(metas []AccountMeta) map[address.Address]bool {
	set := make(map[address.Address]bool, len(metas))
	for _, m := range metas {
		if m.Writable {
			set[m.Address] = true
		}
	}
	return set
}

func (ic *InvokeContext) checkWritable(addr address.Address) error {
	if !ic.writable[addr] {
		return newError(CodeAccountNotWritable, "%s is not a writable account of this instruction", addr)
	}
	return nil
}

// Logf appends a line to the transaction's program log.
func (ic *InvokeContext) Logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	*ic.logs = append(*ic.logs, line)
	ic.logger.Debug("program log", "program", ic.program.String(), "msg", line)
}

// Account returns the account at addr or an error wrapping
// ledger.ErrAccountNotFound.
func (ic *InvokeContext) Account(addr address.Address) (ledger.Account, error) {
	return ic.w.Get(ic.ctx, addr)
}

// Balance returns the lamports at addr; a missing account holds zero.
func (ic *InvokeContext) Balance(addr address.Address) (uint64, error) {
	acct, err := ic.w.Get(ic.ctx, addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// CreateAccount allocates space bytes at addr, owned by owner and funded
// by payer up to the rent-exempt minimum.
//
// payer must have signed. addr must either have signed or be derived from
// seeds under the calling program, and must be writable. An address that
// only holds lamports is topped up and allocated in place; one that carries
// data or belongs to a program fails with ErrAccountInUse.
func (ic *InvokeContext) CreateAccount(payer, addr address.Address, space int, owner address.Address, seeds ...[]byte) error {
	if !ic.signers[payer] {
		return newError(CodeMissingSignature, "payer %s did not sign", payer)
	}
	if err := ic.authorize(addr, seeds); err != nil {
		return err
	}
	if err := ic.checkWritable(addr); err != nil {
		return err
	}

	minimum := ic.rent.MinimumBalance(space)
	existing, err := ic.w.Get(ic.ctx, addr)
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		if err := ic.debit(payer, minimum); err != nil {
			return err
		}
		err = ic.w.Create(ic.ctx, ledger.Account{
			Address:  addr,
			Lamports: minimum,
			Owner:    owner,
			Data:     make([]byte, space),
		})
		if errors.Is(err, ledger.ErrAccountExists) {
			return newError(CodeAccountInUse, "%s", addr)
		}
		if err != nil {
			return err
		}
	case err != nil:
		return err
	case len(existing.Data) > 0 || !existing.Owner.IsZero():
		return newError(CodeAccountInUse, "%s is allocated and owned by %s", addr, existing.Owner)
	default:
		var topUp uint64
		if existing.Lamports < minimum {
			topUp = minimum - existing.Lamports
		}
		if topUp > 0 {
			if err := ic.debit(payer, topUp); err != nil {
				return err
			}
			// payer may be addr itself.
			if existing, err = ic.w.Get(ic.ctx, addr); err != nil {
				return err
			}
		}
		existing.Lamports += topUp
		existing.Owner = owner
		existing.Data = make([]byte, space)
		if err := ic.w.Put(ic.ctx, existing); err != nil {
			return err
		}
	}
	ic.touch(addr)
	return nil
}

// Transfer moves amount lamports from one address to another.
//
// from must have signed, or be derived from seeds under the calling
// program. Both ends must be writable. from must be a plain system
// account: no data and not owned by a program. The destination is created
// on first credit.
func (ic *InvokeContext) Transfer(from, to address.Address, amount uint64, seeds ...[]byte) error {
	if err := ic.authorize(from, seeds); err != nil {
		return err
	}

	src, err := ic.w.Get(ic.ctx, from)
	if err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		return err
	}
	if err == nil && (!src.Owner.IsZero() || len(src.Data) > 0) {
		return newError(CodeInvalidTransferSource, "%s carries data or is program owned", from)
	}
	if amount == 0 {
		return nil
	}

	if err := ic.debit(from, amount); err != nil {
		return err
	}
	return ic.credit(to, amount)
}

// SetData overwrites the data of an account owned by the calling program.
// The length must not change.
func (ic *InvokeContext) SetData(addr address.Address, data []byte) error {
	if err := ic.checkWritable(addr); err != nil {
		return err
	}
	acct, err := ic.w.Get(ic.ctx, addr)
	if err != nil {
		return err
	}
	if acct.Owner != ic.program {
		return newError(CodeNotAccountOwner, "%s is owned by %s", addr, acct.Owner)
	}
	if len(data) != len(acct.Data) {
		return newError(CodeAccountDataSize, "%s holds %d bytes, got %d", addr, len(acct.Data), len(data))
	}

	acct.Data = append([]byte(nil), data...)
	if err := ic.w.Put(ic.ctx, acct); err != nil {
		return err
	}
	ic.touch(addr)
	return nil
}

// CloseAccount deallocates an account owned by the calling program and
// credits all of its lamports to dest.
func (ic *InvokeContext) CloseAccount(addr, dest address.Address) error {
	if err := ic.checkWritable(addr); err != nil {
		return err
	}
	if err := ic.checkWritable(dest); err != nil {
		return err
	}
	acct, err := ic.w.Get(ic.ctx, addr)
	if err != nil {
		return err
	}
	if acct.Owner != ic.program {
		return newError(CodeNotAccountOwner, "%s is owned by %s", addr, acct.Owner)
	}

	if err := ic.w.Delete(ic.ctx, addr); err != nil {
		return err
	}
	if acct.Lamports > 0 {
		if err := ic.credit(dest, acct.Lamports); err != nil {
			return err
		}
	}
	return nil
}

// authorize checks that addr signed, or that seeds derive addr under the
// calling program.
func (ic *InvokeContext) authorize(addr address.Address, seeds [][]byte) error {
	if ic.signers[addr] {
		return nil
	}
	if len(seeds) == 0 {
		return newError(CodeUnauthorizedSigner, "%s did not sign", addr)
	}
	derived, err := address.CreateProgramAddress(seeds, ic.program)
	if err != nil {
		return newError(CodeUnauthorizedSigner, "signer seeds for %s: %v", addr, err)
	}
	if derived != addr {
		return newError(CodeUnauthorizedSigner, "signer seeds derive %s, not %s", derived, addr)
	}
	return nil
}

func (ic *InvokeContext) debit(addr address.Address, amount uint64) error {
	if err := ic.checkWritable(addr); err != nil {
		return err
	}
	acct, err := ic.w.Get(ic.ctx, addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		return newError(CodeInsufficientFunds, "%s holds 0, needs %d", addr, amount)
	}
	if err != nil {
		return err
	}
	if acct.Lamports < amount {
		return newError(CodeInsufficientFunds, "%s holds %d, needs %d", addr, acct.Lamports, amount)
	}

	acct.Lamports -= amount
	if err := ic.w.Put(ic.ctx, acct); err != nil {
		return err
	}
	ic.touch(addr)
	return nil
}

func (ic *InvokeContext) credit(addr address.Address, amount uint64) error {
	if err := ic.checkWritable(addr); err != nil {
		return err
	}
	acct, err := ic.w.Get(ic.ctx, addr)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		acct = ledger.Account{Address: addr}
	} else if err != nil {
		return err
	}

	if acct.Lamports > maxLamports-amount {
		return newError(CodeLamportsOverflow, "%s + %d", addr, amount)
	}
	acct.Lamports += amount
	if err := ic.w.Put(ic.ctx, acct); err != nil {
		return err
	}
	ic.touch(addr)
	return nil
}

func (ic *InvokeContext) touch(addr address.Address) {
	ic.touched[addr] = struct{}{}
}
