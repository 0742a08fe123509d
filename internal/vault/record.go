package vault

import (
	"errors"

	"github.com/roach88/pdavault/internal/address"
)

// RecordSize is the length of an encoded Record.
const RecordSize = 2

// Record is the per-owner metadata stored at the state address.
// Both bumps are fixed at initialize and never change.
//
// The encoding is [vault_bump, state_bump] with no version tag. A layout
// change needs a new account type, not a new field.
type Record struct {
	VaultBump uint8 `json:"vault_bump"`
	StateBump uint8 `json:"state_bump"`
}

// Encode returns the on-ledger form of r.
func (r Record) Encode() []byte {
	return []byte{r.VaultBump, r.StateBump}
}

// DecodeRecord parses account data written by Encode.
func DecodeRecord(data []byte) (Record, error) {
	if len(data) != RecordSize {
		return Record{}, newError(CodeInvalidDerivation, "record is %d bytes, want %d", len(data), RecordSize)
	}
	return Record{VaultBump: data[0], StateBump: data[1]}, nil
}

// Validate recomputes both addresses from owner and the stored bumps and
// requires them to equal the supplied state and vault.
func (r Record) Validate(program, owner, state, vault address.Address) error {
	err := address.VerifyProgramAddress(state, stateSeeds(owner), r.StateBump, program)
	if err != nil {
		return invalidDerivation("state", state, err)
	}
	err = address.VerifyProgramAddress(vault, vaultSeeds(state), r.VaultBump, program)
	if err != nil {
		return invalidDerivation("vault", vault, err)
	}
	return nil
}

// vaultSignerSeeds are the seeds the program presents to move funds out of
// the vault.
func (r Record) vaultSignerSeeds(state address.Address) [][]byte {
	return withBump(vaultSeeds(state), r.VaultBump)
}

func invalidDerivation(which string, addr address.Address, err error) error {
	if errors.Is(err, address.ErrAddressMismatch) {
		return newError(CodeInvalidDerivation, "%s %s does not match stored bump", which, addr)
	}
	return newError(CodeInvalidDerivation, "%s %s: %v", which, addr, err)
}
