package vault

import (
	"fmt"

	"github.com/roach88/pdavault/internal/address"
)

// Seed tags. Changing either changes every derived address.
const (
	StateSeed = "state"
	VaultSeed = "vault"
)

// Addresses are the two program addresses belonging to one owner.
type Addresses struct {
	Owner     address.Address `json:"owner"`
	State     address.Address `json:"state"`
	StateBump uint8           `json:"state_bump"`
	Vault     address.Address `json:"vault"`
	VaultBump uint8           `json:"vault_bump"`
}

func stateSeeds(owner address.Address) [][]byte {
	return [][]byte{[]byte(StateSeed), owner.Bytes()}
}

func vaultSeeds(state address.Address) [][]byte {
	return [][]byte{[]byte(VaultSeed), state.Bytes()}
}

func withBump(seeds [][]byte, bump uint8) [][]byte {
	return append(seeds, []byte{bump})
}

// DeriveState returns the record address for owner under program.
func DeriveState(program, owner address.Address) (address.Address, uint8, error) {
	addr, bump, err := address.FindProgramAddress(stateSeeds(owner), program)
	if err != nil {
		return address.Address{}, 0, fmt.Errorf("derive state for %s: %w", owner, err)
	}
	return addr, bump, nil
}

// DeriveVault returns the vault address for a record address. The vault
// hangs off the record, not the owner, so the two move together.
func DeriveVault(program, state address.Address) (address.Address, uint8, error) {
	addr, bump, err := address.FindProgramAddress(vaultSeeds(state), program)
	if err != nil {
		return address.Address{}, 0, fmt.Errorf("derive vault for %s: %w", state, err)
	}
	return addr, bump, nil
}

// Derive returns both addresses for owner.
func Derive(program, owner address.Address) (Addresses, error) {
	state, stateBump, err := DeriveState(program, owner)
	if err != nil {
		return Addresses{}, err
	}
	vault, vaultBump, err := DeriveVault(program, state)
	if err != nil {
		return Addresses{}, err
	}
	return Addresses{
		Owner:     owner,
		State:     state,
		StateBump: stateBump,
		Vault:     vault,
		VaultBump: vaultBump,
	}, nil
}
