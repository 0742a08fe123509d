package vault

import "github.com/roach88/pdavault/internal/runtime"

// Policy controls how the vault treats the reserve floor: the balance the
// vault account keeps so it stays rent exempt.
type Policy struct {
	// PrefundVault tops the vault up to the floor at initialize, paid by
	// the owner. Without it the vault starts empty and the first deposit
	// creates it.
	PrefundVault bool `yaml:"prefund_vault" json:"prefund_vault"`

	// EnforceFloor rejects withdrawals that would leave the vault below
	// the floor. Without it a withdrawal may drain the vault to zero.
	EnforceFloor bool `yaml:"enforce_floor" json:"enforce_floor"`

	// Floor overrides the floor. Zero means the rent-exempt minimum for a
	// data-less account.
	Floor uint64 `yaml:"floor" json:"floor"`
}

// DefaultPolicy prefunds the vault and enforces the floor.
func DefaultPolicy() Policy {
	return Policy{PrefundVault: true, EnforceFloor: true}
}

// ReserveFloor returns the floor under rent r.
func (p Policy) ReserveFloor(r runtime.Rent) uint64 {
	if p.Floor > 0 {
		return p.Floor
	}
	return r.MinimumBalance(0)
}
