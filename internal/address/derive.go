package address

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// MaxSeeds is the maximum number of seeds, including the bump seed.
	MaxSeeds = 16

	// MaxSeedLen is the maximum length in bytes of a single seed.
	MaxSeedLen = 32

	// pdaMarker is appended after the program address so that derived
	// addresses cannot collide with any other SHA-256 based identifier.
	pdaMarker = "ProgramDerivedAddress"
)

var (
	// ErrMaxSeedLength is returned when there are too many seeds or one is too long.
	ErrMaxSeedLength = errors.New("seeds exceed length limits")

	// ErrInvalidSeeds is returned when the seeds hash to a point on the
	// ed25519 curve, meaning a private key could exist for the result.
	ErrInvalidSeeds = errors.New("seeds produce an on-curve address")

	// ErrNoViableBump is returned when no bump in [0, 255] yields an
	// off-curve address.
	ErrNoViableBump = errors.New("no viable bump seed")

	// ErrAddressMismatch is returned by VerifyProgramAddress when the
	// recomputed address differs from the claimed one.
	ErrAddressMismatch = errors.New("derived address mismatch")
)

// CreateProgramAddress computes the program-derived address for seeds under
// program. The seeds must already include the bump if one is used.
//
// Format: SHA256(seed_0 || ... || seed_n || program || "ProgramDerivedAddress")
func CreateProgramAddress(seeds [][]byte, program Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, fmt.Errorf("%w: %d seeds, max %d", ErrMaxSeedLength, len(seeds), MaxSeeds)
	}
	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Address{}, fmt.Errorf("%w: seed %d is %d bytes, max %d", ErrMaxSeedLength, i, len(seed), MaxSeedLen)
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))

	var out Address
	copy(out[:], h.Sum(nil))
	if IsOnCurve(out[:]) {
		return Address{}, ErrInvalidSeeds
	}
	return out, nil
}

// FindProgramAddress searches bump values from 255 down to 0 and returns the
// first one for which seeds plus [bump] produce an off-curve address.
//
// The result is a pure function of seeds and program: every caller finds the
// same address and bump.
func FindProgramAddress(seeds [][]byte, program Address) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Address{}, 0, fmt.Errorf("%w: %d seeds leaves no room for a bump", ErrMaxSeedLength, len(seeds))
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for b := 255; b >= 0; b-- {
		bump[0] = byte(b)
		addr, err := CreateProgramAddress(withBump, program)
		switch {
		case err == nil:
			return addr, byte(b), nil
		case errors.Is(err, ErrInvalidSeeds):
			continue
		default:
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// VerifyProgramAddress recomputes the address for seeds plus [bump] and
// checks that it equals claimed.
func VerifyProgramAddress(claimed Address, seeds [][]byte, bump uint8, program Address) error {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	withBump[len(seeds)] = []byte{bump}

	addr, err := CreateProgramAddress(withBump, program)
	if err != nil {
		return err
	}
	if addr != claimed {
		return fmt.Errorf("%w: derived %s, claimed %s", ErrAddressMismatch, addr, claimed)
	}
	return nil
}

// IsOnCurve reports whether b decodes as a compressed ed25519 point.
func IsOnCurve(b []byte) bool {
	if len(b) != Size {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
