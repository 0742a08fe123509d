package address

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the byte length of an address.
const Size = 32

// Address identifies an account on the ledger. For externally owned
// accounts it is the ed25519 public key; for program-derived accounts it
// is the output of CreateProgramAddress.
type Address [Size]byte

// Zero is the all-zero address. The runtime uses it as the system program.
var Zero Address

// ErrInvalidAddress is returned when text or bytes do not form an address.
var ErrInvalidAddress = errors.New("invalid address")

// FromPublicKey converts an ed25519 public key into an address.
func FromPublicKey(pub ed25519.PublicKey) (Address, error) {
	return FromBytes(pub)
}

// FromBytes copies b into an Address. b must be exactly Size bytes.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddress, len(b), Size)
	}
	copy(a[:], b)
	return a, nil
}

// Parse decodes a base58 address.
func Parse(s string) (Address, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return FromBytes(b)
}

// MustParse is like Parse but panics on error.
// Use only in tests or for compile-time constants.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the base58 form.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, a[:])
	return b
}

// PublicKey returns the address as an ed25519 public key.
// Only meaningful for addresses that are on the curve.
func (a Address) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(a.Bytes())
}

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool {
	return a == Zero
}

// Compare orders addresses bytewise.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
