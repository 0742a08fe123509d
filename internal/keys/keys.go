// Package keys creates, stores and loads owner signing keys.
//
// Keys come from a BIP39 mnemonic: the ed25519 private key seed is the
// first 32 bytes of the BIP39 seed. Key files hold the 64-byte private key
// as a JSON array of numbers.
package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/roach88/pdavault/internal/address"
)

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrInvalidKeyFile  = errors.New("invalid key file")
)

// NewMnemonic returns a fresh 24-word mnemonic.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("mnemonic entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("mnemonic: %w", err)
	}
	return mnemonic, nil
}

// FromMnemonic derives the signing key for mnemonic and passphrase.
func FromMnemonic(mnemonic, passphrase string) (ed25519.PrivateKey, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize]), nil
}

// Deterministic returns the key whose seed is SHA-256(label). Scenario
// runs and tests use it to name owners without key files.
func Deterministic(label string) ed25519.PrivateKey {
	seed := sha256.Sum256([]byte(label))
	return ed25519.NewKeyFromSeed(seed[:])
}

// AddressOf returns the address of key's public half.
func AddressOf(key ed25519.PrivateKey) address.Address {
	var a address.Address
	copy(a[:], key.Public().(ed25519.PublicKey))
	return a
}

// Save writes key to path with mode 0600. An existing file is never
// overwritten.
func Save(path string, key ed25519.PrivateKey) error {
	nums := make([]int, len(key))
	for i, b := range key {
		nums[i] = int(b)
	}
	data, err := json.Marshal(nums)
	if err != nil {
		return fmt.Errorf("encode key: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	return f.Close()
}

// Load reads a key written by Save. The stored public half must match the
// private seed.
func Load(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidKeyFile, path, err)
	}
	if len(nums) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: %s: %d bytes, want %d", ErrInvalidKeyFile, path, len(nums), ed25519.PrivateKeySize)
	}

	raw := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("%w: %s: byte %d out of range", ErrInvalidKeyFile, path, i)
		}
		raw[i] = byte(n)
	}

	key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if string(key) != string(raw) {
		return nil, fmt.Errorf("%w: %s: public key does not match seed", ErrInvalidKeyFile, path)
	}
	return key, nil
}
