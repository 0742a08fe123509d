package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/keys"
	"github.com/roach88/pdavault/internal/vault"
)

// KeygenOptions holds flags for the keygen command.
type KeygenOptions struct {
	*RootOptions
	Out        string
	Mnemonic   string
	Passphrase string
}

// KeygenResult is the output of keygen.
type KeygenResult struct {
	Address  address.Address `json:"address"`
	Path     string          `json:"path"`
	Mnemonic string          `json:"mnemonic,omitempty"`
}

func (r KeygenResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wrote keypair to %s\n", r.Path)
	fmt.Fprintf(&b, "Address: %s", r.Address)
	if r.Mnemonic != "" {
		fmt.Fprintf(&b, "\nMnemonic (store it safely; it recovers this key):\n  %s", r.Mnemonic)
	}
	return b.String()
}

// NewKeygenCommand creates the keygen command.
func NewKeygenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KeygenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an owner keypair",
		Long: `Generate an owner keypair from a new BIP39 mnemonic, or recover one from
an existing mnemonic, and write it to a keypair file.

Examples:
  vault keygen --out alice.json
  vault keygen --out alice.json --mnemonic "abandon abandon ... about"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeygen(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "keypair file to write (required)")
	cmd.Flags().StringVar(&opts.Mnemonic, "mnemonic", "", "recover from this mnemonic instead of generating one")
	cmd.Flags().StringVar(&opts.Passphrase, "passphrase", "", "BIP39 passphrase")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runKeygen(opts *KeygenOptions, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	mnemonic := opts.Mnemonic
	generated := mnemonic == ""
	if generated {
		var err error
		if mnemonic, err = keys.NewMnemonic(); err != nil {
			return WrapExitError(ExitFailure, "failed to generate mnemonic", err)
		}
	}

	key, err := keys.FromMnemonic(mnemonic, opts.Passphrase)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid mnemonic", err)
	}
	if err := keys.Save(opts.Out, key); err != nil {
		return WrapExitError(ExitCommandError, "failed to write keypair", err)
	}

	result := KeygenResult{Address: keys.AddressOf(key), Path: opts.Out}
	if generated {
		result.Mnemonic = mnemonic
	}
	return out.Success(result)
}

// AddressOptions holds flags for the address command.
type AddressOptions struct {
	*RootOptions
	Key   string
	Owner string
}

type addressView vault.Addresses

func (v addressView) String() string {
	return fmt.Sprintf("Owner: %s\nState: %s (bump %d)\nVault: %s (bump %d)",
		v.Owner, v.State, v.StateBump, v.Vault, v.VaultBump)
}

// NewAddressCommand creates the address command.
func NewAddressCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddressOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Show an owner's derived state and vault addresses",
		Long: `Derive the state and vault program addresses for an owner. No ledger is
read; the program ID comes from the config.

Examples:
  vault address --key alice.json
  vault address --owner CVDFLCAjXhVWiPXH9nTCTpCgVzmDVoiPzNJYuccr1dqB`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddress(opts, cmd)
		},
	}
	addOwnerFlags(cmd, &opts.Key, &opts.Owner)
	return cmd
}

func runAddress(opts *AddressOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	program, err := cfg.Program()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	owner, err := resolveOwner(opts.Key, opts.Owner)
	if err != nil {
		return err
	}
	addrs, err := vault.Derive(program, owner)
	if err != nil {
		return WrapExitError(ExitFailure, "derivation failed", err)
	}
	return newFormatter(cmd, opts.RootOptions).Success(addressView(addrs))
}
