package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/pdavault/internal/address"
)

// parseLamports parses a positive lamport amount argument.
func parseLamports(arg string) (uint64, error) {
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid amount %q", arg), err)
	}
	return n, nil
}

// AirdropOptions holds flags for the airdrop command.
type AirdropOptions struct {
	*RootOptions
	Key   string
	Owner string
}

// AirdropResult is the output of airdrop.
type AirdropResult struct {
	To       address.Address `json:"to"`
	Lamports uint64          `json:"lamports"`
	Balance  uint64          `json:"balance"`
	Seq      int64           `json:"seq"`
}

func (r AirdropResult) String() string {
	return fmt.Sprintf("Airdropped %d lamports to %s (balance %d, seq %d)", r.Lamports, r.To, r.Balance, r.Seq)
}

// NewAirdropCommand creates the airdrop command.
func NewAirdropCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AirdropOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "airdrop <lamports>",
		Short: "Fund an account on the local ledger",
		Long: `Credit lamports to an account from nowhere. Airdrops are journaled.

Examples:
  vault airdrop 10000000 --key alice.json --db ./vault.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAirdrop(opts, args[0], cmd)
		},
	}
	addOwnerFlags(cmd, &opts.Key, &opts.Owner)
	return cmd
}

func runAirdrop(opts *AirdropOptions, arg string, cmd *cobra.Command) error {
	lamports, err := parseLamports(arg)
	if err != nil {
		return err
	}
	to, err := resolveOwner(opts.Key, opts.Owner)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := commandContext(cmd)
	receipt, err := e.runtime.Airdrop(ctx, to, lamports)
	if err != nil {
		return WrapExitError(ExitFailure, "airdrop failed", err)
	}
	balance, err := e.runtime.Balance(ctx, to)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read balance", err)
	}
	return newFormatter(cmd, opts.RootOptions).Success(AirdropResult{
		To:       to,
		Lamports: lamports,
		Balance:  balance,
		Seq:      receipt.Seq,
	})
}

// BalanceOptions holds flags for the balance command.
type BalanceOptions struct {
	*RootOptions
	Key string
}

// BalanceResult is the output of balance.
type BalanceResult struct {
	Address  address.Address `json:"address"`
	Lamports uint64          `json:"lamports"`
}

func (r BalanceResult) String() string {
	return fmt.Sprintf("%s: %d lamports", r.Address, r.Lamports)
}

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BalanceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "balance [address]",
		Short: "Show the lamports held by an account",
		Long: `Show the lamports held by any account: an owner, a vault, or a state
record. A missing account holds zero.

Examples:
  vault balance --key alice.json
  vault balance 8nUMDmj2JqRNsEBCdsp3B1Kw2gkB7wuduCevtDp8vFJ5`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner := ""
			if len(args) == 1 {
				owner = args[0]
			}
			return runBalance(opts, owner, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Key, "key", "", "path to a keypair file, instead of an address")
	return cmd
}

func runBalance(opts *BalanceOptions, arg string, cmd *cobra.Command) error {
	addr, err := resolveOwner(opts.Key, arg)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	lamports, err := e.runtime.Balance(commandContext(cmd), addr)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read balance", err)
	}
	return newFormatter(cmd, opts.RootOptions).Success(BalanceResult{Address: addr, Lamports: lamports})
}
