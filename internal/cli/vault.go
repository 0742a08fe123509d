package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pdavault/internal/keys"
	"github.com/roach88/pdavault/internal/runtime"
	"github.com/roach88/pdavault/internal/vault"
)

// VaultOptions holds flags shared by the instruction commands.
type VaultOptions struct {
	*RootOptions
	Key string
}

// SubmitResult is the output of a committed instruction.
type SubmitResult struct {
	Instruction string          `json:"instruction"`
	Amount      uint64          `json:"amount,omitempty"`
	Receipt     runtime.Receipt `json:"receipt"`
	State       vault.State     `json:"state"`
}

func (r SubmitResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", r.Instruction)
	if r.Amount > 0 {
		fmt.Fprintf(&b, " %d", r.Amount)
	}
	fmt.Fprintf(&b, ": ok (seq %d, fee %d, tx %s)\n", r.Receipt.Seq, r.Receipt.Fee, r.Receipt.TxID)
	b.WriteString(stateView(r.State).String())
	return b.String()
}

type stateView vault.State

func (v stateView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Owner: %s (%d lamports)\n", v.Owner, v.OwnerBalance)
	if v.Initialized {
		fmt.Fprintf(&b, "State: %s (bump %d, %d lamports)\n", v.State, v.StateBump, v.RecordBalance)
	} else {
		fmt.Fprintf(&b, "State: %s (not initialized)\n", v.State)
	}
	fmt.Fprintf(&b, "Vault: %s (bump %d, %d lamports)", v.Vault, v.VaultBump, v.VaultBalance)
	return b.String()
}

func newInstructionCommand(rootOpts *RootOptions, op vault.Op, short, long string) *cobra.Command {
	opts := &VaultOptions{RootOptions: rootOpts}

	use := string(op)
	args := cobra.NoArgs
	if op.TakesAmount() {
		use += " <lamports>"
		args = cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long,
		Args:          args,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			call := vault.Call{Op: op}
			if len(args) == 1 {
				amount, err := parseLamports(args[0])
				if err != nil {
					return err
				}
				call.Amount = amount
			}
			return runSubmit(opts, call, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Key, "key", "", "path to the owner keypair file (required)")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := newInstructionCommand(rootOpts, vault.OpInitialize,
		"Create the owner's vault record",
		`Allocate the owner's state record at its program address and, with the
default reserve policy, prefund the vault to the rent-exempt floor.

Examples:
  vault init --key alice.json --db ./vault.db`)
	cmd.Use = "init"
	cmd.Aliases = []string{string(vault.OpInitialize)}
	return cmd
}

// NewDepositCommand creates the deposit command.
func NewDepositCommand(rootOpts *RootOptions) *cobra.Command {
	return newInstructionCommand(rootOpts, vault.OpDeposit,
		"Move lamports from the owner into the vault",
		`Transfer lamports from the owner's account into the vault, authorized by
the owner's signature.

Examples:
  vault deposit 1000 --key alice.json`)
}

// NewWithdrawCommand creates the withdraw command.
func NewWithdrawCommand(rootOpts *RootOptions) *cobra.Command {
	return newInstructionCommand(rootOpts, vault.OpWithdraw,
		"Move lamports from the vault back to the owner",
		`Transfer lamports from the vault to the owner. The vault program signs
with the vault's seeds. With the reserve floor enforced, the vault may not
drop below it.

Examples:
  vault withdraw 1000 --key alice.json`)
}

// NewCloseCommand creates the close command.
func NewCloseCommand(rootOpts *RootOptions) *cobra.Command {
	return newInstructionCommand(rootOpts, vault.OpClose,
		"Sweep the vault and delete the record",
		`Return the vault's full balance and the record's rent to the owner, then
delete the record. The owner may initialize again afterwards.

Examples:
  vault close --key alice.json`)
}

func runSubmit(opts *VaultOptions, call vault.Call, cmd *cobra.Command) error {
	out := newFormatter(cmd, opts.RootOptions)

	key, err := loadKey(opts.Key)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := commandContext(cmd)
	receipt, err := e.client.Submit(ctx, key, call)
	if rejected(receipt, err) {
		_ = out.Error(runtime.CodeOf(err), err.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("%s rejected", call.Op), err)
	}
	for _, line := range receipt.Logs {
		out.VerboseLog("log: %s", line)
	}
	if !receipt.OK() {
		_ = out.Error(receipt.ErrorCode, receipt.Error, receipt)
		return NewExitError(ExitFailure, fmt.Sprintf("%s failed: %s", call.Op, receipt.ErrorCode))
	}

	st, err := e.client.Inspect(ctx, keys.AddressOf(key))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read vault state", err)
	}
	return out.Success(SubmitResult{
		Instruction: string(call.Op),
		Amount:      call.Amount,
		Receipt:     receipt,
		State:       st,
	})
}

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Key   string
	Owner string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an owner's vault",
		Long: `Show an owner's derived addresses, record and balances.

Examples:
  vault show --key alice.json
  vault show --owner CVDFLCAjXhVWiPXH9nTCTpCgVzmDVoiPzNJYuccr1dqB --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}
	addOwnerFlags(cmd, &opts.Key, &opts.Owner)
	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	owner, err := resolveOwner(opts.Key, opts.Owner)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	st, err := e.client.Inspect(commandContext(cmd), owner)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read vault state", err)
	}
	out := newFormatter(cmd, opts.RootOptions)
	if out.Format == "json" {
		return out.Success(st)
	}
	return out.Success(stateView(st))
}
