package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/ledger"
	"github.com/roach88/pdavault/internal/metrics"
	"github.com/roach88/pdavault/internal/vault"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Key   string
	Owner string
	Limit int
}

// HistoryEntry is one journal entry with its vault instructions decoded.
type HistoryEntry struct {
	ledger.JournalEntry
	Instructions []string `json:"instructions"`
}

type historyView []HistoryEntry

func (v historyView) String() string {
	if len(v) == 0 {
		return "No journal entries."
	}
	var b strings.Builder
	for i, e := range v {
		if i > 0 {
			b.WriteByte('\n')
		}
		what := strings.Join(e.Instructions, ",")
		if e.Kind == ledger.KindAirdrop {
			what = e.Summary
		}
		status := string(e.Status)
		if e.ErrorCode != "" {
			status += " " + e.ErrorCode
		}
		fmt.Fprintf(&b, "%6d  %-8s %-24s fee %-6d %s  %s", e.Seq, e.Kind, status, e.Fee, e.Payer, what)
	}
	return b.String()
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled transactions, most recent first",
		Long: `List the ledger journal: every processed transaction (committed or
failed) and every airdrop, most recent first.

Examples:
  vault history --db ./vault.db
  vault history --key alice.json --limit 10 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}
	addOwnerFlags(cmd, &opts.Key, &opts.Owner)
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show at most this many entries (0 for all)")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must not be negative")
	}
	var payer address.Address
	if opts.Key != "" || opts.Owner != "" {
		var err error
		if payer, err = resolveOwner(opts.Key, opts.Owner); err != nil {
			return err
		}
	}

	e, err := openEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	entries, err := e.store.Journal(commandContext(cmd), ledger.JournalFilter{Payer: payer, Limit: opts.Limit})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}

	history := make(historyView, 0, len(entries))
	for _, entry := range entries {
		calls, err := vault.Calls(entry, e.program)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to decode journal", err)
		}
		names := make([]string, 0, len(calls))
		for _, c := range calls {
			name := string(c.Op)
			if c.Op.TakesAmount() {
				name = fmt.Sprintf("%s(%d)", c.Op, c.Amount)
			}
			names = append(names, name)
		}
		history = append(history, HistoryEntry{JournalEntry: entry, Instructions: names})
	}
	return newFormatter(cmd, opts.RootOptions).Success(history)
}

// MetricsOptions holds flags for the metrics command.
type MetricsOptions struct {
	*RootOptions
	Out string
}

// NewMetricsCommand creates the metrics command.
func NewMetricsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MetricsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print vault counters in Prometheus text format",
		Long: `Rebuild the vault counters from the journal and print them in the
Prometheus text exposition format. With --out the counters are written to a
file suitable for the node_exporter textfile collector. --format is ignored.

Examples:
  vault metrics --db ./vault.db
  vault metrics --out /var/lib/node_exporter/pdavault.prom`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}

func runMetrics(opts *MetricsOptions, cmd *cobra.Command) error {
	e, err := openEnv(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer e.close()

	entries, err := e.store.Journal(commandContext(cmd), ledger.JournalFilter{})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read journal", err)
	}
	rec := metrics.NewRecorder()
	if err := vault.Replay(entries, e.program, rec); err != nil {
		return WrapExitError(ExitFailure, "failed to replay journal", err)
	}

	if opts.Out != "" {
		if err := rec.WriteFile(opts.Out); err != nil {
			return WrapExitError(ExitCommandError, "failed to write metrics", err)
		}
		e.logger.Info("metrics written", "path", opts.Out, "entries", len(entries))
		return nil
	}
	return rec.WriteText(cmd.OutOrStdout())
}
