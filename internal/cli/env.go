package cli

import (
	"context"
	"crypto/ed25519"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/config"
	"github.com/roach88/pdavault/internal/keys"
	"github.com/roach88/pdavault/internal/ledger"
	"github.com/roach88/pdavault/internal/runtime"
	"github.com/roach88/pdavault/internal/vault"
)

// env is everything a ledger-backed command needs.
type env struct {
	cfg     config.Config
	program address.Address
	store   *ledger.Store
	runtime *runtime.Runtime
	client  *vault.Client
	logger  *slog.Logger
}

// loadConfig reads --config (or the defaults) and applies --db.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return config.Config{}, err
		}
	}
	if opts.DB != "" {
		cfg.Database = opts.DB
	}
	return cfg, nil
}

// newLogger logs to the command's stderr at the configured level, or at
// debug with --verbose.
func newLogger(cmd *cobra.Command, opts *RootOptions, cfg config.Config) *slog.Logger {
	level := cfg.Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openEnv opens the ledger and wires the runtime, the vault program and a
// client. Callers must call close.
func openEnv(cmd *cobra.Command, opts *RootOptions, clientOpts ...vault.ClientOption) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	program, err := cfg.Program()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid config", err)
	}
	logger := newLogger(cmd, opts, cfg)

	logger.Debug("opening ledger", "path", cfg.Database)
	st, err := ledger.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	rt, err := runtime.New(commandContext(cmd), st,
		runtime.WithRent(cfg.Rent),
		runtime.WithFeePerSignature(cfg.FeePerSignature),
		runtime.WithLogger(logger),
	)
	if err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start runtime", err)
	}
	rt.Register(vault.NewProgram(program, cfg.Reserve))

	return &env{
		cfg:     cfg,
		program: program,
		store:   st,
		runtime: rt,
		client:  vault.NewClient(rt, program, clientOpts...),
		logger:  logger,
	}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing database", "error", err)
	}
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadKey reads the keypair file at path.
func loadKey(path string) (ed25519.PrivateKey, error) {
	if path == "" {
		return nil, NewExitError(ExitCommandError, "--key is required")
	}
	key, err := keys.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load key", err)
	}
	return key, nil
}

// resolveOwner returns the address given by --owner, or the public key of
// the keypair at --key.
func resolveOwner(keyPath, owner string) (address.Address, error) {
	if owner != "" {
		addr, err := address.Parse(owner)
		if err != nil {
			return address.Address{}, WrapExitError(ExitCommandError, "invalid --owner", err)
		}
		return addr, nil
	}
	key, err := loadKey(keyPath)
	if err != nil {
		return address.Address{}, err
	}
	return keys.AddressOf(key), nil
}

// addOwnerFlags registers --key and --owner on cmd.
func addOwnerFlags(cmd *cobra.Command, keyPath, owner *string) {
	cmd.Flags().StringVar(keyPath, "key", "", "path to the owner keypair file")
	cmd.Flags().StringVar(owner, "owner", "", "owner address (base58), instead of --key")
}

// rejected reports whether the runtime refused the transaction without
// journaling it. Journaled failures carry a status.
func rejected(receipt runtime.Receipt, err error) bool {
	return err != nil && receipt.Status == ""
}
