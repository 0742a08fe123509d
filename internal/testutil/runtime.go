package testutil

import (
	"context"
	"crypto/ed25519"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/keys"
	"github.com/roach88/pdavault/internal/ledger"
	"github.com/roach88/pdavault/internal/runtime"
)

// DiscardLogger drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRuntime creates a runtime over st with airdrop IDs airdrop-1,
// airdrop-2, ... and a discarding logger. opts are applied last.
func NewRuntime(t testing.TB, st *ledger.Store, opts ...runtime.Option) *runtime.Runtime {
	t.Helper()
	base := []runtime.Option{
		runtime.WithIDGenerator(runtime.NewSequenceGenerator("airdrop")),
		runtime.WithLogger(DiscardLogger()),
	}
	rt, err := runtime.New(context.Background(), st, append(base, opts...)...)
	require.NoError(t, err)
	return rt
}

// Owner returns the deterministic key and address for label.
func Owner(label string) (ed25519.PrivateKey, address.Address) {
	key := keys.Deterministic(label)
	return key, keys.AddressOf(key)
}

// FundedOwner is Owner plus an airdrop of lamports.
func FundedOwner(t testing.TB, rt *runtime.Runtime, label string, lamports uint64) (ed25519.PrivateKey, address.Address) {
	t.Helper()
	key, addr := Owner(label)
	_, err := rt.Airdrop(context.Background(), addr, lamports)
	require.NoError(t, err)
	return key, addr
}
