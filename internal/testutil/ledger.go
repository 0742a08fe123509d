package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/pdavault/internal/ledger"
)

// OpenLedger opens a fresh ledger in a temp dir, closed at test cleanup.
func OpenLedger(t testing.TB) *ledger.Store {
	t.Helper()
	st, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
