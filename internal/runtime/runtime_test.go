package runtime

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/ledger"
)

var testProgramID = address.Address{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32,
}

type funcProgram struct {
	id   address.Address
	exec func(ic *InvokeContext, accounts []AccountMeta, data []byte) error
}

func (p funcProgram) ID() address.Address { return p.id }

func (p funcProgram) Execute(ic *InvokeContext, accounts []AccountMeta, data []byte) error {
	return p.exec(ic, accounts, data)
}

func testKey(t *testing.T, b byte) (ed25519.PrivateKey, address.Address) {
	t.Helper()
	key := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{b}, ed25519.SeedSize))
	addr, err := address.FromPublicKey(key.Public().(ed25519.PublicKey))
	require.NoError(t, err)
	return key, addr
}

func newTestRuntime(t *testing.T, exec func(ic *InvokeContext, accounts []AccountMeta, data []byte) error) (*Runtime, *ledger.Store) {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rt, err := New(context.Background(), store, WithIDGenerator(NewSequenceGenerator("airdrop")))
	require.NoError(t, err)
	if exec != nil {
		rt.Register(funcProgram{id: testProgramID, exec: exec})
	}
	return rt, store
}

func signedTx(t *testing.T, nonce string, payer address.Address, metas []AccountMeta, keys ...ed25519.PrivateKey) Transaction {
	t.Helper()
	tx, err := Sign(Message{
		Payer: payer,
		Nonce: nonce,
		Instructions: []Instruction{{
			Program:  testProgramID,
			Accounts: metas,
			Data:     []byte{},
		}},
	}, keys...)
	require.NoError(t, err)
	return tx
}

func airdrop(t *testing.T, rt *Runtime, to address.Address, lamports uint64) {
	t.Helper()
	_, err := rt.Airdrop(context.Background(), to, lamports)
	require.NoError(t, err)
}

func balance(t *testing.T, rt *Runtime, addr address.Address) uint64 {
	t.Helper()
	b, err := rt.Balance(context.Background(), addr)
	require.NoError(t, err)
	return b
}

// writable lists addrs as writable, non-signing accounts.
func writable(addrs ...address.Address) []AccountMeta {
	metas := make([]AccountMeta, len(addrs))
	for i, a := range addrs {
		metas[i] = AccountMeta{Address: a, Writable: true}
	}
	return metas
}

func noop(*InvokeContext, []AccountMeta, []byte) error { return nil }

// lookupFailingLedger fails every duplicate check inside Update.
type lookupFailingLedger struct {
	*ledger.Store
	err error
}

func (l lookupFailingLedger) Update(ctx context.Context, fn func(w ledger.Writer) error) error {
	return l.Store.Update(ctx, func(w ledger.Writer) error {
		return fn(lookupFailingWriter{Writer: w, err: l.err})
	})
}

type lookupFailingWriter struct {
	ledger.Writer
	err error
}

func (w lookupFailingWriter) HasTransaction(context.Context, string) (bool, error) {
	return false, w.err
}

func TestProcess_ChargesFeePerSigner(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t, noop)
	payerKey, payer := testKey(t, 1)
	otherKey, other := testKey(t, 2)
	airdrop(t, rt, payer, 1_000_000)

	receipt, err := rt.Process(ctx, signedTx(t, "n1", payer, nil, payerKey))
	require.NoError(t, err)
	assert.True(t, receipt.OK())
	assert.Equal(t, uint64(5000), receipt.Fee)
	assert.Equal(t, uint64(995_000), balance(t, rt, payer))

	metas := []AccountMeta{{Address: other, Signer: true}}
	receipt, err = rt.Process(ctx, signedTx(t, "n2", payer, metas, payerKey, otherKey))
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), receipt.Fee)
	assert.Equal(t, uint64(985_000), balance(t, rt, payer))
}

func TestProcess_AssignsIncreasingSeq(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t, noop)
	payerKey, payer := testKey(t, 1)
	airdrop(t, rt, payer, 1_000_000) // seq 1

	r1, err := rt.Process(ctx, signedTx(t, "n1", payer, nil, payerKey))
	require.NoError(t, err)
	r2, err := rt.Process(ctx, signedTx(t, "n2", payer, nil, payerKey))
	require.NoError(t, err)

	assert.Equal(t, int64(2), r1.Seq)
	assert.Equal(t, int64(3), r2.Seq)
}

func TestProcess_FailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	_, sink := testKey(t, 9)
	boom := errors.New("boom")

	rt, store := newTestRuntime(t, func(ic *InvokeContext, accounts []AccountMeta, _ []byte) error {
		if err := ic.Transfer(accounts[0].Address, sink, 100_000); err != nil {
			return err
		}
		ic.Logf("moved 100000")
		return boom
	})
	payerKey, payer := testKey(t, 1)
	airdrop(t, rt, payer, 1_000_000)

	metas := []AccountMeta{{Address: payer, Signer: true, Writable: true}, {Address: sink, Writable: true}}
	receipt, err := rt.Process(ctx, signedTx(t, "n1", payer, metas, payerKey))
	require.ErrorIs(t, err, boom)

	assert.False(t, receipt.OK())
	assert.Equal(t, string(CodeInternal), receipt.ErrorCode)
	assert.Equal(t, uint64(0), receipt.Fee)
	assert.Equal(t, []string{"moved 100000"}, receipt.Logs)

	assert.Equal(t, uint64(1_000_000), balance(t, rt, payer), "fee and transfer must roll back")
	_, err = rt.Account(ctx, sink)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)

	entry, err := store.JournalEntryByTx(ctx, receipt.TxID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusFailed, entry.Status)
	assert.Equal(t, receipt.Seq, entry.Seq)
	assert.Equal(t, uint64(0), entry.Fee)
}

func TestProcess_RejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	rt, store := newTestRuntime(t, noop)
	payerKey, payer := testKey(t, 1)
	airdrop(t, rt, payer, 1_000_000)

	tx := signedTx(t, "n1", payer, nil, payerKey)
	_, err := rt.Process(ctx, tx)
	require.NoError(t, err)

	_, err = rt.Process(ctx, tx)
	require.ErrorIs(t, err, ErrDuplicateTransaction)
	assert.Equal(t, uint64(995_000), balance(t, rt, payer), "duplicate must not charge a fee")

	entries, err := store.Journal(ctx, ledger.JournalFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestProcess_SignatureChecks(t *testing.T) {
	ctx := context.Background()
	payerKey, payer := testKey(t, 1)
	otherKey, other := testKey(t, 2)

	t.Run("missing signature", func(t *testing.T) {
		rt, _ := newTestRuntime(t, noop)
		airdrop(t, rt, payer, 1_000_000)

		tx := signedTx(t, "n1", payer, []AccountMeta{{Address: other, Signer: true}}, payerKey, otherKey)
		tx.Signatures = tx.Signatures[:1]

		_, err := rt.Process(ctx, tx)
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	t.Run("wrong key", func(t *testing.T) {
		rt, _ := newTestRuntime(t, noop)
		airdrop(t, rt, payer, 1_000_000)

		tx := signedTx(t, "n1", payer, nil, payerKey)
		forged := signedTx(t, "n1", other, nil, otherKey)
		tx.Signatures = forged.Signatures

		_, err := rt.Process(ctx, tx)
		assert.ErrorIs(t, err, ErrInvalidSignature)
		assert.Equal(t, uint64(1_000_000), balance(t, rt, payer))
	})

	t.Run("tampered message", func(t *testing.T) {
		rt, _ := newTestRuntime(t, noop)
		airdrop(t, rt, payer, 1_000_000)

		tx := signedTx(t, "n1", payer, nil, payerKey)
		tx.Message.Nonce = "n2"

		_, err := rt.Process(ctx, tx)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("empty transaction", func(t *testing.T) {
		rt, _ := newTestRuntime(t, noop)
		tx, err := Sign(Message{Payer: payer, Nonce: "n1"}, payerKey)
		require.NoError(t, err)

		_, err = rt.Process(ctx, tx)
		assert.ErrorIs(t, err, ErrEmptyTransaction)
	})
}

func TestSign_MissingKey(t *testing.T) {
	_, payer := testKey(t, 1)
	otherKey, _ := testKey(t, 2)

	_, err := Sign(Message{Payer: payer, Instructions: []Instruction{{Program: testProgramID}}}, otherKey)
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestProcess_InsufficientFundsForFee(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t, noop)
	payerKey, payer := testKey(t, 1)
	airdrop(t, rt, payer, 4999)

	receipt, err := rt.Process(ctx, signedTx(t, "n1", payer, nil, payerKey))
	require.ErrorIs(t, err, ErrInsufficientFundsForFee)
	assert.Equal(t, string(CodeInsufficientFundsForFee), receipt.ErrorCode)
	assert.Equal(t, uint64(4999), balance(t, rt, payer))
}

func TestProcess_UnknownProgram(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t, nil)
	payerKey, payer := testKey(t, 1)
	airdrop(t, rt, payer, 1_000_000)

	_, err := rt.Process(ctx, signedTx(t, "n1", payer, nil, payerKey))
	assert.ErrorIs(t, err, ErrUnknownProgram)
}

func TestTransfer_ProgramAddressAuthority(t *testing.T) {
	ctx := context.Background()
	seeds := [][]byte{[]byte("seed3")}
	pda, bump, err := address.FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)
	signerSeeds := [][]byte{[]byte("seed3"), {bump}}

	payerKey, payer := testKey(t, 1)

	tests := []struct {
		name    string
		seeds   [][]byte
		wantErr error
	}{
		{name: "no seeds", seeds: nil, wantErr: ErrUnauthorizedSigner},
		{name: "wrong bump", seeds: [][]byte{[]byte("seed3"), {bump - 1}}, wantErr: ErrUnauthorizedSigner},
		{name: "wrong seed", seeds: [][]byte{[]byte("seed4"), {bump}}, wantErr: ErrUnauthorizedSigner},
		{name: "valid seeds", seeds: signerSeeds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, _ []byte) error {
				return ic.Transfer(pda, payer, 300, tt.seeds...)
			})
			airdrop(t, rt, payer, 1_000_000)
			airdrop(t, rt, pda, 1000)

			_, err := rt.Process(ctx, signedTx(t, "n1", payer, writable(pda, payer), payerKey))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, uint64(1000), balance(t, rt, pda))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(700), balance(t, rt, pda))
			assert.Equal(t, uint64(1_000_000-5000+300), balance(t, rt, payer))
		})
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	_, sink := testKey(t, 9)
	rt, _ := newTestRuntime(t, func(ic *InvokeContext, accounts []AccountMeta, _ []byte) error {
		return ic.Transfer(accounts[0].Address, sink, 1_000_000)
	})
	payerKey, payer := testKey(t, 1)
	airdrop(t, rt, payer, 1_000_000)

	metas := []AccountMeta{{Address: payer, Signer: true, Writable: true}}
	_, err := rt.Process(ctx, signedTx(t, "n1", payer, metas, payerKey))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTransfer_RejectsDataSource(t *testing.T) {
	ctx := context.Background()
	seeds := [][]byte{[]byte("seed3")}
	pda, bump, err := address.FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)
	signerSeeds := [][]byte{[]byte("seed3"), {bump}}

	payerKey, payer := testKey(t, 1)
	rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, data []byte) error {
		if len(data) == 0 {
			return ic.CreateAccount(payer, pda, 4, ic.ProgramID(), signerSeeds...)
		}
		return ic.Transfer(pda, payer, 1, signerSeeds...)
	})
	airdrop(t, rt, payer, 10_000_000)

	_, err = rt.Process(ctx, signedTx(t, "n1", payer, writable(payer, pda), payerKey))
	require.NoError(t, err)

	tx, err := Sign(Message{Payer: payer, Nonce: "n2", Instructions: []Instruction{{
		Program: testProgramID, Accounts: writable(pda, payer), Data: []byte{1},
	}}}, payerKey)
	require.NoError(t, err)
	_, err = rt.Process(ctx, tx)
	assert.ErrorIs(t, err, ErrInvalidTransferSource)
}

func TestCreateAccount(t *testing.T) {
	ctx := context.Background()
	seeds := [][]byte{[]byte("seed3")}
	pda, bump, err := address.FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)
	signerSeeds := [][]byte{[]byte("seed3"), {bump}}

	payerKey, payer := testKey(t, 1)
	rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, _ []byte) error {
		return ic.CreateAccount(payer, pda, 2, ic.ProgramID(), signerSeeds...)
	})
	airdrop(t, rt, payer, 10_000_000)

	_, err = rt.Process(ctx, signedTx(t, "n1", payer, writable(payer, pda), payerKey))
	require.NoError(t, err)

	acct, err := rt.Account(ctx, pda)
	require.NoError(t, err)
	assert.Equal(t, uint64(904_800), acct.Lamports)
	assert.Equal(t, testProgramID, acct.Owner)
	assert.Equal(t, []byte{0, 0}, acct.Data)
	assert.Equal(t, uint64(10_000_000-5000-904_800), balance(t, rt, payer))

	_, err = rt.Process(ctx, signedTx(t, "n2", payer, writable(payer, pda), payerKey))
	assert.ErrorIs(t, err, ErrAccountInUse)
}

func TestCreateAccount_TopsUpFundedAddress(t *testing.T) {
	ctx := context.Background()
	seeds := [][]byte{[]byte("seed3")}
	pda, bump, err := address.FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		held      uint64
		wantPDA   uint64
		wantPayer uint64
	}{
		{name: "below minimum", held: 1, wantPDA: 904_800, wantPayer: 10_000_000 - 5000 - 904_799},
		{name: "above minimum", held: 1_000_000, wantPDA: 1_000_000, wantPayer: 10_000_000 - 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payerKey, payer := testKey(t, 1)
			rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, _ []byte) error {
				return ic.CreateAccount(payer, pda, 2, ic.ProgramID(), []byte("seed3"), []byte{bump})
			})
			airdrop(t, rt, payer, 10_000_000)
			airdrop(t, rt, pda, tt.held)

			_, err := rt.Process(ctx, signedTx(t, "n1", payer, writable(payer, pda), payerKey))
			require.NoError(t, err)

			acct, err := rt.Account(ctx, pda)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPDA, acct.Lamports)
			assert.Equal(t, testProgramID, acct.Owner)
			assert.Equal(t, []byte{0, 0}, acct.Data)
			assert.Equal(t, tt.wantPayer, balance(t, rt, payer))
		})
	}
}

func TestInvoke_RequiresWritableAccounts(t *testing.T) {
	ctx := context.Background()
	payerKey, payer := testKey(t, 1)
	_, sink := testKey(t, 9)

	tests := []struct {
		name    string
		metas   []AccountMeta
		wantErr error
	}{
		{name: "destination not listed", metas: writable(payer), wantErr: ErrAccountNotWritable},
		{
			name:    "destination read-only",
			metas:   []AccountMeta{{Address: payer, Writable: true}, {Address: sink}},
			wantErr: ErrAccountNotWritable,
		},
		{
			name:    "source read-only",
			metas:   []AccountMeta{{Address: payer}, {Address: sink, Writable: true}},
			wantErr: ErrAccountNotWritable,
		},
		{
			name:  "listed twice, once writable",
			metas: []AccountMeta{{Address: payer}, {Address: payer, Writable: true}, {Address: sink, Writable: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, _ []byte) error {
				return ic.Transfer(payer, sink, 100)
			})
			airdrop(t, rt, payer, 1_000_000)

			receipt, err := rt.Process(ctx, signedTx(t, "n1", payer, tt.metas, payerKey))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, string(CodeAccountNotWritable), receipt.ErrorCode)
				assert.Equal(t, uint64(1_000_000), balance(t, rt, payer))
				assert.Equal(t, uint64(0), balance(t, rt, sink))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint64(100), balance(t, rt, sink))
		})
	}
}

func TestInvoke_DataWritesRequireWritableAccounts(t *testing.T) {
	ctx := context.Background()
	seeds := [][]byte{[]byte("seed3")}
	pda, bump, err := address.FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)
	signerSeeds := [][]byte{[]byte("seed3"), {bump}}

	payerKey, payer := testKey(t, 1)
	rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, data []byte) error {
		switch {
		case len(data) == 0:
			return ic.CreateAccount(payer, pda, 2, ic.ProgramID(), signerSeeds...)
		case data[0] == 'c':
			return ic.CloseAccount(pda, payer)
		default:
			return ic.SetData(pda, data)
		}
	})
	airdrop(t, rt, payer, 10_000_000)

	send := func(nonce string, metas []AccountMeta, data []byte) error {
		tx, err := Sign(Message{Payer: payer, Nonce: nonce, Instructions: []Instruction{{
			Program: testProgramID, Accounts: metas, Data: data,
		}}}, payerKey)
		require.NoError(t, err)
		_, err = rt.Process(ctx, tx)
		return err
	}
	readOnlyPDA := []AccountMeta{{Address: payer, Writable: true}, {Address: pda}}

	assert.ErrorIs(t, send("create-ro", readOnlyPDA, nil), ErrAccountNotWritable)
	require.NoError(t, send("create", writable(payer, pda), nil))

	assert.ErrorIs(t, send("set-ro", readOnlyPDA, []byte{7, 8}), ErrAccountNotWritable)
	assert.ErrorIs(t, send("close-ro", readOnlyPDA, []byte{'c', 0}), ErrAccountNotWritable)
	assert.ErrorIs(t, send("close-dest-ro", []AccountMeta{{Address: pda, Writable: true}}, []byte{'c', 0}), ErrAccountNotWritable)

	acct, err := rt.Account(ctx, pda)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, acct.Data)
	assert.Equal(t, uint64(904_800), acct.Lamports)
}

func TestProcess_LookupFailureIsNotJournaled(t *testing.T) {
	ctx := context.Background()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	lookupErr := errors.New("disk I/O error")
	rt, err := New(ctx, lookupFailingLedger{Store: store, err: lookupErr},
		WithIDGenerator(NewSequenceGenerator("airdrop")))
	require.NoError(t, err)
	rt.Register(funcProgram{id: testProgramID, exec: noop})

	payerKey, payer := testKey(t, 1)
	airdrop(t, rt, payer, 1_000_000)

	receipt, err := rt.Process(ctx, signedTx(t, "n1", payer, nil, payerKey))
	require.ErrorIs(t, err, lookupErr)
	assert.Empty(t, receipt.Status)
	assert.Equal(t, int64(0), receipt.Seq)
	assert.Equal(t, uint64(1_000_000), balance(t, rt, payer))

	entries, err := store.Journal(ctx, ledger.JournalFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.KindAirdrop, entries[0].Kind)
}

func TestSetDataAndClose(t *testing.T) {
	ctx := context.Background()
	seeds := [][]byte{[]byte("seed3")}
	pda, bump, err := address.FindProgramAddress(seeds, testProgramID)
	require.NoError(t, err)
	signerSeeds := [][]byte{[]byte("seed3"), {bump}}

	payerKey, payer := testKey(t, 1)
	rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, data []byte) error {
		switch {
		case len(data) == 0:
			return ic.CreateAccount(payer, pda, 2, ic.ProgramID(), signerSeeds...)
		case data[0] == 'c':
			return ic.CloseAccount(pda, payer)
		default:
			return ic.SetData(pda, data)
		}
	})
	airdrop(t, rt, payer, 10_000_000)

	send := func(nonce string, data []byte) error {
		tx, err := Sign(Message{Payer: payer, Nonce: nonce, Instructions: []Instruction{{
			Program: testProgramID, Accounts: writable(payer, pda), Data: data,
		}}}, payerKey)
		require.NoError(t, err)
		_, err = rt.Process(ctx, tx)
		return err
	}

	require.NoError(t, send("create", nil))
	require.NoError(t, send("set", []byte{7, 8}))

	acct, err := rt.Account(ctx, pda)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8}, acct.Data)

	assert.ErrorIs(t, send("resize", []byte{7, 8, 9}), ErrAccountDataSize)

	before := balance(t, rt, payer)
	require.NoError(t, send("close", []byte{'c', 0}))
	_, err = rt.Account(ctx, pda)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.Equal(t, before-5000+904_800, balance(t, rt, payer))
}

func TestSetData_NotOwner(t *testing.T) {
	ctx := context.Background()
	payerKey, payer := testKey(t, 1)
	rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, _ []byte) error {
		return ic.SetData(payer, nil)
	})
	airdrop(t, rt, payer, 1_000_000)

	_, err := rt.Process(ctx, signedTx(t, "n1", payer, writable(payer), payerKey))
	assert.ErrorIs(t, err, ErrNotAccountOwner)
}

func TestProcess_PurgesEmptyAccounts(t *testing.T) {
	ctx := context.Background()
	payerKey, payer := testKey(t, 1)
	otherKey, other := testKey(t, 2)
	rt, _ := newTestRuntime(t, func(ic *InvokeContext, _ []AccountMeta, _ []byte) error {
		return ic.Transfer(other, payer, 700)
	})
	airdrop(t, rt, payer, 1_000_000)
	airdrop(t, rt, other, 700)

	metas := []AccountMeta{{Address: other, Signer: true, Writable: true}, {Address: payer, Writable: true}}
	_, err := rt.Process(ctx, signedTx(t, "n1", payer, metas, payerKey, otherKey))
	require.NoError(t, err)

	_, err = rt.Account(ctx, other)
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
	assert.Equal(t, uint64(0), balance(t, rt, other))
}

func TestAirdrop_Overflow(t *testing.T) {
	ctx := context.Background()
	rt, _ := newTestRuntime(t, nil)
	_, payer := testKey(t, 1)
	airdrop(t, rt, payer, maxLamports)

	_, err := rt.Airdrop(ctx, payer, 1)
	assert.ErrorIs(t, err, ErrLamportsOverflow)
	assert.Equal(t, uint64(maxLamports), balance(t, rt, payer))
}

func TestNew_ResumesClock(t *testing.T) {
	ctx := context.Background()
	rt, store := newTestRuntime(t, nil)
	_, payer := testKey(t, 1)
	airdrop(t, rt, payer, 1)
	airdrop(t, rt, payer, 1)

	resumed, err := New(ctx, store, WithIDGenerator(NewSequenceGenerator("again")))
	require.NoError(t, err)
	receipt, err := resumed.Airdrop(ctx, payer, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), receipt.Seq)
}

func TestRent_MinimumBalance(t *testing.T) {
	r := DefaultRent()
	assert.Equal(t, uint64(890_880), r.MinimumBalance(0))
	assert.Equal(t, uint64(904_800), r.MinimumBalance(2))
}
