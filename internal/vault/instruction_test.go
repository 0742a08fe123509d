package vault

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pdavault/internal/runtime"
)

func TestOp_Discriminator(t *testing.T) {
	want := map[Op]string{
		OpInitialize: "afaf6d1f0d989bed",
		OpDeposit:    "f223c68952e1f2b6",
		OpWithdraw:   "b712469c946da122",
		OpClose:      "62a5c9b16c41ce60",
	}
	for op, hexDisc := range want {
		d := op.Discriminator()
		assert.Equal(t, hexDisc, hex.EncodeToString(d[:]), op)
	}
}

func TestCall_EncodeDecode(t *testing.T) {
	calls := []Call{
		{Op: OpInitialize},
		{Op: OpDeposit, Amount: 1000},
		{Op: OpWithdraw, Amount: 1<<64 - 1},
		{Op: OpClose},
	}
	for _, c := range calls {
		got, err := DecodeCall(c.Encode())
		require.NoError(t, err, c.Op)
		assert.Equal(t, c, got)
	}

	assert.Equal(t, "f223c68952e1f2b6e803000000000000", hex.EncodeToString(Call{Op: OpDeposit, Amount: 1000}.Encode()))
}

func TestDecodeCall_Invalid(t *testing.T) {
	deposit := Call{Op: OpDeposit, Amount: 5}.Encode()
	closeData := Call{Op: OpClose}.Encode()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "short", data: []byte{1, 2, 3}},
		{name: "unknown discriminator", data: []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{name: "truncated amount", data: deposit[:12]},
		{name: "missing amount", data: deposit[:8]},
		{name: "trailing bytes", data: append(closeData, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCall(tt.data)
			assert.ErrorIs(t, err, ErrInvalidInstruction)
		})
	}
}

func TestNewInstruction_AccountOrder(t *testing.T) {
	addrs, err := Derive(testProgramID, vectorOwner)
	require.NoError(t, err)

	ix, err := NewWithdrawInstruction(testProgramID, vectorOwner, 7)
	require.NoError(t, err)

	assert.Equal(t, testProgramID, ix.Program)
	assert.Equal(t, []runtime.AccountMeta{
		{Address: vectorOwner, Signer: true, Writable: true},
		{Address: addrs.Vault, Writable: true},
		{Address: addrs.State},
		{Address: runtime.SystemProgramID},
	}, ix.Accounts)

	ix, err = NewCloseInstruction(testProgramID, vectorOwner)
	require.NoError(t, err)
	assert.True(t, ix.Accounts[2].Writable, "close writes the record")
}
