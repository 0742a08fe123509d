package vault

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/runtime"
)

// Op names a vault instruction.
type Op string

const (
	OpInitialize Op = "initialize"
	OpDeposit    Op = "deposit"
	OpWithdraw   Op = "withdraw"
	OpClose      Op = "close"
)

// Ops lists every instruction in declaration order.
var Ops = []Op{OpInitialize, OpDeposit, OpWithdraw, OpClose}

const discriminatorSize = 8

// Discriminator returns the 8-byte instruction tag: the first eight bytes
// of SHA-256("global:<op>").
func (op Op) Discriminator() [discriminatorSize]byte {
	sum := sha256.Sum256([]byte("global:" + string(op)))
	var d [discriminatorSize]byte
	copy(d[:], sum[:discriminatorSize])
	return d
}

// TakesAmount reports whether op carries a u64 argument.
func (op Op) TakesAmount() bool {
	return op == OpDeposit || op == OpWithdraw
}

// Call is a decoded instruction.
type Call struct {
	Op     Op
	Amount uint64
}

// Encode returns the instruction data for c.
func (c Call) Encode() []byte {
	d := c.Op.Discriminator()
	data := append([]byte(nil), d[:]...)
	if c.Op.TakesAmount() {
		data = binary.LittleEndian.AppendUint64(data, c.Amount)
	}
	return data
}

// DecodeCall parses instruction data.
func DecodeCall(data []byte) (Call, error) {
	if len(data) < discriminatorSize {
		return Call{}, newError(CodeInvalidInstruction, "%d bytes of instruction data", len(data))
	}
	for _, op := range Ops {
		d := op.Discriminator()
		if string(data[:discriminatorSize]) != string(d[:]) {
			continue
		}
		args := data[discriminatorSize:]
		if !op.TakesAmount() {
			if len(args) != 0 {
				return Call{}, newError(CodeInvalidInstruction, "%s takes no arguments", op)
			}
			return Call{Op: op}, nil
		}
		if len(args) != 8 {
			return Call{}, newError(CodeInvalidInstruction, "%s amount is %d bytes, want 8", op, len(args))
		}
		return Call{Op: op, Amount: binary.LittleEndian.Uint64(args)}, nil
	}
	return Call{}, newError(CodeInvalidInstruction, "unknown discriminator %x", data[:discriminatorSize])
}

// NewInstruction builds the instruction for c on behalf of owner. The
// account list is [owner, vault, state, system program].
func NewInstruction(program, owner address.Address, c Call) (runtime.Instruction, error) {
	addrs, err := Derive(program, owner)
	if err != nil {
		return runtime.Instruction{}, fmt.Errorf("build %s: %w", c.Op, err)
	}
	// The record is only written by initialize and close.
	stateWritable := c.Op == OpInitialize || c.Op == OpClose

	return runtime.Instruction{
		Program: program,
		Accounts: []runtime.AccountMeta{
			{Address: owner, Signer: true, Writable: true},
			{Address: addrs.Vault, Writable: true},
			{Address: addrs.State, Writable: stateWritable},
			{Address: runtime.SystemProgramID},
		},
		Data: c.Encode(),
	}, nil
}

func NewInitializeInstruction(program, owner address.Address) (runtime.Instruction, error) {
	return NewInstruction(program, owner, Call{Op: OpInitialize})
}

func NewDepositInstruction(program, owner address.Address, amount uint64) (runtime.Instruction, error) {
	return NewInstruction(program, owner, Call{Op: OpDeposit, Amount: amount})
}

func NewWithdrawInstruction(program, owner address.Address, amount uint64) (runtime.Instruction, error) {
	return NewInstruction(program, owner, Call{Op: OpWithdraw, Amount: amount})
}

func NewCloseInstruction(program, owner address.Address) (runtime.Instruction, error) {
	return NewInstruction(program, owner, Call{Op: OpClose})
}
