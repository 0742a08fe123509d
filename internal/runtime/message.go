package runtime

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/canon"
)

// AccountMeta names an account an instruction touches.
type AccountMeta struct {
	Address  address.Address `json:"address"`
	Signer   bool            `json:"signer"`
	Writable bool            `json:"writable"`
}

// Instruction is one program call: the program to run, the accounts it
// may touch, and opaque instruction data the program decodes itself.
type Instruction struct {
	Program  address.Address `json:"program"`
	Accounts []AccountMeta   `json:"accounts"`
	Data     []byte          `json:"data"`
}

// Message is the signed part of a transaction.
type Message struct {
	// Payer pays the fee and is always the first required signer.
	Payer address.Address `json:"payer"`

	// Nonce distinguishes otherwise identical messages.
	Nonce string `json:"nonce"`

	Instructions []Instruction `json:"instructions"`
}

// Signers returns the addresses that must sign the message: the payer
// first, then every account marked Signer in order of first appearance.
func (m Message) Signers() []address.Address {
	seen := map[address.Address]bool{m.Payer: true}
	signers := []address.Address{m.Payer}
	for _, ix := range m.Instructions {
		for _, meta := range ix.Accounts {
			if meta.Signer && !seen[meta.Address] {
				seen[meta.Address] = true
				signers = append(signers, meta.Address)
			}
		}
	}
	return signers
}

// instructionsValue renders instructions for canonical encoding.
func (m Message) instructionsValue() []any {
	ixs := make([]any, len(m.Instructions))
	for i, ix := range m.Instructions {
		metas := make([]any, len(ix.Accounts))
		for j, meta := range ix.Accounts {
			metas[j] = map[string]any{
				"address":  meta.Address.String(),
				"signer":   meta.Signer,
				"writable": meta.Writable,
			}
		}
		ixs[i] = map[string]any{
			"program":  ix.Program.String(),
			"accounts": metas,
			"data":     hex.EncodeToString(ix.Data),
		}
	}
	return ixs
}

// Digest returns the 32 bytes every signer signs.
func (m Message) Digest() ([32]byte, error) {
	payload, err := canon.Marshal(map[string]any{
		"payer":        m.Payer.String(),
		"nonce":        m.Nonce,
		"instructions": m.instructionsValue(),
	})
	if err != nil {
		return [32]byte{}, fmt.Errorf("message digest: %w", err)
	}
	return canon.Sum(canon.DomainMessage, payload), nil
}

// Summary returns the canonical JSON of the instructions, as stored in the
// journal.
func (m Message) Summary() (string, error) {
	b, err := canon.Marshal(m.instructionsValue())
	if err != nil {
		return "", fmt.Errorf("message summary: %w", err)
	}
	return string(b), nil
}

// Transaction is a message plus one signature per required signer, in the
// order returned by Message.Signers.
type Transaction struct {
	Message    Message  `json:"message"`
	Signatures [][]byte `json:"signatures"`
}

// ID returns the transaction ID: the hex message digest.
func (tx Transaction) ID() (string, error) {
	d, err := tx.Message.Digest()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(d[:]), nil
}

// Sign builds a transaction for msg. keys must include a private key for
// every required signer; extra keys are ignored.
func Sign(msg Message, keys ...ed25519.PrivateKey) (Transaction, error) {
	digest, err := msg.Digest()
	if err != nil {
		return Transaction{}, err
	}

	byAddr := make(map[address.Address]ed25519.PrivateKey, len(keys))
	for _, k := range keys {
		pub, ok := k.Public().(ed25519.PublicKey)
		if !ok {
			continue
		}
		addr, err := address.FromPublicKey(pub)
		if err != nil {
			return Transaction{}, fmt.Errorf("sign: %w", err)
		}
		byAddr[addr] = k
	}

	signers := msg.Signers()
	sigs := make([][]byte, len(signers))
	for i, s := range signers {
		k, ok := byAddr[s]
		if !ok {
			return Transaction{}, newError(CodeMissingSignature, "no key for signer %s", s)
		}
		sigs[i] = ed25519.Sign(k, digest[:])
	}

	return Transaction{Message: msg, Signatures: sigs}, nil
}

// Verify checks that every required signer produced a valid signature.
func (tx Transaction) Verify() error {
	if len(tx.Message.Instructions) == 0 {
		return ErrEmptyTransaction
	}

	digest, err := tx.Message.Digest()
	if err != nil {
		return err
	}

	signers := tx.Message.Signers()
	if len(tx.Signatures) < len(signers) {
		return newError(CodeMissingSignature, "%d signatures for %d signers", len(tx.Signatures), len(signers))
	}
	for i, s := range signers {
		if !ed25519.Verify(s.PublicKey(), digest[:], tx.Signatures[i]) {
			return newError(CodeInvalidSignature, "signer %s", s)
		}
	}
	return nil
}
