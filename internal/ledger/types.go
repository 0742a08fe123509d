package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/pdavault/internal/address"
	"github.com/roach88/pdavault/internal/canon"
)

var (
	// ErrAccountNotFound is returned when no row exists for an address.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned by Create when the address is occupied.
	ErrAccountExists = errors.New("account already exists")

	// ErrLamportsOverflow is returned when a balance does not fit the
	// database's signed 64-bit integer column.
	ErrLamportsOverflow = errors.New("lamports exceed storable range")

	// ErrDuplicateTransaction is returned when a journal entry for the same
	// transaction ID already exists.
	ErrDuplicateTransaction = errors.New("transaction already processed")
)

// Account is the persisted state of one address.
type Account struct {
	Address  address.Address `json:"address"`
	Lamports uint64          `json:"lamports"`
	Owner    address.Address `json:"owner"`
	Data     []byte          `json:"data,omitempty"`
}

// IsEmpty reports whether the account holds nothing worth keeping:
// no lamports and no data.
func (a Account) IsEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0
}

// Kind distinguishes journal entry sources.
type Kind string

const (
	KindTransaction Kind = "transaction"
	KindAirdrop     Kind = "airdrop"
)

// Status is the outcome recorded for a journal entry.
type Status string

const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// JournalEntry records one processed transaction or airdrop.
type JournalEntry struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	TxID      string          `json:"tx_id"`
	Kind      Kind            `json:"kind"`
	Payer     address.Address `json:"payer"`
	Summary   string          `json:"summary"`
	Status    Status          `json:"status"`
	ErrorCode string          `json:"error_code,omitempty"`
	Error     string          `json:"error,omitempty"`
	Fee       uint64          `json:"fee"`
}

// EntryID computes the content-addressed ID of a journal entry.
// The ID covers every field except itself.
func EntryID(e JournalEntry) (string, error) {
	id, err := canon.HashValue(canon.DomainJournal, map[string]any{
		"seq":        e.Seq,
		"tx_id":      e.TxID,
		"kind":       string(e.Kind),
		"payer":      e.Payer.String(),
		"summary":    e.Summary,
		"status":     string(e.Status),
		"error_code": e.ErrorCode,
		"error":      e.Error,
		"fee":        e.Fee,
	})
	if err != nil {
		return "", fmt.Errorf("journal entry id: %w", err)
	}
	return id, nil
}
