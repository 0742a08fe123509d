package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/roach88/pdavault/internal/address"
)

// Reader is the read side of a ledger transaction.
type Reader interface {
	// Get returns the account at addr or ErrAccountNotFound.
	Get(ctx context.Context, addr address.Address) (Account, error)

	// HasTransaction reports whether txID is already journaled.
	HasTransaction(ctx context.Context, txID string) (bool, error)
}

// Writer is the read-write side of a ledger transaction.
// All calls made through one Writer commit or roll back together.
type Writer interface {
	Reader

	// Create inserts acct only if its address is free.
	// Returns ErrAccountExists when the address is occupied.
	Create(ctx context.Context, acct Account) error

	// Put inserts or replaces acct.
	Put(ctx context.Context, acct Account) error

	// Delete removes the account at addr. Deleting a missing account is a no-op.
	Delete(ctx context.Context, addr address.Address) error

	// AppendJournal records a journal entry. The entry ID is computed here.
	// Returns ErrDuplicateTransaction if the entry's TxID is already journaled.
	AppendJournal(ctx context.Context, entry JournalEntry) (JournalEntry, error)
}

// sqlTx implements Reader and Writer over a *sql.Tx.
type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Get(ctx context.Context, addr address.Address) (Account, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT address, lamports, owner, data
		FROM accounts
		WHERE address = ?
	`, addr.String())

	acct, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return acct, err
}

func (t *sqlTx) HasTransaction(ctx context.Context, txID string) (bool, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM journal WHERE tx_id = ?
	`, txID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check transaction: %w", err)
	}
	return count > 0, nil
}

func (t *sqlTx) Create(ctx context.Context, acct Account) error {
	lamports, err := storableLamports(acct.Lamports)
	if err != nil {
		return fmt.Errorf("create account %s: %w", acct.Address, err)
	}

	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO accounts (address, lamports, owner, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`,
		acct.Address.String(),
		lamports,
		acct.Owner.String(),
		nonNil(acct.Data),
	)
	if err != nil {
		return fmt.Errorf("create account %s: %w", acct.Address, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create account %s: rows affected: %w", acct.Address, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAccountExists, acct.Address)
	}
	return nil
}

func (t *sqlTx) Put(ctx context.Context, acct Account) error {
	lamports, err := storableLamports(acct.Lamports)
	if err != nil {
		return fmt.Errorf("put account %s: %w", acct.Address, err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO accounts (address, lamports, owner, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			lamports = excluded.lamports,
			owner = excluded.owner,
			data = excluded.data
	`,
		acct.Address.String(),
		lamports,
		acct.Owner.String(),
		nonNil(acct.Data),
	)
	if err != nil {
		return fmt.Errorf("put account %s: %w", acct.Address, err)
	}
	return nil
}

func (t *sqlTx) Delete(ctx context.Context, addr address.Address) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM accounts WHERE address = ?`, addr.String())
	if err != nil {
		return fmt.Errorf("delete account %s: %w", addr, err)
	}
	return nil
}

func (t *sqlTx) AppendJournal(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	fee, err := storableLamports(entry.Fee)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("append journal: %w", err)
	}

	entry.ID, err = EntryID(entry)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("append journal: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO journal
		(seq, id, tx_id, kind, payer, summary, status, error_code, error, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Seq,
		entry.ID,
		entry.TxID,
		string(entry.Kind),
		entry.Payer.String(),
		entry.Summary,
		string(entry.Status),
		entry.ErrorCode,
		entry.Error,
		fee,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return JournalEntry{}, fmt.Errorf("%w: %s", ErrDuplicateTransaction, entry.TxID)
		}
		return JournalEntry{}, fmt.Errorf("append journal: %w", err)
	}
	return entry, nil
}

func storableLamports(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrLamportsOverflow, v)
	}
	return int64(v), nil
}

// nonNil keeps the NOT NULL data column satisfied for data-less accounts.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
