package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pdavault/internal/address"
)

// Account returns the account at addr or ErrAccountNotFound.
func (s *Store) Account(ctx context.Context, addr address.Address) (Account, error) {
	var acct Account
	err := s.View(ctx, func(r Reader) error {
		var err error
		acct, err = r.Get(ctx, addr)
		return err
	})
	return acct, err
}

// Balance returns the lamports held at addr. A missing account holds zero.
func (s *Store) Balance(ctx context.Context, addr address.Address) (uint64, error) {
	acct, err := s.Account(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// LastSeq returns the highest journaled sequence number, or 0 for an empty
// journal. The runtime resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM journal`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

// JournalFilter narrows a journal query.
type JournalFilter struct {
	// Payer restricts results to entries paid for by this address.
	// The zero address means no restriction.
	Payer address.Address

	// Limit caps the number of entries returned (most recent first).
	// Zero means no limit.
	Limit int
}

// Journal returns journal entries, most recent first.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Journal(ctx context.Context, filter JournalFilter) ([]JournalEntry, error) {
	var (
		where []string
		args  []any
	)
	if !filter.Payer.IsZero() {
		where = append(where, "payer = ?")
		args = append(args, filter.Payer.String())
	}

	query := `
		SELECT seq, id, tx_id, kind, payer, summary, status, error_code, error, fee
		FROM journal`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		e, err := scanJournal(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// JournalEntryByTx returns the journal entry for txID.
// Returns sql.ErrNoRows if not found.
func (s *Store) JournalEntryByTx(ctx context.Context, txID string) (JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT seq, id, tx_id, kind, payer, summary, status, error_code, error, fee
		FROM journal
		WHERE tx_id = ?
	`, txID)
	return scanJournal(row)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (Account, error) {
	var (
		addrText  string
		lamports  int64
		ownerText string
		data      []byte
	)
	if err := row.Scan(&addrText, &lamports, &ownerText, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("scan account: %w", err)
	}

	addr, err := address.Parse(addrText)
	if err != nil {
		return Account{}, fmt.Errorf("scan account: address: %w", err)
	}
	owner, err := address.Parse(ownerText)
	if err != nil {
		return Account{}, fmt.Errorf("scan account: owner: %w", err)
	}
	if len(data) == 0 {
		data = nil
	}

	return Account{
		Address:  addr,
		Lamports: uint64(lamports),
		Owner:    owner,
		Data:     data,
	}, nil
}

func scanJournal(row scanner) (JournalEntry, error) {
	var (
		e         JournalEntry
		kind      string
		payerText string
		status    string
		fee       int64
	)
	err := row.Scan(&e.Seq, &e.ID, &e.TxID, &kind, &payerText, &e.Summary, &status, &e.ErrorCode, &e.Error, &fee)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return JournalEntry{}, err
		}
		return JournalEntry{}, fmt.Errorf("scan journal: %w", err)
	}

	payer, err := address.Parse(payerText)
	if err != nil {
		return JournalEntry{}, fmt.Errorf("scan journal: payer: %w", err)
	}
	e.Payer = payer
	e.Kind = Kind(kind)
	e.Status = Status(status)
	e.Fee = uint64(fee)
	return e, nil
}
